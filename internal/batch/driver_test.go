package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"downmix/internal/config"
	"downmix/internal/logging"
)

const surroundJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"dts","channels":8}],"format":{"nb_streams":2}}`

const stereoJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac","channels":2}],"format":{"nb_streams":2}}`

// ffprobeByName picks its report from the probed file's basename so one
// stub can serve a mixed library. Files named "broken" fail outright.
const ffprobeByName = `#!/bin/sh
for a in "$@"; do last=$a; done
case "$last" in
  *surround*) echo '` + surroundJSON + `' ;;
  *stereo*) echo '` + stereoJSON + `' ;;
  *) exit 1 ;;
esac
`

const ffmpegOK = `#!/bin/sh
for a in "$@"; do last=$a; done
echo remuxed > "$last"
exit 0
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "ffprobe"), []byte(ffprobeByName), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "ffmpeg"), []byte(ffmpegOK), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	cfg := config.Default()
	cfg.Tools.Ffmpeg = filepath.Join(binDir, "ffmpeg")
	cfg.Tools.Ffprobe = filepath.Join(binDir, "ffprobe")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	return &cfg
}

func writeMedia(t *testing.T, dir, name string) (string, []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	payload := bytes.Repeat([]byte(name), 512)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path, payload
}

func TestRunProcessesMixedLibrary(t *testing.T) {
	cfg := testConfig(t)
	surround, original := writeMedia(t, cfg.Paths.LibraryDir, "surround.mkv")
	stereo, stereoBytes := writeMedia(t, cfg.Paths.LibraryDir, "stereo.mkv")
	writeMedia(t, cfg.Paths.LibraryDir, "broken.mkv")

	driver := NewDriver(cfg, logging.NewNop())
	summary, results, err := driver.Run(context.Background(), cfg.Paths.LibraryDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Total != 3 || summary.Processed != 1 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected tally: %+v", summary)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	got, err := os.ReadFile(surround)
	if err != nil {
		t.Fatalf("read surround file: %v", err)
	}
	if bytes.Equal(got, original) {
		t.Fatal("surround file should have been remuxed")
	}

	untouched, _ := os.ReadFile(stereo)
	if !bytes.Equal(untouched, stereoBytes) {
		t.Fatal("stereo-only file must not be modified")
	}

	for _, result := range results {
		if filepath.Base(result.Path) == "broken.mkv" {
			if result.Outcome != OutcomeFailed || !errors.Is(result.Err, ErrProbe) {
				t.Fatalf("broken file should fail with a probe error, got %+v", result)
			}
		}
	}
}

func TestRunEmptyLibraryIsDistinct(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}

	driver := NewDriver(cfg, logging.NewNop())
	summary, results, err := driver.Run(context.Background(), cfg.Paths.LibraryDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Empty() {
		t.Fatalf("expected an empty summary, got %+v", summary)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := testConfig(t)
	surround, original := writeMedia(t, cfg.Paths.LibraryDir, "surround.mkv")

	driver := NewDriver(cfg, logging.NewNop(), WithDryRun(true))
	summary, _, err := driver.Run(context.Background(), cfg.Paths.LibraryDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 1 {
		t.Fatalf("dry run should only plan: %+v", summary)
	}

	got, _ := os.ReadFile(surround)
	if !bytes.Equal(got, original) {
		t.Fatal("dry run modified a file")
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testConfig(t)
	writeMedia(t, cfg.Paths.LibraryDir, "surround.mkv")
	if err := os.MkdirAll(cfg.Paths.StagingDir, 0o755); err != nil {
		t.Fatalf("mkdir staging: %v", err)
	}

	holder := flock.New(filepath.Join(cfg.Paths.StagingDir, "downmix.lock"))
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer func() {
		_ = holder.Unlock()
	}()

	driver := NewDriver(cfg, logging.NewNop())
	if _, _, err := driver.Run(context.Background(), cfg.Paths.LibraryDir); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected lock contention, got %v", err)
	}
}

func TestRunRemovesScratchDirectory(t *testing.T) {
	cfg := testConfig(t)
	writeMedia(t, cfg.Paths.LibraryDir, "surround.mkv")

	driver := NewDriver(cfg, logging.NewNop())
	if _, _, err := driver.Run(context.Background(), cfg.Paths.LibraryDir); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, err := os.ReadDir(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("scratch directory left behind: %s", entry.Name())
		}
	}
}

func TestScanPlansWithoutModifying(t *testing.T) {
	cfg := testConfig(t)
	surround, original := writeMedia(t, cfg.Paths.LibraryDir, "surround.mkv")
	writeMedia(t, cfg.Paths.LibraryDir, "stereo.mkv")

	driver := NewDriver(cfg, logging.NewNop())
	results, err := driver.Scan(context.Background(), cfg.Paths.LibraryDir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var planned int
	for _, result := range results {
		planned += len(result.Targets)
	}
	if planned != 1 {
		t.Fatalf("expected exactly one planned target, got %d", planned)
	}

	got, _ := os.ReadFile(surround)
	if !bytes.Equal(got, original) {
		t.Fatal("scan modified a file")
	}
}
