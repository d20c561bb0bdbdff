package transaction

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"downmix/internal/config"
	"downmix/internal/logging"
	"downmix/internal/media/audio"
)

const probeJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"dts","channels":8}],"format":{"nb_streams":2}}`

// stubTools writes ffmpeg/ffprobe stand-ins into a temp bin dir and returns
// a config pointing at them. The ffmpeg script is caller-supplied so tests
// can fail specific stages.
func stubTools(t *testing.T, ffmpegScript string) (*config.Config, string) {
	t.Helper()
	base := t.TempDir()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}

	ffprobeScript := "#!/bin/sh\ncat <<'EOF'\n" + probeJSON + "\nEOF\n"
	if err := os.WriteFile(filepath.Join(binDir, "ffprobe"), []byte(ffprobeScript), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "ffmpeg"), []byte(ffmpegScript), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}

	scratch := filepath.Join(base, "scratch")
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		t.Fatalf("mkdir scratch: %v", err)
	}

	cfg := config.Default()
	cfg.Tools.Ffmpeg = filepath.Join(binDir, "ffmpeg")
	cfg.Tools.Ffprobe = filepath.Join(binDir, "ffprobe")
	return &cfg, scratch
}

func writeSource(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	source := filepath.Join(dir, "movie.mkv")
	payload := bytes.Repeat([]byte("original-video-bytes"), 1024)
	if err := os.WriteFile(source, payload, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return source, payload
}

// ffmpegOK writes a byte to its last argument and exits cleanly, covering
// both the synthesis and merge invocations.
const ffmpegOK = `#!/bin/sh
for a in "$@"; do last=$a; done
echo remuxed > "$last"
exit 0
`

// ffmpegMergeFails succeeds for synthesis (the invocation carrying -af) and
// fails for the remux.
const ffmpegMergeFails = `#!/bin/sh
synth=0
for a in "$@"; do
  last=$a
  [ "$a" = "-af" ] && synth=1
done
if [ "$synth" = "1" ]; then
  echo track > "$last"
  exit 0
fi
echo "muxing failed" >&2
exit 1
`

// ffmpegEmptyOutput exits zero without writing anything.
const ffmpegEmptyOutput = `#!/bin/sh
exit 0
`

func targets51() []audio.Target {
	return []audio.Target{{Layout: audio.LayoutSurround51, SourceNumber: 0}}
}

func assertNoLeftovers(t *testing.T, source, scratch string) {
	t.Helper()
	if _, err := os.Stat(source + ".backup"); !os.IsNotExist(err) {
		t.Fatalf("backup left behind: %v", err)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch not empty: %v", entries)
	}
	dirEntries, err := os.ReadDir(filepath.Dir(source))
	if err != nil {
		t.Fatalf("read source dir: %v", err)
	}
	for _, entry := range dirEntries {
		if entry.Name() != filepath.Base(source) {
			t.Fatalf("unexpected artifact in source dir: %s", entry.Name())
		}
	}
}

func TestProcessCommitsAndCleansUp(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegOK)
	sourceDir := t.TempDir()
	source, original := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	if err := controller.Process(context.Background(), source, targets51()); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if bytes.Equal(got, original) {
		t.Fatal("source should have been replaced by the staged output")
	}
	if string(got) != "remuxed\n" {
		t.Fatalf("unexpected committed content: %q", got)
	}
	assertNoLeftovers(t, source, scratch)
}

func TestProcessEmptyPlanIsNoop(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegOK)
	sourceDir := t.TempDir()
	source, original := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	if err := controller.Process(context.Background(), source, nil); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, _ := os.ReadFile(source)
	if !bytes.Equal(got, original) {
		t.Fatal("no-op plan must not modify the source")
	}
	assertNoLeftovers(t, source, scratch)
}

func TestProcessMergeFailureLeavesOriginalIntact(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegMergeFails)
	sourceDir := t.TempDir()
	source, original := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	err := controller.Process(context.Background(), source, targets51())
	if !errors.Is(err, ErrMerge) {
		t.Fatalf("expected merge failure, got %v", err)
	}

	got, readErr := os.ReadFile(source)
	if readErr != nil {
		t.Fatalf("read source: %v", readErr)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("merge failure corrupted the original file")
	}
	assertNoLeftovers(t, source, scratch)
}

func TestProcessSynthesisEmptyOutputFails(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegEmptyOutput)
	sourceDir := t.TempDir()
	source, original := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	err := controller.Process(context.Background(), source, targets51())
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected synthesis failure, got %v", err)
	}

	got, _ := os.ReadFile(source)
	if !bytes.Equal(got, original) {
		t.Fatal("synthesis failure must not touch the source")
	}
	assertNoLeftovers(t, source, scratch)
}

func TestProcessMissingSourceIsBackupFailure(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegOK)
	controller := NewController(cfg, scratch, logging.NewNop())

	err := controller.Process(context.Background(), filepath.Join(t.TempDir(), "absent.mkv"), targets51())
	if !errors.Is(err, ErrBackup) {
		t.Fatalf("expected backup failure, got %v", err)
	}
}

func TestProcessKeepBackups(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegOK)
	cfg.Batch.KeepBackups = true
	sourceDir := t.TempDir()
	source, original := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	if err := controller.Process(context.Background(), source, targets51()); err != nil {
		t.Fatalf("process: %v", err)
	}

	backup, err := os.ReadFile(source + ".backup")
	if err != nil {
		t.Fatalf("backup should be retained: %v", err)
	}
	if !bytes.Equal(backup, original) {
		t.Fatal("backup does not match original content")
	}
}

func TestProcessSynthesizesEveryTarget(t *testing.T) {
	cfg, scratch := stubTools(t, ffmpegOK)
	sourceDir := t.TempDir()
	source, _ := writeSource(t, sourceDir)

	controller := NewController(cfg, scratch, logging.NewNop())
	targets := []audio.Target{
		{Layout: audio.LayoutSurround51, SourceNumber: 0},
		{Layout: audio.LayoutStereo, SourceNumber: 0},
	}
	if err := controller.Process(context.Background(), source, targets); err != nil {
		t.Fatalf("process: %v", err)
	}
	assertNoLeftovers(t, source, scratch)
}
