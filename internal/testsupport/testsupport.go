// Package testsupport provides shared fixtures for tests that need a fully
// wired configuration with stubbed external tools.
package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"downmix/internal/config"
)

// SurroundProbeJSON is an ffprobe report for a file with one 7.1 track.
const SurroundProbeJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"dts","channels":8}],"format":{"nb_streams":2}}`

// StereoProbeJSON is an ffprobe report for a file with a lone stereo track.
const StereoProbeJSON = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac","channels":2}],"format":{"nb_streams":2}}`

// NewConfig builds a config rooted in temp directories with working stub
// ffmpeg/ffprobe scripts on disk. The ffprobe stub reports a 7.1 source
// for files whose name contains "surround" and a stereo-only source for
// names containing "stereo"; anything else fails the probe.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}

	ffprobe := `#!/bin/sh
for a in "$@"; do last=$a; done
case "$last" in
  *surround*) echo '` + SurroundProbeJSON + `' ;;
  *stereo*) echo '` + StereoProbeJSON + `' ;;
  *) exit 1 ;;
esac
`
	ffmpeg := `#!/bin/sh
for a in "$@"; do last=$a; done
echo remuxed > "$last"
exit 0
`
	WriteExecutable(t, filepath.Join(binDir, "ffprobe"), ffprobe)
	WriteExecutable(t, filepath.Join(binDir, "ffmpeg"), ffmpeg)

	cfg := config.Default()
	cfg.Tools.Ffmpeg = filepath.Join(binDir, "ffmpeg")
	cfg.Tools.Ffprobe = filepath.Join(binDir, "ffprobe")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WriteExecutable writes script to path with execute permissions.
func WriteExecutable(t *testing.T, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteConfigFile serializes cfg as TOML in a temp directory and returns
// the file path, ready for a --config flag.
func WriteConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	var buf bytes.Buffer
	buf.WriteString("[paths]\n")
	writeKey(&buf, "library_dir", cfg.Paths.LibraryDir)
	writeKey(&buf, "staging_dir", cfg.Paths.StagingDir)
	writeKey(&buf, "log_dir", cfg.Paths.LogDir)
	buf.WriteString("\n[tools]\n")
	writeKey(&buf, "ffmpeg", cfg.Tools.Ffmpeg)
	writeKey(&buf, "ffprobe", cfg.Tools.Ffprobe)
	if cfg.Synthesis.Stereo {
		buf.WriteString("\n[synthesis]\nstereo = true\n")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func writeKey(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(" = ")
	buf.WriteString(`"` + value + `"`)
	buf.WriteString("\n")
}

// WriteMediaFile creates a placeholder media file and returns its payload.
func WriteMediaFile(t *testing.T, path string) []byte {
	t.Helper()
	payload := bytes.Repeat([]byte(filepath.Base(path)), 512)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir media dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write media file: %v", err)
	}
	return payload
}
