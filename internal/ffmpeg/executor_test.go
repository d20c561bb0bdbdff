package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeStub(t *testing.T, name, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	stub := writeStub(t, "ffmpeg", "#!/bin/sh\nexit 0\n")
	result := Run(context.Background(), stub, []string{"-version"})
	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	if result.ExitCode != 0 {
		t.Fatalf("unexpected exit code: %d", result.ExitCode)
	}
}

func TestRunFailureCapturesStderrAndExitCode(t *testing.T) {
	stub := writeStub(t, "ffmpeg", "#!/bin/sh\necho 'Invalid data found' >&2\nexit 187\n")
	result := Run(context.Background(), stub, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ExitCode != 187 {
		t.Fatalf("unexpected exit code: %d", result.ExitCode)
	}
	if result.Stderr != "Invalid data found" {
		t.Fatalf("unexpected stderr: %q", result.Stderr)
	}
	if result.Err == nil {
		t.Fatal("expected error")
	}
}

func TestRunCancellation(t *testing.T) {
	stub := writeStub(t, "ffmpeg", "#!/bin/sh\nsleep 30\n")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := Run(ctx, stub, nil)
	if result.Success {
		t.Fatal("expected cancelled run to fail")
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "cancelled") {
		t.Fatalf("expected cancellation error, got %v", result.Err)
	}
}
