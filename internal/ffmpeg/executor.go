package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Result contains the outcome of an ffmpeg invocation.
type Result struct {
	Success  bool
	ExitCode int
	Stderr   string
	Err      error
}

// Run executes ffmpeg with the given arguments, capturing stderr. Context
// cancellation kills the process and is surfaced distinctly so callers can
// tell an aborted run from a failed one.
func Run(ctx context.Context, binary string, args []string) Result {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stderr: strings.TrimSpace(stderr.String()),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if ctx.Err() != nil {
			result.Err = fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
			return result
		}
		result.Err = fmt.Errorf("ffmpeg failed: %w", err)
		return result
	}

	result.Success = true
	return result
}
