package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"downmix/internal/config"
	"downmix/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every precondition check. Any failed result is fatal to
// the run; nothing is touched until all checks pass.
func RunAll(cfg *config.Config, root string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range deps.CheckBinaries(deps.Required(cfg.FfmpegBinary(), cfg.FfprobeBinary())) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if result.Passed {
			result.Detail = "found"
		}
		results = append(results, result)
	}

	results = append(results, checkRoot(root))
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	return results
}

// Failed returns the names of checks that did not pass.
func Failed(results []Result) []string {
	var names []string
	for _, result := range results {
		if !result.Passed {
			names = append(names, result.Name)
		}
	}
	return names
}

func checkRoot(root string) Result {
	const name = "Library root"
	root = strings.TrimSpace(root)
	if root == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(root)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("not accessible (%v)", err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: "not a directory"}
	}
	return Result{Name: name, Passed: true, Detail: root}
}

// CheckDirectoryAccess verifies the process can read, write, and traverse a
// directory, creating it first when absent.
func CheckDirectoryAccess(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot create (%v)", err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("insufficient permissions (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}
