package transaction

import (
	"errors"
	"fmt"
)

// Failure sentinels for each stage of the per-file transaction. Every one of
// them is recovered at the file boundary by the batch driver; none aborts
// the run.
var (
	ErrBackup       = errors.New("backup failure")
	ErrSynthesis    = errors.New("synthesis failure")
	ErrMerge        = errors.New("merge failure")
	ErrVerification = errors.New("verification failure")
	ErrCommit       = errors.New("commit failure")
)

// toolError tags a stage sentinel with the failing tool's exit status.
func toolError(marker error, operation string, exitCode int, detail string, err error) error {
	msg := fmt.Sprintf("%s: exit status %d", operation, exitCode)
	if detail != "" {
		msg += ": " + detail
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, msg, err)
	}
	return fmt.Errorf("%w: %s", marker, msg)
}
