package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"downmix/internal/config"
	"downmix/internal/ffmpeg"
	"downmix/internal/fileutil"
	"downmix/internal/logging"
	"downmix/internal/media/audio"
	"downmix/internal/media/ffprobe"
)

// State tracks a job through the per-file state machine.
type State int

const (
	StateIdle State = iota
	StateBackingUp
	StateSynthesizing
	StateMerging
	StateVerifying
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBackingUp:
		return "backing up"
	case StateSynthesizing:
		return "synthesizing"
	case StateMerging:
		return "merging"
	case StateVerifying:
		return "verifying"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Job is the ephemeral work unit for one file. All artifact paths are
// removed when the job ends, success or failure; on success the staged
// output has already become the source file by then.
type Job struct {
	Source      string
	Backup      string
	Synthesized []string
	Staged      string
	Targets     []audio.Target

	state State
}

// State returns the job's current position in the state machine.
func (j *Job) State() State {
	return j.state
}

// Controller runs the backup / synthesize / merge / verify / commit
// transaction for a single file. Each file's transaction is fully isolated;
// the original source path is never modified before the final atomic rename.
type Controller struct {
	ffmpegBin   string
	ffprobeBin  string
	codec       string
	surroundBR  string
	stereoBR    string
	scratchDir  string
	keepBackups bool
	logger      *slog.Logger
}

// NewController builds a controller from config. The scratch directory must
// exist and be unique to the current run.
func NewController(cfg *config.Config, scratchDir string, logger *slog.Logger) *Controller {
	return &Controller{
		ffmpegBin:   cfg.FfmpegBinary(),
		ffprobeBin:  cfg.FfprobeBinary(),
		codec:       cfg.Synthesis.Codec,
		surroundBR:  cfg.Synthesis.SurroundBitrate,
		stereoBR:    cfg.Synthesis.StereoBitrate,
		scratchDir:  scratchDir,
		keepBackups: cfg.Batch.KeepBackups,
		logger:      logging.NewComponentLogger(logger, "transaction"),
	}
}

// Process executes the full transaction for source, synthesizing the given
// targets. On any failure the original file is untouched and every artifact
// created so far has been removed.
func (c *Controller) Process(ctx context.Context, source string, targets []audio.Target) error {
	if len(targets) == 0 {
		return nil
	}

	job := &Job{
		Source:  source,
		Backup:  source + ".backup",
		Targets: targets,
		state:   StateIdle,
	}

	if err := c.backup(job); err != nil {
		return err
	}
	if err := c.synthesize(ctx, job); err != nil {
		c.abort(job)
		return err
	}
	if err := c.merge(ctx, job); err != nil {
		c.abort(job)
		return err
	}
	if err := c.verify(job); err != nil {
		c.abort(job)
		return err
	}
	if err := c.commit(job); err != nil {
		c.abort(job)
		return err
	}
	c.finish(job)
	return nil
}

func (c *Controller) backup(job *Job) error {
	job.state = StateBackingUp
	c.stageEvent(job, "creating backup")

	if err := fileutil.CopyFileVerified(job.Source, job.Backup); err != nil {
		// CopyFileVerified removes its own partial output; nothing else
		// exists yet.
		job.state = StateAborted
		return fmt.Errorf("%w: %s: %v", ErrBackup, job.Source, err)
	}

	same, err := fileutil.SameSize(job.Source, job.Backup)
	if err != nil || !same {
		_ = os.Remove(job.Backup)
		job.state = StateAborted
		if err != nil {
			return fmt.Errorf("%w: verify backup size: %v", ErrBackup, err)
		}
		return fmt.Errorf("%w: backup size mismatch for %s", ErrBackup, job.Source)
	}
	return nil
}

func (c *Controller) synthesize(ctx context.Context, job *Job) error {
	job.state = StateSynthesizing

	for _, target := range job.Targets {
		output := filepath.Join(c.scratchDir, fmt.Sprintf("%s-%s%s", uuid.NewString(), layoutSlug(target.Layout), codecExtension(c.codec)))
		c.stageEvent(job, "synthesizing track",
			logging.String("layout", string(target.Layout)),
			logging.Int("source_stream", target.SourceNumber),
		)

		args, err := ffmpeg.DownmixArgs(ffmpeg.DownmixRequest{
			Source:       job.Source,
			SourceNumber: target.SourceNumber,
			Layout:       target.Layout,
			Codec:        c.codec,
			Bitrate:      c.bitrateFor(target.Layout),
			Output:       output,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSynthesis, err)
		}

		// Track the path before running so a partial file is cleaned up too.
		job.Synthesized = append(job.Synthesized, output)

		result := ffmpeg.Run(ctx, c.ffmpegBin, args)
		if !result.Success {
			return toolError(ErrSynthesis, "downmix "+string(target.Layout), result.ExitCode, result.Stderr, result.Err)
		}
		ok, err := fileutil.NonEmptyFile(output)
		if err != nil {
			return fmt.Errorf("%w: inspect output: %v", ErrSynthesis, err)
		}
		if !ok {
			return toolError(ErrSynthesis, "downmix "+string(target.Layout), result.ExitCode, "tool exited cleanly but produced a missing or empty file", nil)
		}
	}
	return nil
}

func (c *Controller) merge(ctx context.Context, job *Job) error {
	job.state = StateMerging
	c.stageEvent(job, "merging tracks")

	// The audio and subtitle sets are re-probed here rather than reusing the
	// classification-time counts.
	probe, err := ffprobe.Probe(ctx, c.ffprobeBin, job.Source)
	if err != nil {
		return fmt.Errorf("%w: merge-time probe: %v", ErrMerge, err)
	}

	// Staged output lives next to the source so the commit rename never
	// crosses a filesystem boundary.
	dir, base := filepath.Split(job.Source)
	job.Staged = filepath.Join(dir, fmt.Sprintf(".%s.staged-%s%s", base, uuid.NewString()[:8], filepath.Ext(base)))

	args := ffmpeg.MergeArgs(ffmpeg.MergeRequest{
		Source:      job.Source,
		Synthesized: job.Synthesized,
		Output:      job.Staged,
		Probe:       probe,
	})

	result := ffmpeg.Run(ctx, c.ffmpegBin, args)
	if !result.Success {
		return toolError(ErrMerge, "remux", result.ExitCode, result.Stderr, result.Err)
	}
	return nil
}

func (c *Controller) verify(job *Job) error {
	job.state = StateVerifying

	ok, err := fileutil.NonEmptyFile(job.Staged)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if !ok {
		return fmt.Errorf("%w: staged output %s missing or empty", ErrVerification, job.Staged)
	}
	return nil
}

func (c *Controller) commit(job *Job) error {
	job.state = StateCommitting
	c.stageEvent(job, "committing")

	// Rename, not copy: no second full-size I/O pass and no window where
	// the final path holds a half-written file.
	if err := os.Rename(job.Staged, job.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	job.Staged = ""
	return nil
}

// finish removes the intermediates after a successful commit. The backup was
// only an undo point for the risky window; once the rename has succeeded it
// is redundant.
func (c *Controller) finish(job *Job) {
	job.state = StateDone
	for _, path := range job.Synthesized {
		c.remove(path)
	}
	if !c.keepBackups {
		c.remove(job.Backup)
	}
	c.stageEvent(job, "transaction complete")
}

// abort deletes every artifact the job created. The original source is
// untouched at every point before commit, so the backup is deleted rather
// than restored.
func (c *Controller) abort(job *Job) {
	job.state = StateAborted
	c.stageEvent(job, "aborting, cleaning up artifacts")

	c.remove(job.Backup)
	for _, path := range job.Synthesized {
		c.remove(path)
	}
	if job.Staged != "" {
		c.remove(job.Staged)
	}
}

func (c *Controller) remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("failed to remove artifact",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

func (c *Controller) stageEvent(job *Job, msg string, attrs ...logging.Attr) {
	args := append([]logging.Attr{
		logging.String(logging.FieldFile, job.Source),
		logging.String(logging.FieldStage, job.state.String()),
	}, attrs...)
	c.logger.Info(msg, logging.Args(args...)...)
}

func (c *Controller) bitrateFor(layout audio.Layout) string {
	if layout == audio.LayoutStereo {
		return c.stereoBR
	}
	return c.surroundBR
}

func layoutSlug(layout audio.Layout) string {
	if layout == audio.LayoutSurround51 {
		return "51"
	}
	return string(layout)
}

func codecExtension(codec string) string {
	switch codec {
	case "eac3":
		return ".eac3"
	case "aac":
		return ".aac"
	default:
		return ".ac3"
	}
}
