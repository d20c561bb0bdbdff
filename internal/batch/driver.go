package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"downmix/internal/config"
	"downmix/internal/journal"
	"downmix/internal/logging"
	"downmix/internal/media/audio"
	"downmix/internal/media/ffprobe"
	"downmix/internal/notifications"
	"downmix/internal/transaction"
)

// ErrProbe marks a tool or I/O failure during stream inspection, as opposed
// to a file that simply has no audio streams.
var ErrProbe = errors.New("probe failure")

// ErrLocked is returned when another downmix run already holds the library lock.
var ErrLocked = errors.New("another run is already in progress")

// Outcome is the per-file result bucket. Every file lands in exactly one.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// FileResult describes what happened to one candidate file.
type FileResult struct {
	Path     string
	Outcome  Outcome
	Action   audio.Action
	Targets  []audio.Target
	Err      error
	Duration time.Duration
}

// Summary aggregates a whole run.
type Summary struct {
	Root      string
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Empty reports whether the walk found no candidate files at all, which is
// reported distinctly from a populated batch with nothing to do.
func (s Summary) Empty() bool {
	return s.Total == 0
}

// Driver runs the per-file pipeline over a library tree.
type Driver struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	store    *journal.Store
	dryRun   bool
}

// Option configures optional Driver behavior.
type Option func(*Driver)

// WithJournal records per-run outcomes into the given store.
func WithJournal(store *journal.Store) Option {
	return func(d *Driver) { d.store = store }
}

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(service notifications.Service) Option {
	return func(d *Driver) { d.notifier = service }
}

// WithDryRun plans every file but performs no transactions.
func WithDryRun(enabled bool) Option {
	return func(d *Driver) { d.dryRun = enabled }
}

// NewDriver constructs a batch driver.
func NewDriver(cfg *config.Config, logger *slog.Logger, opts ...Option) *Driver {
	driver := &Driver{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "batch"),
		notifier: notifications.NewService(cfg),
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver
}

// Run walks root and processes every candidate file, returning the final
// tally. Per-file failures are counted, never escalated; the returned error
// is only non-nil for run-level problems (lock contention, scratch setup,
// walk errors).
func (d *Driver) Run(ctx context.Context, root string) (Summary, []FileResult, error) {
	started := time.Now()

	lock, err := d.acquireLock()
	if err != nil {
		return Summary{}, nil, err
	}
	defer func() {
		_ = lock.Unlock()
	}()

	scratch, cleanup, err := d.createScratch()
	if err != nil {
		return Summary{}, nil, err
	}
	// Scratch teardown runs on every exit path, including cancellation.
	defer cleanup()

	files, err := Discover(root, d.cfg.Batch.Extensions)
	if err != nil {
		return Summary{}, nil, fmt.Errorf("walk library: %w", err)
	}

	summary := Summary{Root: root, Total: len(files)}
	if len(files) == 0 {
		d.logger.Info("no candidate files found", logging.String("root", root))
		summary.Duration = time.Since(started)
		return summary, nil, nil
	}

	if err := d.notifier.NotifyRunStarted(ctx, root, len(files)); err != nil {
		d.logger.Warn("start notification failed", logging.Error(err))
	}

	var runID int64
	if d.store != nil {
		runID, err = d.store.BeginRun(ctx, root)
		if err != nil {
			// The journal is reporting-only; its failures never block a run.
			d.logger.Warn("journal unavailable for this run", logging.Error(err))
			d.store = nil
		}
	}

	controller := transaction.NewController(d.cfg, scratch, d.logger)
	results := d.processAll(ctx, controller, files)

	for _, result := range results {
		switch result.Outcome {
		case OutcomeProcessed:
			summary.Processed++
		case OutcomeSkipped:
			summary.Skipped++
		case OutcomeFailed:
			summary.Failed++
		}
		if d.store != nil {
			record := journal.FileRecord{
				RunID:    runID,
				Path:     result.Path,
				Outcome:  string(result.Outcome),
				Action:   result.Action.String(),
				Duration: result.Duration,
			}
			if result.Err != nil {
				record.Detail = result.Err.Error()
			}
			if err := d.store.RecordFile(ctx, record); err != nil {
				d.logger.Warn("journal record failed", logging.Error(err))
			}
		}
	}

	summary.Duration = time.Since(started)

	if d.store != nil {
		if err := d.store.FinishRun(ctx, runID, summary.Processed, summary.Skipped, summary.Failed); err != nil {
			d.logger.Warn("journal finish failed", logging.Error(err))
		}
	}

	if err := d.notifier.NotifyRunCompleted(ctx, summary.Processed, summary.Skipped, summary.Failed, summary.Duration); err != nil {
		d.logger.Warn("completion notification failed", logging.Error(err))
	}

	d.logger.Info("run complete",
		logging.Int("total", summary.Total),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	return summary, results, nil
}

// Scan probes and classifies every candidate without touching anything.
func (d *Driver) Scan(ctx context.Context, root string) ([]FileResult, error) {
	files, err := Discover(root, d.cfg.Batch.Extensions)
	if err != nil {
		return nil, fmt.Errorf("walk library: %w", err)
	}

	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result := d.classifyFile(ctx, path)
		results = append(results, result)
	}
	return results, nil
}

// processAll fans files out to the worker pool. Files are independent units
// of work; the only shared resource is the scratch directory, and every
// artifact name inside it is unique per file.
func (d *Driver) processAll(ctx context.Context, controller *transaction.Controller, files []string) []FileResult {
	workers := d.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make([]FileResult, 0, len(files))

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for path := range jobs {
				result := d.processFile(ctx, controller, path)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			// Stop feeding; in-flight files roll back through the
			// ordinary cleanup path when their tool invocations die.
			close(jobs)
			wg.Wait()
			return results
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (d *Driver) classifyFile(ctx context.Context, path string) FileResult {
	result := FileResult{Path: path}

	probe, err := ffprobe.Probe(ctx, d.cfg.FfprobeBinary(), path)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("%w: %v", ErrProbe, err)
		return result
	}

	descriptors := audio.Describe(probe.AudioStreams())
	configuration, action := audio.Classify(descriptors)
	result.Action = action
	result.Targets = audio.Plan(configuration, audio.Policy{Stereo: d.cfg.Synthesis.Stereo})

	if len(result.Targets) == 0 {
		result.Outcome = OutcomeSkipped
	} else {
		result.Outcome = OutcomeProcessed
	}
	return result
}

func (d *Driver) processFile(ctx context.Context, controller *transaction.Controller, path string) FileResult {
	started := time.Now()
	result := d.classifyFile(ctx, path)
	if result.Outcome != OutcomeProcessed {
		result.Duration = time.Since(started)
		if result.Err != nil {
			d.logger.Error("probe failed",
				logging.String(logging.FieldFile, path),
				logging.Error(result.Err),
			)
		} else {
			d.logger.Info("skipping file",
				logging.String(logging.FieldFile, path),
				logging.String(logging.FieldAction, result.Action.String()),
			)
		}
		return result
	}

	if d.dryRun {
		result.Outcome = OutcomeSkipped
		result.Duration = time.Since(started)
		d.logger.Info("dry run, would synthesize",
			logging.String(logging.FieldFile, path),
			logging.Int("targets", len(result.Targets)),
		)
		return result
	}

	d.logger.Info("processing file",
		logging.String(logging.FieldFile, path),
		logging.String(logging.FieldAction, result.Action.String()),
		logging.Int("targets", len(result.Targets)),
	)

	if err := controller.Process(ctx, path, result.Targets); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		result.Duration = time.Since(started)
		d.logger.Error("file failed",
			logging.String(logging.FieldFile, path),
			logging.Error(err),
		)
		if notifyErr := d.notifier.NotifyError(ctx, err, filepath.Base(path)); notifyErr != nil {
			d.logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return result
	}

	result.Duration = time.Since(started)
	d.logger.Info("file processed",
		logging.String(logging.FieldFile, path),
		logging.String(logging.FieldOutcome, string(OutcomeProcessed)),
		logging.Duration("duration", result.Duration),
	)
	return result
}

func (d *Driver) acquireLock() (*flock.Flock, error) {
	if err := os.MkdirAll(d.cfg.Paths.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging directory: %w", err)
	}
	lock := flock.New(filepath.Join(d.cfg.Paths.StagingDir, "downmix.lock"))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !acquired {
		return nil, ErrLocked
	}
	return lock, nil
}

func (d *Driver) createScratch() (string, func(), error) {
	scratch := filepath.Join(d.cfg.Paths.StagingDir, "run-"+uuid.NewString()[:8])
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", nil, fmt.Errorf("create scratch directory: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(scratch); err != nil {
			d.logger.Warn("failed to remove scratch directory",
				logging.String("path", scratch),
				logging.Error(err),
			)
		}
	}
	return scratch, cleanup, nil
}
