package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"downmix/internal/batch"
	"downmix/internal/journal"
	"downmix/internal/logging"
	"downmix/internal/preflight"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var rootFlag string
	var workersFlag int
	var stereoFlag bool
	var dryRunFlag bool
	var keepBackupsFlag bool

	cmd := &cobra.Command{
		Use:   "run [library-root]",
		Short: "Process the library, synthesizing missing 5.1 tracks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			root := rootFlag
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				root = cfg.Paths.LibraryDir
			}
			if workersFlag > 0 {
				cfg.Batch.Workers = workersFlag
			}
			if cmd.Flags().Changed("stereo") {
				cfg.Synthesis.Stereo = stereoFlag
			}
			if cmd.Flags().Changed("keep-backups") {
				cfg.Batch.KeepBackups = keepBackupsFlag
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checks := preflight.RunAll(cfg, root)
			for _, check := range checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("preflight checks failed: %v", failed)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			opts := []batch.Option{batch.WithDryRun(dryRunFlag)}
			if cfg.Journal.Enabled {
				store, err := journal.Open(cfg.Paths.LogDir)
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Journal", statusWarn, err.Error(), colorize))
				} else {
					defer store.Close()
					opts = append(opts, batch.WithJournal(store))
				}
			}

			driver := batch.NewDriver(cfg, logger, opts...)
			summary, results, err := driver.Run(signalCtx, root)
			if err != nil {
				if errors.Is(err, batch.ErrLocked) {
					return fmt.Errorf("library is locked: %w", err)
				}
				return err
			}

			if summary.Empty() {
				fmt.Fprintf(out, "No candidate files found under %s\n", root)
				return nil
			}

			renderRunSummary(out, summary, results, colorize)

			// Per-file failures are reported above but never change the
			// exit code; only run-level problems do.
			return signalCtx.Err()
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "Library root to walk (defaults to configured library_dir)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Number of files to process concurrently")
	cmd.Flags().BoolVar(&stereoFlag, "stereo", false, "Also synthesize a stereo track when a file has none")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Plan every file without modifying anything")
	cmd.Flags().BoolVar(&keepBackupsFlag, "keep-backups", false, "Retain .backup files after successful commits")
	return cmd
}
