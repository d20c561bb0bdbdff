package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"downmix/internal/batch"
	"downmix/internal/logging"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var rootFlag string
	var stereoFlag bool

	cmd := &cobra.Command{
		Use:   "scan [library-root]",
		Short: "Classify every file and report the plan without changing anything",
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
			if cmd.Flags().Changed("stereo") {
				cfg.Synthesis.Stereo = stereoFlag
			}

			driver := batch.NewDriver(cfg, logging.NewNop())
			results, err := driver.Scan(signalCtx, root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No candidate files found under %s\n", root)
				return nil
			}

			rows := make([][]string, 0, len(results))
			var planned int
			for _, result := range results {
				action := actionLabel(result.Action)
				if result.Err != nil {
					action = "Probe Failed"
				}
				rows = append(rows, []string{
					shortPath(result.Path),
					action,
					targetsLabel(result.Targets),
				})
				planned += len(result.Targets)
			}

			fmt.Fprintln(out, renderTable(
				[]string{"File", "Action", "Targets"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintln(out, "Planned tracks: "+strconv.Itoa(planned))
			return nil
		},
	}

	cmd.Flags().StringVar(&rootFlag, "root", "", "Library root to walk (defaults to configured library_dir)")
	cmd.Flags().BoolVar(&stereoFlag, "stereo", false, "Include missing stereo tracks in the plan")
	return cmd
}
