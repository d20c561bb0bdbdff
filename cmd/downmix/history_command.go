package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"downmix/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var runFlag int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := journal.Open(cfg.Paths.LogDir)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			if runFlag > 0 {
				records, err := store.RunFiles(cmd.Context(), runFlag)
				if err != nil {
					return fmt.Errorf("load run files: %w", err)
				}
				if len(records) == 0 {
					fmt.Fprintf(out, "No files recorded for run %d\n", runFlag)
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						shortPath(record.Path),
						labelCaser.String(record.Outcome),
						record.Action,
						record.Duration.Round(time.Millisecond).String(),
						record.Detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Outcome", "Action", "Duration", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limitFlag)
			if err != nil {
				return fmt.Errorf("load runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := "running"
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Local().Format(time.RFC3339)
				}
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.Root,
					run.StartedAt.Local().Format(time.RFC3339),
					finished,
					strconv.Itoa(run.Processed),
					strconv.Itoa(run.Skipped),
					strconv.Itoa(run.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Root", "Started", "Finished", "Processed", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 10, "Number of runs to show")
	cmd.Flags().Int64Var(&runFlag, "run", 0, "Show per-file results for the given run ID")
	return cmd
}
