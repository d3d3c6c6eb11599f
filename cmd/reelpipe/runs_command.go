package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelpipe/internal/runindex"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		projectID string
		limit     int
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.RunIndex.Enabled {
				return fmt.Errorf("run index is disabled; enable [run_index] in the configuration")
			}

			index, err := runindex.Open(cfg.RunIndex.Path)
			if err != nil {
				return err
			}
			defer index.Close()

			var entries []runindex.Entry
			if projectID != "" {
				entries, err = index.ListProject(cmd.Context(), projectID, limit)
			} else {
				entries, err = index.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					shortID(entry.RunID),
					entry.ProjectID,
					entry.Status,
					formatIndexTime(entry.StartedAt),
					fmt.Sprintf("%d", entry.StagesExecuted),
					fmt.Sprintf("%d", entry.StagesSkipped),
					fmt.Sprintf("%d", entry.StagesFailed),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Run", "Project", "Status", "Started", "Executed", "Skipped", "Failed"},
				rows, 5, 6, 7))
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only show runs for this project id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit entries as JSON")
	return cmd
}

func formatIndexTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
