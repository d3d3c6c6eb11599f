package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/pipeline"
	"reelpipe/internal/project"
	"reelpipe/internal/runindex"
	"reelpipe/internal/stages"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		projectPath string
		runIDFlag   string
		force       bool
		fromStage   int
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectPath) == "" {
				return errors.New("--project is required")
			}

			cfg, err := project.Load(projectPath)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			engine, err := pipeline.New(store, stages.All(), logger)
			if err != nil {
				return err
			}

			summary, runErr := engine.Run(cmd.Context(), cfg, pipeline.RunOptions{
				RunID:     strings.TrimSpace(runIDFlag),
				Force:     force,
				FromStage: fromStage,
			})

			if appCfg, cfgErr := ctx.ensureConfig(); cfgErr == nil && appCfg.RunIndex.Enabled && summary.RunID != "" {
				if err := recordRun(cmd, appCfg.RunIndex.Path, summary); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: run index not updated: %v\n", err)
				}
			}

			if summary.RunID != "" {
				if jsonOut {
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
				} else {
					printRunSummary(cmd, summary)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Path to the project configuration JSON")
	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Override the config-derived run identity")
	cmd.Flags().BoolVar(&force, "force", false, "Re-execute every stage, ignoring cached artifacts")
	cmd.Flags().IntVar(&fromStage, "from-stage", 0, "Force execution from this stage number (1-5) onward")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func recordRun(cmd *cobra.Command, dbPath string, summary pipeline.Summary) error {
	index, err := runindex.Open(dbPath)
	if err != nil {
		return err
	}
	defer index.Close()
	return index.Record(cmd.Context(), summary)
}

func printRunSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", shortID(summary.RunID), summary.ProjectID)

	rows := make([][]string, 0, len(summary.Stages))
	for _, stage := range summary.Stages {
		hash := ""
		if stage.ArtifactHash != "" {
			hash = shortID(stage.ArtifactHash)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", stage.Stage),
			stage.Name,
			string(stage.Status),
			stage.Decision,
			fmt.Sprintf("%.2fs", stage.DurationSec),
			hash,
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"#", "Stage", "Status", "Decision", "Duration", "Artifact"}, rows, 1, 5))

	if summary.Succeeded() {
		fmt.Fprintln(out, "Status: completed")
	} else {
		fmt.Fprintln(out, "Status: failed")
		for _, message := range summary.Errors {
			fmt.Fprintf(out, "  %s\n", message)
		}
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
