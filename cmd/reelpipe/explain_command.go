package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/artifact"
	"reelpipe/internal/pipeline"
	"reelpipe/internal/project"
	"reelpipe/internal/registry"
)

func newExplainCommand(ctx *commandContext) *cobra.Command {
	var (
		projectPath string
		runIDFlag   string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show provenance for every artifact of a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := resolveRun(ctx, projectPath, runIDFlag)
			if err != nil {
				return err
			}

			type artifactView struct {
				Type          artifact.Type        `json:"type"`
				Present       bool                 `json:"present"`
				Hash          string               `json:"hash,omitempty"`
				SchemaVersion string               `json:"schema_version,omitempty"`
				ComputeOrigin string               `json:"compute_origin,omitempty"`
				CreatedAt     string               `json:"created_at,omitempty"`
				Parents       []artifact.ParentRef `json:"parents,omitempty"`
				Problem       string               `json:"problem,omitempty"`
			}

			views := make([]artifactView, 0, len(artifact.Types()))
			for _, t := range artifact.Types() {
				view := artifactView{Type: t}
				_, meta, err := run.Read(t)
				switch {
				case err == nil:
					view.Present = true
					view.Hash = meta.Hash
					view.SchemaVersion = meta.SchemaVersion
					view.ComputeOrigin = meta.ComputeOrigin
					view.CreatedAt = meta.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
					view.Parents = meta.Parents
				case errors.Is(err, registry.ErrNotFound):
				default:
					view.Present = true
					view.Problem = err.Error()
				}
				views = append(views, view)
			}

			if jsonOut {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run directory: %s\n", run.Dir())
			for _, view := range views {
				fmt.Fprintf(out, "\n%s\n", view.Type)
				if !view.Present {
					fmt.Fprintln(out, "  absent")
					continue
				}
				if view.Problem != "" {
					fmt.Fprintf(out, "  PROBLEM: %s\n", view.Problem)
					continue
				}
				fmt.Fprintf(out, "  hash:           %s\n", view.Hash)
				fmt.Fprintf(out, "  schema_version: %s\n", view.SchemaVersion)
				fmt.Fprintf(out, "  compute_origin: %s\n", view.ComputeOrigin)
				fmt.Fprintf(out, "  created_at:     %s\n", view.CreatedAt)
				if len(view.Parents) == 0 {
					fmt.Fprintln(out, "  parents:        none")
				} else {
					fmt.Fprintln(out, "  parents:")
					for _, parent := range view.Parents {
						fmt.Fprintf(out, "    %-14s %s\n", parent.Type, shortID(parent.Hash))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Path to the project configuration JSON")
	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Run identity (defaults to the config-derived id)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit provenance as JSON")
	return cmd
}

// resolveRun locates the registry namespace from a project config and
// an optional run-id override.
func resolveRun(ctx *commandContext, projectPath, runIDFlag string) (*registry.Run, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, errors.New("--project is required")
	}
	cfg, err := project.Load(projectPath)
	if err != nil {
		return nil, err
	}
	runID := strings.TrimSpace(runIDFlag)
	if runID == "" {
		runID, err = pipeline.ComputeRunID(cfg)
		if err != nil {
			return nil, err
		}
	}
	store, err := ctx.openStore()
	if err != nil {
		return nil, err
	}
	return store.Run(cfg.ID, runID), nil
}
