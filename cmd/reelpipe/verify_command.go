package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpipe/internal/artifact"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		projectPath string
		runIDFlag   string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-check every stored artifact of a run",
		Long: "Verify re-evaluates the reuse gate for each artifact: the body and\n" +
			"sidecar must exist, the recomputed canonical hash must match the\n" +
			"sidecar, and the body must pass schema validation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := resolveRun(ctx, projectPath, runIDFlag)
			if err != nil {
				return err
			}

			type check struct {
				Type   artifact.Type `json:"type"`
				OK     bool          `json:"ok"`
				Reason string        `json:"reason"`
				Detail string        `json:"detail,omitempty"`
			}

			checks := make([]check, 0, len(artifact.Types()))
			failures := 0
			for _, t := range artifact.Types() {
				validity, err := run.Validity(t)
				if err != nil {
					return err
				}
				if !validity.OK {
					failures++
				}
				checks = append(checks, check{
					Type:   t,
					OK:     validity.OK,
					Reason: string(validity.Reason),
					Detail: validity.Detail,
				})
			}

			if jsonOut {
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(checks))
				for _, c := range checks {
					status := "ok"
					if !c.OK {
						status = "INVALID"
					}
					rows = append(rows, []string{string(c.Type), status, c.Reason})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Artifact", "Status", "Reason"}, rows))
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d artifacts failed verification", failures, len(checks))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Path to the project configuration JSON")
	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Run identity (defaults to the config-derived id)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}
