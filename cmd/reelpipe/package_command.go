package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpipe/internal/bundle"
)

func newPackageCommand(ctx *commandContext) *cobra.Command {
	var (
		projectPath string
		runIDFlag   string
		episodeID   string
		outDir      string
		mode        string
		verifyAfter bool
	)

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Assemble a completed run into a portable episode bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(episodeID) == "" {
				return errors.New("--episode is required")
			}
			if strings.TrimSpace(outDir) == "" {
				return errors.New("--out is required")
			}

			run, err := resolveRun(ctx, projectPath, runIDFlag)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			packager := bundle.NewPackager(logger)
			bundleRoot, err := packager.Package(run, bundle.Options{
				EpisodeID: episodeID,
				OutDir:    outDir,
				Mode:      bundle.Mode(mode),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bundle written to %s\n", bundleRoot)

			if verifyAfter {
				problems, err := bundle.Verify(bundleRoot)
				if err != nil {
					for _, problem := range problems {
						fmt.Fprintf(out, "  %s\n", problem)
					}
					return err
				}
				fmt.Fprintln(out, "Bundle verified")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Path to the project configuration JSON")
	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Run identity (defaults to the config-derived id)")
	cmd.Flags().StringVarP(&episodeID, "episode", "e", "", "Episode identifier used as the bundle directory name")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Parent directory to create the bundle under")
	cmd.Flags().StringVar(&mode, "mode", string(bundle.ModeCopy), "Transfer mode: copy or hardlink")
	cmd.Flags().BoolVar(&verifyAfter, "verify", false, "Verify the bundle after packaging")
	return cmd
}
