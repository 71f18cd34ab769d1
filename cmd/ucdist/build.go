// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"ucdist/internal/dist"
	"ucdist/internal/rename"

	"github.com/spf13/cobra"
)

var (
	buildFile   string
	buildOutput string
	buildDryRun bool

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Assemble a distribution archive from the upstream source",
		Long: `Assemble a distribution archive from the upstream source.

The build stages the upstream package tree, rewrites every reference to
the upstream namespace, generates the shim package and installer script,
runs the recipe's hooks, and writes a deterministic ZIP.

With --dry-run, the rename pass is computed and shown as unified diffs
but nothing is written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			df, err := loadRecipe(buildFile)
			if err != nil {
				return err
			}

			result, err := dist.Build(cmd.Context(), df, dist.BuildOptions{
				Output: archivePath(buildOutput, df),
				DryRun: buildDryRun,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}

			if buildDryRun {
				printDryRun(cmd, result.Rename)
				return nil
			}

			printBuildSummary(cmd, result)
			return nil
		},
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildFile, "file", "f", "", "recipe file (default: ./distfile.cue)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output archive path (default: from recipe, placed in the configured output_dir)")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "show the rename pass as diffs without writing anything")
}

func printDryRun(cmd *cobra.Command, report *rename.Report) {
	cmd.Println(TitleStyle.Render("Dry run") + SubtitleStyle.Render(
		fmt.Sprintf(" - %d of %d staged files would change", len(report.Changes), report.Scanned)))

	for _, change := range report.Changes {
		cmd.Println()
		cmd.Println(CmdStyle.Render(change.Path) + SubtitleStyle.Render(
			fmt.Sprintf(" (%d replacements)", change.Replacements)))
		cmd.Println(rename.UnifiedDiff(change))
	}

	for _, warning := range report.Warnings {
		cmd.Println(WarningStyle.Render("Warning: ") + warning)
	}
}

func printBuildSummary(cmd *cobra.Command, result *dist.BuildResult) {
	m := result.Manifest
	cmd.Println(SuccessStyle.Render("Built ") + CmdStyle.Render(m.Path))
	cmd.Printf("  %d files, %s\n", m.FileCount(), formatFileSize(m.TotalBytes))
	cmd.Printf("  %d files rewritten (%d scanned)\n", len(result.Rename.Changes), result.Rename.Scanned)

	for _, warning := range result.Rename.Warnings {
		cmd.Println(WarningStyle.Render("Warning: ") + warning)
	}
}
