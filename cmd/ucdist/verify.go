// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"ucdist/internal/verify"

	"github.com/spf13/cobra"
)

var (
	verifyFile string

	verifyCmd = &cobra.Command{
		Use:   "verify [archive]",
		Short: "Validate a distribution archive against its recipe",
		Long: `Validate a distribution archive against its recipe.

Checks that the archive carries the required installer structure, meets
the recipe's minimum file count, contains no entry that still references
the upstream namespace, and has no entry that would escape the
extraction directory.

Without an argument, the recipe's output path is verified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := loadRecipe(verifyFile)
			if err != nil {
				return err
			}

			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			zipPath := archivePath(explicit, df)

			result, err := verify.Archive(zipPath, df)
			if err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}

			if result.Valid {
				cmd.Println(SuccessStyle.Render("OK ") + CmdStyle.Render(zipPath) +
					SubtitleStyle.Render(fmt.Sprintf(" (%d files)", result.FileCount)))
				return nil
			}

			cmd.Println(ErrorStyle.Render("Invalid ") + CmdStyle.Render(zipPath))
			for _, issue := range result.Issues {
				cmd.Println("  " + issue.Error())
			}
			return &ExitError{Code: 1, Err: fmt.Errorf("%d validation issue(s)", len(result.Issues))}
		},
	}
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "recipe file (default: ./distfile.cue)")
}
