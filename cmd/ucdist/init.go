// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"ucdist/internal/recipe"

	"github.com/spf13/cobra"
)

var (
	initTemplate string
	initForce    bool

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a distfile.cue recipe in the current directory",
		Long: `Create a distfile.cue recipe in the current directory.

The default template carries the full upstream-to-distribution mapping,
including the pinned pip dependencies and the extra rewrite rules the
toolkit source needs. The minimal template contains only the product
mapping.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if initTemplate != "default" && initTemplate != "minimal" {
				return fmt.Errorf("unknown template %q (expected 'default' or 'minimal')", initTemplate)
			}

			if _, err := os.Stat(recipe.DefaultName); err == nil && !initForce {
				return fmt.Errorf("%s already exists (use --force to replace)", recipe.DefaultName)
			}

			content := recipe.Scaffold(initTemplate)
			if err := os.WriteFile(recipe.DefaultName, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", recipe.DefaultName, err)
			}

			cmd.Println(SuccessStyle.Render("Created ") + CmdStyle.Render(recipe.DefaultName))
			cmd.Println(SubtitleStyle.Render("Next: 'ucdist fetch' to download the upstream source, then 'ucdist build'."))
			return nil
		},
	}
)

func init() {
	initCmd.Flags().StringVar(&initTemplate, "template", "default", "recipe template: 'default' or 'minimal'")
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing distfile.cue")
}
