// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"ucdist/internal/config"

	"github.com/spf13/cobra"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the ucdist configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}

			cmd.Println(TitleStyle.Render("Configuration"))
			cmd.Println(SubtitleStyle.Render("  file: " + path))
			cmd.Printf("  python:       %s\n", orDefault(cfg.Python, "(auto-detect)"))
			cmd.Printf("  output_dir:   %s\n", orDefault(cfg.OutputDir, "(recipe directory)"))
			cmd.Printf("  github.owner: %s\n", cfg.GitHub.Owner)
			cmd.Printf("  github.repo:  %s\n", cfg.GitHub.Repo)
			cmd.Printf("  ui.verbose:   %v\n", cfg.UI.Verbose)
			return nil
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
