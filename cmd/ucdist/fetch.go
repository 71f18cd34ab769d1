// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"ucdist/internal/fetch"

	"github.com/spf13/cobra"
)

var (
	fetchFile      string
	fetchVersion   string
	fetchDest      string
	fetchOverwrite bool

	fetchCmd = &cobra.Command{
		Use:   "fetch [version]",
		Short: "Download an upstream toolkit source release",
		Long: `Download an upstream toolkit source release from GitHub and
extract it into the recipe's source directory.

Without a version, the latest stable release is used. The repository is
taken from the configuration (github.owner / github.repo). When the
release publishes a checksums.txt covering the archive, the download is
verified against it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := fetchVersion
			if len(args) == 1 {
				version = args[0]
			}

			dest := fetchDest
			if dest == "" {
				df, err := loadRecipe(fetchFile)
				if err != nil {
					return err
				}
				dest = df.SourceDir()
			}

			client := fetch.NewClient(cfg.GitHub.Owner, cfg.GitHub.Repo,
				fetch.WithToken(os.Getenv("GITHUB_TOKEN")))

			result, err := fetch.Source(cmd.Context(), client, fetch.SourceOptions{
				Version:   version,
				DestDir:   dest,
				Overwrite: fetchOverwrite,
			})
			if err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}

			cmd.Println(SuccessStyle.Render("Fetched ") +
				CmdStyle.Render(fmt.Sprintf("%s/%s %s", cfg.GitHub.Owner, cfg.GitHub.Repo, result.Release.TagName)))
			cmd.Println("  extracted to " + CmdStyle.Render(result.SourceDir))
			if result.Verified {
				cmd.Println(SuccessStyle.Render("  checksum verified"))
			}
			return nil
		},
	}
)

func init() {
	fetchCmd.Flags().StringVarP(&fetchFile, "file", "f", "", "recipe file (default: ./distfile.cue)")
	fetchCmd.Flags().StringVar(&fetchVersion, "version", "", "release tag (default: latest stable release)")
	fetchCmd.Flags().StringVar(&fetchDest, "dest", "", "destination directory (default: recipe source directory)")
	fetchCmd.Flags().BoolVar(&fetchOverwrite, "overwrite", false, "replace an existing checkout")
}
