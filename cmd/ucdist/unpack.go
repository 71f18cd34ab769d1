// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"ucdist/internal/dist"

	"github.com/spf13/cobra"
)

var (
	unpackPath      string
	unpackFolder    string
	unpackOverwrite bool

	unpackCmd = &cobra.Command{
		Use:   "unpack <archive>",
		Short: "Extract a distribution archive",
		Long: `Extract a distribution archive into a folder named after the
archive. The source can be a local ZIP path or an http(s) URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extracted, err := dist.Unpack(dist.UnpackOptions{
				Source:     args[0],
				DestDir:    unpackPath,
				FolderName: unpackFolder,
				Overwrite:  unpackOverwrite,
			})
			if err != nil {
				return err
			}

			cmd.Println(SuccessStyle.Render("Unpacked to ") + CmdStyle.Render(extracted))
			return nil
		},
	}
)

func init() {
	unpackCmd.Flags().StringVar(&unpackPath, "path", "", "destination directory (default: current directory)")
	unpackCmd.Flags().StringVar(&unpackFolder, "folder", "", "folder name (default: archive name without .zip)")
	unpackCmd.Flags().BoolVar(&unpackOverwrite, "overwrite", false, "replace an existing folder")
}
