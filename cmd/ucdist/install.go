// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"ucdist/internal/bootstrap"
	"ucdist/internal/dist"
	"ucdist/internal/tui"
	"ucdist/internal/verify"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	installFile      string
	installPath      string
	installPython    string
	installYes       bool
	installOverwrite bool
	installNoVerify  bool

	installCmd = &cobra.Command{
		Use:   "install [archive]",
		Short: "Unpack a distribution and run its bundled installer",
		Long: `Unpack a distribution and run its bundled installer.

The flow mirrors what the bundled instructions describe, with the manual
steps automated: the archive is validated and extracted, a suitable
Python interpreter is located, the pinned pip dependencies are
installed, the distribution package is import-tested, and finally the
toolkit's own interactive installer is started.

Without an argument, the recipe's output archive is installed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := loadRecipe(installFile)
			if err != nil {
				return err
			}

			var explicit string
			if len(args) == 1 {
				explicit = args[0]
			}
			zipPath := archivePath(explicit, df)

			if !installNoVerify {
				result, verr := verify.Archive(zipPath, df)
				if verr != nil {
					return fmt.Errorf("%s", formatErrorForDisplay(verr, verbose))
				}
				if !result.Valid {
					cmd.Println(ErrorStyle.Render("Archive failed validation:"))
					for _, issue := range result.Issues {
						cmd.Println("  " + issue.Error())
					}
					return &ExitError{Code: 1, Err: fmt.Errorf("refusing to install an invalid archive")}
				}
			}

			var ui tui.UI = tui.NewHuhUI()
			if installYes {
				ui = &tui.ScriptedUI{ConfirmAnswer: true}
			}

			extracted, err := dist.Unpack(dist.UnpackOptions{
				Source:    zipPath,
				DestDir:   installPath,
				Overwrite: installOverwrite,
			})
			if err != nil {
				return err
			}
			cmd.Println(SuccessStyle.Render("Unpacked to ") + CmdStyle.Render(extracted))

			pythonOverride := installPython
			if pythonOverride == "" {
				pythonOverride = cfg.Python
			}
			py, err := bootstrap.FindPython(cmd.Context(), pythonOverride)
			if err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}
			cmd.Println(SubtitleStyle.Render(fmt.Sprintf("Using %s (Python %s)", py.Path, py.Version[1:])))

			if len(df.Dependencies) > 0 {
				proceed := true
				prompt := fmt.Sprintf("Install %d pip package(s) with %s?", len(df.Dependencies), py.Path)
				if err := ui.Confirm(prompt, "The toolkit needs its pinned dependencies.", &proceed); err != nil {
					return installCancel(err)
				}
				if !proceed {
					return installCancel(tui.ErrCancelled)
				}
				if err := bootstrap.InstallDependencies(cmd.Context(), py, df.Dependencies,
					cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
					return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
				}
			}

			if err := bootstrap.ImportProbe(cmd.Context(), py, extracted, df.Product.DistName); err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}
			cmd.Println(SuccessStyle.Render("Import check passed"))

			// The toolkit installer prompts for the warehouse and inventory
			// database itself; only the connection profile is gathered here,
			// since the SDK reads it from the environment.
			var profile string
			if err := ui.Input("Databricks config profile (optional)", "DEFAULT", &profile); err != nil {
				return installCancel(err)
			}
			var extraEnv []string
			if profile != "" {
				extraEnv = append(extraEnv, "DATABRICKS_CONFIG_PROFILE="+profile)
			}

			runNow := true
			if err := ui.Confirm("Run the toolkit installer now?",
				"The installer prompts for workspace details interactively.", &runNow); err != nil {
				return installCancel(err)
			}
			if !runNow {
				return printNextSteps(cmd, extracted, py.Path, dist.InstallerName(df))
			}

			if err := bootstrap.RunInstaller(cmd.Context(), py, extracted, dist.InstallerName(df),
				extraEnv, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("%s", formatErrorForDisplay(err, verbose))
			}

			cmd.Println(SuccessStyle.Render("Installation complete"))
			return nil
		},
	}
)

func init() {
	installCmd.Flags().StringVarP(&installFile, "file", "f", "", "recipe file (default: ./distfile.cue)")
	installCmd.Flags().StringVar(&installPath, "path", "", "directory to unpack into (default: current directory)")
	installCmd.Flags().StringVar(&installPython, "python", "", "python interpreter to use (default: from config or PATH)")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "answer yes to all prompts")
	installCmd.Flags().BoolVar(&installOverwrite, "overwrite", false, "replace an existing unpacked distribution")
	installCmd.Flags().BoolVar(&installNoVerify, "no-verify", false, "skip archive validation before unpacking")
}

func installCancel(err error) error {
	if errors.Is(err, tui.ErrCancelled) {
		return &ExitError{Code: 1, Err: errors.New("installation cancelled")}
	}
	return err
}

// printNextSteps renders the manual continuation instructions when the user
// declines to run the installer immediately.
func printNextSteps(cmd *cobra.Command, extracted, python, installer string) error {
	md := fmt.Sprintf(`# Next steps

The distribution is unpacked and its dependencies are installed.
When you are ready, run the installer yourself:

    cd %s
    %s %s

The installer prompts for workspace connection details and creates the
toolkit jobs and dashboards in your workspace.
`, extracted, python, installer)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		cmd.Println(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		cmd.Println(md)
		return nil
	}
	cmd.Print(out)
	return nil
}
