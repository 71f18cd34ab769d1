// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"ucdist/internal/bootstrap"
	"ucdist/internal/config"
	"ucdist/internal/recipe"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local environment for building and installing",
	Long: `Check the local environment for building and installing.

Reports on the Python interpreter, pip availability, the configuration
file, and the recipe in the current directory. Exits non-zero when a
check that 'ucdist install' depends on fails.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		failed := 0
		pass := func(label, detail string) {
			cmd.Println(SuccessStyle.Render("  ✓ ") + label + SubtitleStyle.Render(" "+detail))
		}
		fail := func(label string, err error) {
			failed++
			cmd.Println(ErrorStyle.Render("  ✗ ") + label)
			cmd.Println("    " + formatErrorForDisplay(err, verbose))
		}
		warn := func(label, detail string) {
			cmd.Println(WarningStyle.Render("  - ") + label + SubtitleStyle.Render(" "+detail))
		}

		cmd.Println(TitleStyle.Render("ucdist doctor"))

		py, err := bootstrap.FindPython(cmd.Context(), cfg.Python)
		if err != nil {
			fail("python interpreter", err)
		} else {
			pass("python interpreter", fmt.Sprintf("%s (Python %s)", py.Path, py.Version[1:]))

			if pipErr := bootstrap.CheckPip(cmd.Context(), py); pipErr != nil {
				fail("pip", pipErr)
			} else {
				pass("pip", "available as "+py.Path+" -m pip")
			}
		}

		cfgPath, err := config.ConfigFilePath()
		switch {
		case err != nil:
			fail("configuration", err)
		case fileExists(cfgPath):
			pass("configuration", cfgPath)
		default:
			warn("configuration", "no config file (defaults in use: "+cfgPath+")")
		}

		cwd, _ := os.Getwd() //nolint:errcheck // Doctor output degrades gracefully.
		recipePath, err := recipe.Find(cwd)
		if err != nil {
			warn("recipe", "no distfile.cue in the current directory ('ucdist init' creates one)")
		} else if df, loadErr := recipe.Load(recipePath); loadErr != nil {
			fail("recipe", loadErr)
		} else {
			pass("recipe", recipePath)

			if _, statErr := os.Stat(df.SourceDir()); statErr != nil {
				warn("upstream source", df.SourceDir()+" missing ('ucdist fetch' downloads it)")
			} else {
				pass("upstream source", df.SourceDir())
			}
		}

		if failed > 0 {
			return &ExitError{Code: 1, Err: fmt.Errorf("%d check(s) failed", failed)}
		}
		return nil
	},
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
