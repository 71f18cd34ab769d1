// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"ucdist/internal/issue"
	"ucdist/internal/recipe"

	"github.com/charmbracelet/log"
)

// InstallDependencies installs the recipe's pinned pip packages one at a
// time, so a failure names the package that broke. pip output streams to the
// given writers.
func InstallDependencies(ctx context.Context, py *Python, deps []recipe.PipRequirement, stdout, stderr io.Writer) error {
	for _, dep := range deps {
		spec := dep.Name + dep.Constraint
		log.Debug("installing dependency", "package", spec)

		cmd := exec.CommandContext(ctx, py.Path, "-m", "pip", "install", spec)
		cmd.Stdout = stdout
		cmd.Stderr = stderr

		if err := cmd.Run(); err != nil {
			return issue.NewErrorContext().
				WithOperation("install dependencies").
				WithResource(spec).
				WithSuggestion("Check network access to the package index").
				WithSuggestion(fmt.Sprintf("Try manually: %s -m pip install %q", py.Path, spec)).
				Wrap(err).
				BuildError()
		}
	}
	return nil
}

// CheckPip reports whether the interpreter can run pip as a module.
func CheckPip(ctx context.Context, py *Python) error {
	cmd := exec.CommandContext(ctx, py.Path, "-m", "pip", "--version")
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("check pip availability").
			WithResource(py.Path).
			WithSuggestion("Install pip: " + py.Path + " -m ensurepip --upgrade").
			Wrap(err).
			BuildError()
	}
	return nil
}

// ImportProbe runs a Python one-liner that imports the distribution package
// from the unpacked tree. A passing probe means the archive layout and the
// dependency install are both sound.
func ImportProbe(ctx context.Context, py *Python, distDir, distName string) error {
	probe := fmt.Sprintf(
		"import sys; sys.path.insert(0, %q); import %s; print(%s.__name__)",
		distDir, distName, distName,
	)

	var out strings.Builder
	cmd := exec.CommandContext(ctx, py.Path, "-c", probe)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("import the distribution package").
			WithResource(distDir).
			WithSuggestion("Run 'ucdist install' again to reinstall dependencies").
			WithSuggestion("Verify the distribution was unpacked completely ('ucdist verify')").
			Wrap(fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))).
			BuildError()
	}
	return nil
}

// RunInstaller hands control to the toolkit's own installer script inside
// the unpacked distribution. The script prompts interactively, so stdio is
// wired straight through. extraEnv entries ("KEY=value") are appended to the
// inherited environment.
func RunInstaller(ctx context.Context, py *Python, distDir, installerName string, extraEnv []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, py.Path, installerName)
	cmd.Dir = distDir
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("run the toolkit installer").
			WithResource(installerName).
			WithSuggestion("Ensure you have Workspace Admin privileges").
			WithSuggestion("Verify a PRO or Serverless SQL Warehouse is available").
			WithSuggestion("Check the installer output above for the specific failure").
			Wrap(err).
			BuildError()
	}
	return nil
}
