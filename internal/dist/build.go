// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"context"
	"fmt"
	"io"
	"os"

	"ucdist/internal/issue"
	"ucdist/internal/recipe"
	"ucdist/internal/rename"
)

type (
	// BuildOptions configures a Build run.
	BuildOptions struct {
		// Output overrides the recipe's output path.
		Output string
		// DryRun stages and computes the rename pass, but writes neither
		// the staged rewrite nor the archive.
		DryRun bool
		// Stdout and Stderr receive hook output.
		Stdout io.Writer
		Stderr io.Writer
	}

	// BuildResult summarizes a completed build.
	BuildResult struct {
		// Manifest describes the assembled archive. Nil in dry-run mode.
		Manifest *Manifest
		// Rename is the rewrite pass report.
		Rename *rename.Report
	}
)

// Build runs the full pipeline: stage, rename, shims, hooks, assemble.
// The staging root is always removed before returning.
func Build(ctx context.Context, df *recipe.Distfile, opts BuildOptions) (*BuildResult, error) {
	if err := ValidateHooks(df.Hooks); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate distfile hooks").
			WithResource(df.FilePath).
			WithSuggestion("Fix the hook script syntax in distfile.cue").
			Wrap(err).
			BuildError()
	}

	stagingRoot, err := Stage(df)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(stagingRoot) }()

	rules := rename.Rules(df.Product, df.ExtraRules)
	report, err := rename.Apply(stagingRoot, rules, rename.Options{DryRun: opts.DryRun})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("run rename pass").
			WithResource(stagingRoot).
			Wrap(err).
			BuildError()
	}

	result := &BuildResult{Rename: report}
	if opts.DryRun {
		return result, nil
	}

	// The import-statement and dotted-reference rules must leave nothing
	// behind; quoted-name and extra rules are allowed to miss (a doc file
	// mentioning the old product name in prose is not an import).
	stale, err := rename.Verify(stagingRoot, rules[:3])
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		return nil, issue.NewErrorContext().
			WithOperation("run rename pass").
			WithResource(stale[0]).
			WithSuggestion("Add an extra_rules entry covering the remaining reference").
			Wrap(fmt.Errorf("%d file(s) still reference the upstream namespace", len(stale))).
			BuildError()
	}

	if err := WriteShims(stagingRoot, df); err != nil {
		return nil, issue.WrapWithOperation(err, "generate distribution shims")
	}

	output := opts.Output
	if output == "" {
		output = df.OutputPath()
	}

	env := HookEnv{StagingRoot: stagingRoot, OutputPath: output}
	if err := RunHook(ctx, "post_stage", df.Hooks.PostStage, env, opts.Stdout, opts.Stderr); err != nil {
		return nil, err
	}

	manifest, err := Assemble(stagingRoot, output)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("assemble archive").
			WithResource(output).
			WithSuggestion("Check that the output directory is writable").
			Wrap(err).
			BuildError()
	}
	result.Manifest = manifest

	if err := RunHook(ctx, "post_build", df.Hooks.PostBuild, env, opts.Stdout, opts.Stderr); err != nil {
		return nil, err
	}

	return result, nil
}
