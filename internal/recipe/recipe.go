// SPDX-License-Identifier: MPL-2.0

// Package recipe loads and validates distribution recipes (distfile.cue).
//
// A recipe describes one distribution build: which toolkit source tree to
// repackage, what the upstream and distributed namespaces are, which files to
// exclude, which Python dependencies the installer must provide, and what the
// assembled archive is expected to look like.
package recipe

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ucdist/internal/issue"
	"ucdist/pkg/cueval"
)

// DefaultName is the recipe filename looked up in the working directory.
const DefaultName = "distfile.cue"

//go:embed distfile_schema.cue
var distfileSchema []byte

type (
	// Distfile is a decoded distribution recipe.
	Distfile struct {
		Product      Product          `json:"product"`
		Source       string           `json:"source"`
		Output       string           `json:"output"`
		Excludes     []string         `json:"excludes"`
		ExtraRules   []Rule           `json:"extra_rules"`
		Dependencies []PipRequirement `json:"dependencies"`
		Hooks        Hooks            `json:"hooks"`
		Expect       Expect           `json:"expect"`

		// FilePath is the absolute path the recipe was loaded from.
		// Empty for recipes built in code.
		FilePath string `json:"-"`
	}

	// Product identifies the upstream and distributed package namespaces.
	Product struct {
		UpstreamName   string `json:"upstream_name"`
		DistName       string `json:"dist_name"`
		UpstreamImport string `json:"upstream_import"`
		DistImport     string `json:"dist_import"`
	}

	// Rule is a single literal substitution applied during the rename pass.
	Rule struct {
		Old string `json:"old"`
		New string `json:"new"`
	}

	// PipRequirement is a Python dependency the installer must provide.
	PipRequirement struct {
		Name       string `json:"name"`
		Constraint string `json:"constraint"`
	}

	// Hooks are optional shell scripts run at fixed points of the build.
	Hooks struct {
		PostStage string `json:"post_stage"`
		PostBuild string `json:"post_build"`
	}

	// Expect holds structural expectations checked by 'ucdist verify'.
	Expect struct {
		MinFiles int `json:"min_files"`
	}
)

// Load reads and validates a recipe file.
func Load(path string) (*Distfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load distfile").
			WithResource(path).
			WithSuggestion("Run 'ucdist init' to create a starter distfile.cue").
			Wrap(err).
			BuildError()
	}

	result, err := cueval.ParseAndDecode[Distfile](
		distfileSchema,
		data,
		"#Distfile",
		cueval.WithFilename(path),
	)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load distfile").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("See 'ucdist init --help' for a starter recipe").
			Wrap(err).
			BuildError()
	}

	df := result.Value
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve distfile path: %w", err)
	}
	df.FilePath = abs

	if err := df.Validate(); err != nil {
		return nil, err
	}
	return df, nil
}

// Find locates a distfile in dir, returning its path or an error.
func Find(dir string) (string, error) {
	path := filepath.Join(dir, DefaultName)
	if _, err := os.Stat(path); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("locate distfile").
			WithResource(dir).
			WithSuggestion("Run 'ucdist init' to create one").
			WithSuggestion("Or pass an explicit path with --file").
			Wrap(fmt.Errorf("no %s found", DefaultName)).
			BuildError()
	}
	return path, nil
}

// Validate checks constraints the CUE schema cannot express.
func (d *Distfile) Validate() error {
	p := d.Product
	if p.UpstreamName == p.DistName {
		return &ValidationError{Field: "product.dist_name",
			Problem: "distribution name must differ from the upstream name"}
	}
	if p.UpstreamImport == p.DistImport {
		return &ValidationError{Field: "product.dist_import",
			Problem: "distribution import path must differ from the upstream import path"}
	}
	if !strings.HasSuffix(p.UpstreamImport, "."+p.UpstreamName) && p.UpstreamImport != p.UpstreamName {
		return &ValidationError{Field: "product.upstream_import",
			Problem: fmt.Sprintf("import path must end with package name %q", p.UpstreamName)}
	}
	if !strings.HasSuffix(p.DistImport, "."+p.DistName) && p.DistImport != p.DistName {
		return &ValidationError{Field: "product.dist_import",
			Problem: fmt.Sprintf("import path must end with package name %q", p.DistName)}
	}
	for i, r := range d.ExtraRules {
		if strings.TrimSpace(r.Old) == "" {
			return &ValidationError{Field: fmt.Sprintf("extra_rules[%d].old", i),
				Problem: "substitution source must not be blank"}
		}
	}
	return nil
}

// SourceDir resolves the recipe source path relative to the distfile location.
func (d *Distfile) SourceDir() string {
	if filepath.IsAbs(d.Source) || d.FilePath == "" {
		return d.Source
	}
	return filepath.Join(filepath.Dir(d.FilePath), d.Source)
}

// OutputPath resolves the archive output path, applying the default name.
func (d *Distfile) OutputPath() string {
	out := d.Output
	if out == "" {
		out = d.Product.DistName + "_dist.zip"
	}
	if filepath.IsAbs(out) || d.FilePath == "" {
		return out
	}
	return filepath.Join(filepath.Dir(d.FilePath), out)
}

// ValidationError reports a recipe constraint violation found after decoding.
type ValidationError struct {
	Field   string
	Problem string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid distfile: %s: %s", e.Field, e.Problem)
}
