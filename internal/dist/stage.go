// SPDX-License-Identifier: MPL-2.0

// Package dist stages, shims, and assembles workspace-importable
// distributions of the migration toolkit.
//
// A build walks four steps over a temporary staging root:
//
//  1. Stage: copy the toolkit package subtree into the distribution layout.
//  2. Rename: the caller runs the rename pass over the staged tree.
//  3. Shims: generate the convenience package, installer, README, and
//     requirements list.
//  4. Assemble: pack the staging root into a deterministic ZIP.
package dist

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ucdist/internal/issue"
	"ucdist/internal/recipe"

	"github.com/charmbracelet/log"
)

// stageSkipDirs are directory names never copied into the staging tree.
var stageSkipDirs = map[string]bool{
	"__pycache__":        true,
	"tests":              true,
	".git":               true,
	".pytest_cache":      true,
	".mypy_cache":        true,
	"htmlcov":            true,
	".egg-info":          true,
	"build":              true,
	"dist":               true,
	".ruff_cache":        true,
	".ipynb_checkpoints": true,
}

// Stage copies the toolkit package subtree into a fresh staging root laid out
// for the distribution, returning the staging root path. Test files, caches,
// and recipe excludes are skipped; package __init__.py parents along the
// import path are created so the tree imports cleanly.
//
// The toolkit checkout is expected to keep its package under
// src/<upstream import path as directories>, which is how the upstream
// project is laid out.
func Stage(df *recipe.Distfile) (string, error) {
	srcPkg := filepath.Join(df.SourceDir(), "src", filepath.FromSlash(importToPath(df.Product.UpstreamImport)))
	if info, err := os.Stat(srcPkg); err != nil || !info.IsDir() {
		return "", issue.NewErrorContext().
			WithOperation("stage toolkit source").
			WithResource(srcPkg).
			WithSuggestion("Check the 'source' path in distfile.cue").
			WithSuggestion("Run 'ucdist fetch' to download a toolkit release").
			Wrap(fmt.Errorf("toolkit package directory not found")).
			BuildError()
	}

	stagingRoot, err := os.MkdirTemp("", "ucdist-stage-*")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	destPkg := filepath.Join(stagingRoot, filepath.FromSlash(importToPath(df.Product.DistImport)))
	if err := copyTree(srcPkg, destPkg, df.Excludes); err != nil {
		_ = os.RemoveAll(stagingRoot)
		return "", issue.NewErrorContext().
			WithOperation("stage toolkit source").
			WithResource(srcPkg).
			Wrap(err).
			BuildError()
	}

	if err := writeParentInits(stagingRoot, df.Product.DistImport); err != nil {
		_ = os.RemoveAll(stagingRoot)
		return "", err
	}

	log.Debug("staged toolkit source", "from", srcPkg, "to", destPkg)
	return stagingRoot, nil
}

// writeParentInits creates empty package markers for every parent of the
// distribution import path (e.g. databricks/__init__.py and
// databricks/labs/__init__.py). Existing files are left alone.
func writeParentInits(stagingRoot, distImport string) error {
	parts := strings.Split(distImport, ".")
	for i := 1; i < len(parts); i++ {
		initPath := filepath.Join(stagingRoot, filepath.Join(parts[:i]...), "__init__.py")
		if _, err := os.Stat(initPath); err == nil {
			continue
		}
		if err := os.WriteFile(initPath, []byte(""), 0o644); err != nil {
			return fmt.Errorf("failed to create package marker %s: %w", initPath, err)
		}
	}
	return nil
}

func copyTree(src, dest string, excludes []string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if rel != "." && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if excluded(rel, excludes) {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dest, rel), 0o755)
		}

		if skipFile(d.Name()) || excluded(rel, excludes) {
			return nil
		}

		return copyFile(path, filepath.Join(dest, rel))
	})
}

func skipDir(name string) bool {
	if stageSkipDirs[name] {
		return true
	}
	return strings.HasSuffix(name, ".egg-info")
}

func skipFile(name string) bool {
	if strings.HasSuffix(name, "_test.py") || strings.HasPrefix(name, "test_") {
		return true
	}
	switch filepath.Ext(name) {
	case ".pyc", ".pyo":
		return true
	}
	return false
}

// excluded reports whether rel matches any recipe exclude glob. Patterns
// ending in "/**" match the directory and everything below it.
func excluded(rel string, excludes []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		if strings.HasSuffix(pattern, "/**") {
			prefix := strings.TrimSuffix(pattern, "/**")
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if ok, err := filepath.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func copyFile(src, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// importToPath converts a dotted import path to a slash path.
func importToPath(importPath string) string {
	return strings.ReplaceAll(importPath, ".", "/")
}
