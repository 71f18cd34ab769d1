// SPDX-License-Identifier: MPL-2.0

// Package rename implements the namespace rewrite pass.
//
// The pass is a bulk literal substitution over a staged toolkit tree: every
// occurrence of the upstream namespace (import statements, dotted references,
// quoted product names) becomes the distribution namespace. Rules are applied
// in order, file by file; only changed files are rewritten.
package rename

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ucdist/internal/recipe"

	"github.com/charmbracelet/log"
)

// textExtensions lists file types the pass will rewrite. Everything else
// (wheels, images, compiled artifacts) passes through untouched.
var textExtensions = map[string]bool{
	".py":   true,
	".sql":  true,
	".md":   true,
	".txt":  true,
	".yml":  true,
	".yaml": true,
	".json": true,
	".cfg":  true,
	".toml": true,
}

type (
	// Options configures an Apply run.
	Options struct {
		// DryRun collects per-file diff inputs instead of writing changes.
		DryRun bool
	}

	// Report summarizes an Apply run.
	Report struct {
		// Scanned is the number of candidate text files visited.
		Scanned int
		// Rewritten is the number of files that changed.
		Rewritten int
		// Changes records each changed file, sorted by path.
		Changes []FileChange
		// Warnings lists files that could not be processed.
		Warnings []string
	}

	// FileChange describes the rewrite applied to one file.
	FileChange struct {
		// Path is relative to the tree root, slash-separated.
		Path string
		// Replacements is the total number of substitutions made.
		Replacements int
		// Before and After hold the file contents around the rewrite.
		// Populated only in dry-run mode, for diff rendering.
		Before string
		After  string
	}
)

// Rules derives the ordered substitution rules for a product, followed by the
// recipe's extra rules. Import-statement forms come first so that the plain
// dotted-reference rule does not shadow them in the replacement counts.
func Rules(p recipe.Product, extra []recipe.Rule) []recipe.Rule {
	rules := []recipe.Rule{
		{Old: "from " + p.UpstreamImport, New: "from " + p.DistImport},
		{Old: "import " + p.UpstreamImport, New: "import " + p.DistImport},
		{Old: p.UpstreamImport + ".", New: p.DistImport + "."},
		{Old: `"` + p.UpstreamName + `"`, New: `"` + p.DistName + `"`},
		{Old: `'` + p.UpstreamName + `'`, New: `'` + p.DistName + `'`},
	}
	return append(rules, extra...)
}

// Apply runs the rewrite pass over every text file under root.
// Unreadable files produce warnings rather than aborting the pass, matching
// the tolerance needed for vendored trees with odd permissions.
func Apply(root string, rules []recipe.Rule, opts Options) (*Report, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no substitution rules provided")
	}

	report := &Report{}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		report.Scanned++

		data, err := os.ReadFile(path)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", path, err))
			return nil
		}

		before := string(data)
		after, count := applyRules(before, rules)
		if count == 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		change := FileChange{
			Path:         filepath.ToSlash(rel),
			Replacements: count,
		}

		if opts.DryRun {
			change.Before = before
			change.After = after
		} else {
			info, err := d.Info()
			mode := fs.FileMode(0o644)
			if err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(path, []byte(after), mode); err != nil {
				return fmt.Errorf("failed to rewrite %s: %w", path, err)
			}
			log.Debug("rewrote file", "path", change.Path, "replacements", count)
		}

		report.Rewritten++
		report.Changes = append(report.Changes, change)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("rename pass failed: %w", walkErr)
	}

	sort.Slice(report.Changes, func(i, j int) bool {
		return report.Changes[i].Path < report.Changes[j].Path
	})

	return report, nil
}

// Verify re-scans the tree and returns the relative paths of files that
// still mention any of the given rules' Old strings. An empty result means
// the rewrite invariant holds: no occurrence of the old namespace remains.
func Verify(root string, rules []recipe.Rule) ([]string, error) {
	var stale []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(data)
		for _, r := range rules {
			if strings.Contains(content, r.Old) {
				rel, relErr := filepath.Rel(root, path)
				if relErr != nil {
					rel = path
				}
				stale = append(stale, filepath.ToSlash(rel))
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("verify pass failed: %w", err)
	}

	sort.Strings(stale)
	return stale, nil
}

func applyRules(content string, rules []recipe.Rule) (string, int) {
	total := 0
	for _, r := range rules {
		if n := strings.Count(content, r.Old); n > 0 {
			content = strings.ReplaceAll(content, r.Old, r.New)
			total += n
		}
	}
	return content, total
}
