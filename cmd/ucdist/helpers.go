// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"ucdist/internal/issue"
	"ucdist/internal/recipe"
)

// loadRecipe resolves and loads the distfile: an explicit --file path when
// given, otherwise distfile.cue discovered in the current directory.
func loadRecipe(explicitPath string) (*recipe.Distfile, error) {
	path := explicitPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path, err = recipe.Find(cwd)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("locate recipe").
				WithResource(cwd).
				WithSuggestion("Run 'ucdist init' to create a distfile.cue").
				WithSuggestion("Or pass --file with an explicit recipe path").
				Wrap(err).
				BuildError()
		}
	}
	return recipe.Load(path)
}

// archivePath resolves where the distribution archive lives: an explicit
// value (flag or argument) wins, then the recipe's output path. When the
// recipe does not pin an output and the config sets output_dir, the default
// archive name is placed there.
func archivePath(explicit string, df *recipe.Distfile) string {
	if explicit != "" {
		return explicit
	}
	if df.Output == "" && cfg.OutputDir != "" {
		return filepath.Join(cfg.OutputDir, filepath.Base(df.OutputPath()))
	}
	return df.OutputPath()
}

// formatFileSize renders a byte count in human-friendly units.
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
