// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ucdist/internal/config"
	"ucdist/internal/issue"
	"ucdist/internal/recipe"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-03-01T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-03-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got := getVersionString(); got != "dev (built from source)" {
			t.Errorf("getVersionString() = %q", got)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error: got %q", got)
	}

	actionable := issue.NewErrorContext().
		WithOperation("stage upstream source").
		WithSuggestion("Run 'ucdist fetch' first").
		Wrap(errors.New("missing")).
		BuildError()

	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "stage upstream source") {
		t.Errorf("missing operation in %q", got)
	}
	if !strings.Contains(got, "Run 'ucdist fetch' first") {
		t.Errorf("missing suggestion in %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
		{1536, "1.5 KB"},
	}
	for _, tt := range tests {
		if got := formatFileSize(tt.size); got != tt.want {
			t.Errorf("formatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}

func TestLoadRecipe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, recipe.DefaultName)
	if err := os.WriteFile(path, []byte(recipe.Scaffold("default")), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("explicit path", func(t *testing.T) {
		df, err := loadRecipe(path)
		if err != nil {
			t.Fatalf("loadRecipe: %v", err)
		}
		if df.Product.DistName == "" {
			t.Error("recipe not decoded")
		}
	})

	t.Run("missing recipe is actionable", func(t *testing.T) {
		empty := t.TempDir()
		t.Chdir(empty)

		_, err := loadRecipe("")
		if err == nil {
			t.Fatal("expected error")
		}
		var ae *issue.ActionableError
		if !errors.As(err, &ae) || !ae.HasSuggestions() {
			t.Errorf("want actionable error with suggestions, got %v", err)
		}
	})
}

func TestArchivePath(t *testing.T) {
	// Not parallel: subtests mutate the package-level cfg.
	origCfg := cfg
	t.Cleanup(func() { cfg = origCfg })

	df := &recipe.Distfile{
		Product:  recipe.Product{DistName: "migrator"},
		FilePath: filepath.Join(string(filepath.Separator), "work", "distfile.cue"),
	}

	t.Run("explicit path wins", func(t *testing.T) {
		cfg = config.DefaultConfig()
		cfg.OutputDir = filepath.Join(string(filepath.Separator), "builds")

		if got := archivePath("custom.zip", df); got != "custom.zip" {
			t.Errorf("archivePath = %q", got)
		}
	})

	t.Run("recipe output beats output_dir", func(t *testing.T) {
		cfg = config.DefaultConfig()
		cfg.OutputDir = filepath.Join(string(filepath.Separator), "builds")
		pinned := *df
		pinned.Output = "pinned.zip"

		want := filepath.Join(string(filepath.Separator), "work", "pinned.zip")
		if got := archivePath("", &pinned); got != want {
			t.Errorf("archivePath = %q, want %q", got, want)
		}
	})

	t.Run("output_dir hosts the default name", func(t *testing.T) {
		cfg = config.DefaultConfig()
		cfg.OutputDir = filepath.Join(string(filepath.Separator), "builds")

		want := filepath.Join(cfg.OutputDir, "migrator_dist.zip")
		if got := archivePath("", df); got != want {
			t.Errorf("archivePath = %q, want %q", got, want)
		}
	})

	t.Run("no output_dir falls back to recipe location", func(t *testing.T) {
		cfg = config.DefaultConfig()

		want := filepath.Join(string(filepath.Separator), "work", "migrator_dist.zip")
		if got := archivePath("", df); got != want {
			t.Errorf("archivePath = %q, want %q", got, want)
		}
	})
}

func TestOrDefault(t *testing.T) {
	if got := orDefault("", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
	if got := orDefault("value", "fallback"); got != "value" {
		t.Errorf("got %q", got)
	}
}
