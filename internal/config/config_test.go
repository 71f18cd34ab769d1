// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetOverrides(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configFilePathOverride = ""
		configDirOverride = ""
	})
}

func TestLoad_Defaults(t *testing.T) {
	resetOverrides(t)
	SetConfigDirOverride(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GitHub.Owner != "databrickslabs" || cfg.GitHub.Repo != "ucx" {
		t.Errorf("default github = %+v", cfg.GitHub)
	}
	if cfg.Python != "" {
		t.Errorf("default python should be empty, got %q", cfg.Python)
	}
	if cfg.UI.Verbose {
		t.Error("default verbose should be false")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	resetOverrides(t)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	content := `
python: "/usr/local/bin/python3.12"
github: {
	owner: "example"
}
ui: {verbose: true}
`
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Python != "/usr/local/bin/python3.12" {
		t.Errorf("python = %q", cfg.Python)
	}
	if cfg.GitHub.Owner != "example" {
		t.Errorf("github.owner = %q", cfg.GitHub.Owner)
	}
	// repo not set in the file; default should survive the merge
	if cfg.GitHub.Repo != "ucx" {
		t.Errorf("github.repo = %q, want default", cfg.GitHub.Repo)
	}
	if !cfg.UI.Verbose {
		t.Error("ui.verbose should be true")
	}
}

func TestLoad_InvalidCUE(t *testing.T) {
	resetOverrides(t)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(`python: 42`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("expected schema violation error")
	}
	if !strings.Contains(err.Error(), "load configuration") {
		t.Errorf("error should name the operation: %v", err)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	resetOverrides(t)
	SetConfigFilePathOverride(filepath.Join(t.TempDir(), "nope.cue"))

	if _, err := Load(); err == nil {
		t.Fatal("explicit --config path that does not exist must error")
	}
}

func TestConfigFilePath(t *testing.T) {
	resetOverrides(t)
	dir := t.TempDir()
	SetConfigDirOverride(dir)

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("ConfigFilePath = %q", path)
	}

	SetConfigFilePathOverride("/explicit/config.cue")
	path, err = ConfigFilePath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/explicit/config.cue" {
		t.Errorf("override ConfigFilePath = %q", path)
	}
}
