// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"ucdist/internal/recipe"
)

func testRecipe() *recipe.Distfile {
	return &recipe.Distfile{
		Product: recipe.Product{
			UpstreamName:   "ucx",
			DistName:       "migrator",
			UpstreamImport: "databricks.labs.ucx",
			DistImport:     "databricks.labs.migrator",
		},
		Expect: recipe.Expect{MinFiles: 4},
	}
}

const goodInstaller = `#!/usr/bin/env python3
def install_dependencies():
    pass

def setup_python_path():
    pass

def main():
    import migrator
`

// goodArchive returns the entries of a structurally valid distribution.
func goodArchive() map[string]string {
	return map[string]string{
		"migrator/__init__.py":                    "from databricks.labs.migrator.install import WorkspaceInstaller\n",
		"databricks/labs/migrator/__init__.py":    "",
		"databricks/labs/migrator/install.py":     "from databricks.labs.migrator.config import WorkspaceConfig\n",
		"install_migrator.py":                     goodInstaller,
		"README.md":                               "# Migrator Distribution\n",
		"REQUIREMENTS.txt":                        "databricks-sdk>=0.58.0,<0.59.0\n",
	}
}

func writeArchive(t *testing.T, entries map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "dist.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func issueTypes(r *Result) map[string]int {
	types := map[string]int{}
	for _, i := range r.Issues {
		types[i.Type]++
	}
	return types
}

func TestArchive(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(entries map[string]string)
		wantValid bool
		wantType  string
	}{
		{
			name:      "valid archive",
			mutate:    func(map[string]string) {},
			wantValid: true,
		},
		{
			name: "missing shim package",
			mutate: func(e map[string]string) {
				delete(e, "migrator/__init__.py")
			},
			wantType: "structure",
		},
		{
			name: "missing installer",
			mutate: func(e map[string]string) {
				delete(e, "install_migrator.py")
			},
			wantType: "structure",
		},
		{
			name: "below minimum file count",
			mutate: func(e map[string]string) {
				delete(e, "README.md")
				delete(e, "REQUIREMENTS.txt")
				delete(e, "databricks/labs/migrator/install.py")
			},
			wantType: "count",
		},
		{
			name: "upstream namespace remains",
			mutate: func(e map[string]string) {
				e["databricks/labs/migrator/install.py"] = "from databricks.labs.ucx.config import WorkspaceConfig\n"
			},
			wantType: "namespace",
		},
		{
			name: "installer missing expected structure",
			mutate: func(e map[string]string) {
				e["install_migrator.py"] = "print('nothing here')\n"
			},
			wantType: "installer",
		},
		{
			name: "path escape entry",
			mutate: func(e map[string]string) {
				e["../evil.py"] = "x"
			},
			wantType: "safety",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := goodArchive()
			tt.mutate(entries)
			zipPath := writeArchive(t, entries)

			result, err := Archive(zipPath, testRecipe())
			if err != nil {
				t.Fatalf("Archive: %v", err)
			}

			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (issues: %v)", result.Valid, tt.wantValid, result.Issues)
			}
			if tt.wantType != "" {
				if issueTypes(result)[tt.wantType] == 0 {
					t.Errorf("expected an issue of type %q, got %v", tt.wantType, result.Issues)
				}
			}
		})
	}
}

func TestArchive_UnreadableFile(t *testing.T) {
	_, err := Archive(filepath.Join(t.TempDir(), "missing.zip"), testRecipe())
	if err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestArchive_FileCount(t *testing.T) {
	zipPath := writeArchive(t, goodArchive())
	result, err := Archive(zipPath, testRecipe())
	if err != nil {
		t.Fatal(err)
	}
	if result.FileCount != len(goodArchive()) {
		t.Errorf("FileCount = %d, want %d", result.FileCount, len(goodArchive()))
	}
}

func TestIssue_Error(t *testing.T) {
	withPath := Issue{Type: "namespace", Message: "bad", Path: "a.py"}
	if got := withPath.Error(); got != "[namespace] a.py: bad" {
		t.Errorf("Error() = %q", got)
	}
	noPath := Issue{Type: "count", Message: "too few"}
	if got := noPath.Error(); got != "[count] too few" {
		t.Errorf("Error() = %q", got)
	}
}
