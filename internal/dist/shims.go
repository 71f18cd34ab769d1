// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"ucdist/internal/recipe"
)

//go:embed templates
var templateFS embed.FS

var shimTemplates = template.Must(template.New("shims").
	Funcs(template.FuncMap{
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"importdir": func(importPath string) string {
			return importToPath(importPath)
		},
	}).
	ParseFS(templateFS, "templates/*.tmpl"))

// InstallerName returns the distribution's installer script filename.
func InstallerName(df *recipe.Distfile) string {
	return "install_" + df.Product.DistName + ".py"
}

// WriteShims renders the convenience package, installer script, README, and
// requirements list into the staging root. Shims are generated after the
// rename pass so their contents are authored directly in the distribution
// namespace.
func WriteShims(stagingRoot string, df *recipe.Distfile) error {
	shims := []struct {
		template string
		relPath  string
	}{
		{"shim_init.py.tmpl", filepath.Join(df.Product.DistName, "__init__.py")},
		{"installer.py.tmpl", InstallerName(df)},
		{"readme.md.tmpl", "README.md"},
		{"requirements.txt.tmpl", "REQUIREMENTS.txt"},
	}

	for _, shim := range shims {
		var buf bytes.Buffer
		if err := shimTemplates.ExecuteTemplate(&buf, shim.template, df); err != nil {
			return fmt.Errorf("internal error: failed to render %s: %w", shim.template, err)
		}

		dest := filepath.Join(stagingRoot, shim.relPath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("failed to create shim directory: %w", err)
		}
		if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write shim %s: %w", shim.relPath, err)
		}
	}

	return nil
}
