// SPDX-License-Identifier: MPL-2.0

// Package verify checks an assembled distribution archive against its recipe.
//
// The checks mirror what a workspace import needs to succeed: the structural
// entries are present, the archive is at least as large as the recipe
// expects, no entry escapes the extraction root, no staged file still
// references the upstream namespace, and the bundled installer script has the
// structure the install instructions rely on.
package verify

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"ucdist/internal/dist"
	"ucdist/internal/recipe"
	"ucdist/internal/rename"
)

// maxEntryBytes bounds how much of a single entry is read for content
// scanning (4 MB). Toolkit source files are tiny; the cap only guards
// against a hostile archive.
const maxEntryBytes = 4 << 20

type (
	// Issue represents a single validation problem in an archive.
	Issue struct {
		// Type categorizes the issue: "structure", "count", "namespace",
		// "installer", or "safety".
		Type string
		// Message describes the specific problem.
		Message string
		// Path is the archive entry where the issue was found (optional).
		Path string
	}

	// Result contains the outcome of archive validation.
	Result struct {
		// Valid is true if the archive passed all checks.
		Valid bool
		// ArchivePath is the archive that was validated.
		ArchivePath string
		// FileCount is the number of file entries found.
		FileCount int
		// Issues contains all problems found.
		Issues []Issue
	}
)

// Error implements the error interface for Issue.
func (i Issue) Error() string {
	if i.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", i.Type, i.Path, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Type, i.Message)
}

// AddIssue records a validation problem and marks the result invalid.
func (r *Result) AddIssue(issueType, message, entryPath string) {
	r.Issues = append(r.Issues, Issue{Type: issueType, Message: message, Path: entryPath})
	r.Valid = false
}

// Archive validates a distribution archive against its recipe.
// A non-nil Result is returned even when invalid; the error return is
// reserved for being unable to read the archive at all.
func Archive(zipPath string, df *recipe.Distfile) (*Result, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer func() { _ = reader.Close() }()

	result := &Result{Valid: true, ArchivePath: zipPath}

	entries := map[string]*zip.File{}
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		result.FileCount++
		entries[f.Name] = f

		if path.IsAbs(f.Name) || strings.HasPrefix(f.Name, "..") || strings.Contains(f.Name, "/../") {
			result.AddIssue("safety", "entry path escapes the extraction root", f.Name)
		}
	}

	checkCount(result, df)
	checkStructure(result, entries, df)
	checkNamespace(result, entries, df)
	checkInstaller(result, entries, df)

	return result, nil
}

// checkCount verifies the archive meets the recipe's minimum file count.
// A minimum rather than an exact count: toolkit minor versions add files,
// and an exact assert churns on every upstream release.
func checkCount(r *Result, df *recipe.Distfile) {
	min := df.Expect.MinFiles
	if min <= 0 {
		return
	}
	if r.FileCount < min {
		r.AddIssue("count",
			fmt.Sprintf("archive contains %d files, expected at least %d", r.FileCount, min), "")
	}
}

// checkStructure verifies the fixed entries every distribution must carry.
func checkStructure(r *Result, entries map[string]*zip.File, df *recipe.Distfile) {
	required := []string{
		df.Product.DistName + "/__init__.py",
		dist.InstallerName(df),
		"README.md",
		"REQUIREMENTS.txt",
	}
	for _, name := range required {
		if _, ok := entries[name]; !ok {
			r.AddIssue("structure", "required entry is missing", name)
		}
	}

	// The full toolkit tree must exist under the distribution import path.
	pkgPrefix := strings.ReplaceAll(df.Product.DistImport, ".", "/") + "/"
	found := false
	for name := range entries {
		if strings.HasPrefix(name, pkgPrefix) {
			found = true
			break
		}
	}
	if !found {
		r.AddIssue("structure", "no toolkit files under the distribution package path", pkgPrefix)
	}
}

// checkNamespace verifies no text entry still references the upstream
// namespace. Only the import-path forms are checked; prose mentions of the
// bare product name are harmless.
func checkNamespace(r *Result, entries map[string]*zip.File, df *recipe.Distfile) {
	rules := rename.Rules(df.Product, nil)[:3]

	for name, f := range entries {
		if !isTextEntry(name) {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			r.AddIssue("structure", fmt.Sprintf("entry is unreadable: %v", err), name)
			continue
		}
		for _, rule := range rules {
			if strings.Contains(content, rule.Old) {
				r.AddIssue("namespace",
					fmt.Sprintf("entry still references %q", rule.Old), name)
				break
			}
		}
	}
}

// checkInstaller verifies the bundled installer script has the structure the
// README instructions depend on.
func checkInstaller(r *Result, entries map[string]*zip.File, df *recipe.Distfile) {
	f, ok := entries[dist.InstallerName(df)]
	if !ok {
		return // already reported by checkStructure
	}
	content, err := readEntry(f)
	if err != nil {
		r.AddIssue("installer", fmt.Sprintf("installer is unreadable: %v", err), f.Name)
		return
	}

	for _, def := range []string{
		"def install_dependencies",
		"def setup_python_path",
		"def main",
	} {
		if !strings.Contains(content, def) {
			r.AddIssue("installer", fmt.Sprintf("missing %s()", strings.TrimPrefix(def, "def ")), f.Name)
		}
	}
	if !strings.Contains(content, "import "+df.Product.DistName) {
		r.AddIssue("installer", "installer never imports the distribution package", f.Name)
	}
}

func isTextEntry(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".py", ".sql", ".md", ".txt", ".yml", ".yaml", ".json", ".cfg", ".toml":
		return true
	}
	return false
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
