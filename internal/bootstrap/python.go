// SPDX-License-Identifier: MPL-2.0

// Package bootstrap prepares the environment the toolkit installer needs:
// a recent Python, the pinned pip dependencies, and an importable
// distribution tree. All real installation logic belongs to the toolkit's
// own installer; this package only sets the stage and reports failures in
// actionable form.
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"ucdist/internal/issue"

	"golang.org/x/mod/semver"
)

// MinPythonVersion is the oldest interpreter the toolkit supports.
const MinPythonVersion = "v3.10.0"

// pythonCandidates are tried in order when no interpreter is configured.
var pythonCandidates = []string{"python3", "python"}

var versionRe = regexp.MustCompile(`Python (\d+)\.(\d+)(?:\.(\d+))?`)

// lookPath and runVersion are indirections for tests.
var (
	lookPath   = exec.LookPath
	runVersion = func(ctx context.Context, path string) (string, error) {
		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, path, "--version")
		cmd.Stdout = &out
		cmd.Stderr = &out
		if err := cmd.Run(); err != nil {
			return "", err
		}
		return out.String(), nil
	}
)

// Python describes a discovered interpreter.
type Python struct {
	// Path is the resolved executable path.
	Path string
	// Version is the semver-form interpreter version (e.g. "v3.12.1").
	Version string
}

// FindPython locates a usable interpreter. A non-empty override (from config
// or flag) is used as-is; otherwise python3 and python are tried on PATH.
func FindPython(ctx context.Context, override string) (*Python, error) {
	candidates := pythonCandidates
	if override != "" {
		candidates = []string{override}
	}

	var lastErr error
	for _, candidate := range candidates {
		path, err := lookPath(candidate)
		if err != nil {
			lastErr = err
			continue
		}

		out, err := runVersion(ctx, path)
		if err != nil {
			lastErr = fmt.Errorf("%s --version failed: %w", path, err)
			continue
		}

		version, err := parseVersion(out)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", path, err)
			continue
		}

		if semver.Compare(version, MinPythonVersion) < 0 {
			lastErr = fmt.Errorf("%s is Python %s, need %s or newer",
				path, strings.TrimPrefix(version, "v"), strings.TrimPrefix(MinPythonVersion, "v"))
			continue
		}

		return &Python{Path: path, Version: version}, nil
	}

	return nil, issue.NewErrorContext().
		WithOperation("locate a Python interpreter").
		WithSuggestion("Install Python 3.10 or newer").
		WithSuggestion("Or set 'python' in the ucdist config to an explicit interpreter path").
		Wrap(lastErr).
		BuildError()
}

// parseVersion extracts a semver version from `python --version` output.
func parseVersion(out string) (string, error) {
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("unrecognized version output %q", strings.TrimSpace(out))
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return fmt.Sprintf("v%s.%s.%s", m[1], m[2], patch), nil
}
