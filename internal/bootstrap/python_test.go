// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    string
		wantErr bool
	}{
		{name: "full version", out: "Python 3.12.1\n", want: "v3.12.1"},
		{name: "no patch", out: "Python 3.10\n", want: "v3.10.0"},
		{name: "trailing junk", out: "Python 3.11.4 (main, Jun  7 2023)", want: "v3.11.4"},
		{name: "not python", out: "zsh: command not found", wantErr: true},
		{name: "empty", out: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersion(tt.out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseVersion(%q) = %q, want %q", tt.out, got, tt.want)
			}
		})
	}
}

func withFakeInterpreters(t *testing.T, paths map[string]string, versions map[string]string) {
	t.Helper()
	origLook, origRun := lookPath, runVersion
	t.Cleanup(func() {
		lookPath, runVersion = origLook, origRun
	})

	lookPath = func(name string) (string, error) {
		if p, ok := paths[name]; ok {
			return p, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	runVersion = func(_ context.Context, path string) (string, error) {
		if v, ok := versions[path]; ok {
			return v, nil
		}
		return "", errors.New("exec failed")
	}
}

func TestFindPython(t *testing.T) {
	t.Run("prefers python3", func(t *testing.T) {
		withFakeInterpreters(t,
			map[string]string{"python3": "/usr/bin/python3", "python": "/usr/bin/python"},
			map[string]string{"/usr/bin/python3": "Python 3.11.2", "/usr/bin/python": "Python 3.10.0"},
		)

		py, err := FindPython(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		if py.Path != "/usr/bin/python3" || py.Version != "v3.11.2" {
			t.Errorf("got %+v", py)
		}
	})

	t.Run("falls back to python", func(t *testing.T) {
		withFakeInterpreters(t,
			map[string]string{"python": "/usr/bin/python"},
			map[string]string{"/usr/bin/python": "Python 3.10.5"},
		)

		py, err := FindPython(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		if py.Path != "/usr/bin/python" {
			t.Errorf("got %+v", py)
		}
	})

	t.Run("rejects old interpreter", func(t *testing.T) {
		withFakeInterpreters(t,
			map[string]string{"python3": "/usr/bin/python3"},
			map[string]string{"/usr/bin/python3": "Python 3.9.18"},
		)

		_, err := FindPython(context.Background(), "")
		if err == nil {
			t.Fatal("expected version rejection")
		}
		if !strings.Contains(err.Error(), "locate a Python interpreter") {
			t.Errorf("error should name the operation: %v", err)
		}
	})

	t.Run("override used exclusively", func(t *testing.T) {
		withFakeInterpreters(t,
			map[string]string{"python3": "/usr/bin/python3", "/opt/py/bin/python": "/opt/py/bin/python"},
			map[string]string{"/opt/py/bin/python": "Python 3.13.0"},
		)

		py, err := FindPython(context.Background(), "/opt/py/bin/python")
		if err != nil {
			t.Fatal(err)
		}
		if py.Path != "/opt/py/bin/python" {
			t.Errorf("override not honored: %+v", py)
		}
	})

	t.Run("nothing on path", func(t *testing.T) {
		withFakeInterpreters(t, nil, nil)
		if _, err := FindPython(context.Background(), ""); err == nil {
			t.Fatal("expected error with no interpreters")
		}
	})
}
