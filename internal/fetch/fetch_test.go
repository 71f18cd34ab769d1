// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseChecksums(t *testing.T) {
	validHash := strings.Repeat("ab", 32)

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{
			name:  "single entry",
			input: validHash + "  0.58.0.zip\n",
			want:  1,
		},
		{
			name:  "skips malformed lines",
			input: "not a checksum line\n" + validHash + "  toolkit.whl\n\n",
			want:  1,
		},
		{
			name:  "normalizes hash case",
			input: strings.ToUpper(validHash) + "  file.zip\n",
			want:  1,
		},
		{
			name:    "no valid entries",
			input:   "short  file.zip\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseChecksums(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseChecksums: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
			for _, e := range entries {
				if e.Hash != strings.ToLower(e.Hash) {
					t.Errorf("hash not lowercased: %q", e.Hash)
				}
			}
		})
	}
}

func TestFindChecksum(t *testing.T) {
	entries := []ChecksumEntry{
		{Hash: "aa", Filename: "one.zip"},
		{Hash: "bb", Filename: "two.zip"},
	}

	hash, err := FindChecksum(entries, "two.zip")
	if err != nil {
		t.Fatal(err)
	}
	if hash != "bb" {
		t.Errorf("got %q, want %q", hash, "bb")
	}

	if _, err := FindChecksum(entries, "missing.zip"); !errors.Is(err, ErrChecksumNotFound) {
		t.Errorf("want ErrChecksumNotFound, got %v", err)
	}
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("distribution payload")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	if err := VerifyFile(path, strings.ToUpper(good)); err != nil {
		t.Errorf("case-insensitive match failed: %v", err)
	}

	err := VerifyFile(path, strings.Repeat("00", 32))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("want ErrChecksumMismatch, got %v", err)
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatal("want *ChecksumError")
	}
	if ce.Got != good {
		t.Errorf("Got = %q, want %q", ce.Got, good)
	}
}

func releasesJSON() string {
	return `[
		{"tag_name": "v0.57.0", "name": "v0.57.0", "zipball_url": "Z/0.57.0"},
		{"tag_name": "v0.58.0", "name": "v0.58.0", "zipball_url": "Z/0.58.0",
		 "assets": [{"name": "checksums.txt", "browser_download_url": "Z/checksums"}]},
		{"tag_name": "v0.59.0rc1", "name": "rc", "prerelease": true, "zipball_url": "Z/rc"},
		{"tag_name": "v0.60.0", "name": "draft", "draft": true, "zipball_url": "Z/draft"}
	]`
}

func newAPIServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/databrickslabs/ucx/releases", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, releasesJSON())
	})
	mux.HandleFunc("/repos/databrickslabs/ucx/releases/tags/v0.58.0", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name": "v0.58.0", "name": "v0.58.0", "zipball_url": "Z/0.58.0"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewClient("databrickslabs", "ucx", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	return srv, client
}

func TestListReleases(t *testing.T) {
	_, client := newAPIServer(t)

	releases, err := client.ListReleases(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Drafts and prereleases filtered, newest first.
	if len(releases) != 2 {
		t.Fatalf("got %d releases, want 2: %v", len(releases), releases)
	}
	if releases[0].TagName != "v0.58.0" || releases[1].TagName != "v0.57.0" {
		t.Errorf("wrong order: %s, %s", releases[0].TagName, releases[1].TagName)
	}
}

func TestGetReleaseByTag(t *testing.T) {
	_, client := newAPIServer(t)

	release, err := client.GetReleaseByTag(context.Background(), "v0.58.0")
	if err != nil {
		t.Fatal(err)
	}
	if release.TagName != "v0.58.0" {
		t.Errorf("got %q", release.TagName)
	}

	if _, err := client.GetReleaseByTag(context.Background(), "v9.9.9"); !errors.Is(err, ErrReleaseNotFound) {
		t.Errorf("want ErrReleaseNotFound, got %v", err)
	}
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("databrickslabs", "ucx", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := client.ListReleases(context.Background())

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("want *RateLimitError, got %v", err)
	}
	if rl.Limit != 60 {
		t.Errorf("Limit = %d", rl.Limit)
	}
}

// makeZipball builds an archive shaped like a GitHub source zipball, with a
// single wrapper directory at the root.
func makeZipball(t *testing.T, wrapper string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := w.Create(wrapper + "/" + name)
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
	return buf.Bytes()
}

func TestSource(t *testing.T) {
	zipball := makeZipball(t, "databrickslabs-ucx-abc123", map[string]string{
		"src/databricks/labs/ucx/__init__.py": "",
		"src/databricks/labs/ucx/install.py":  "from databricks.labs.ucx.config import X\n",
		"pyproject.toml":                      "[project]\n",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/databrickslabs/ucx/releases/tags/v0.58.0", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name": "v0.58.0", "zipball_url": "http://%s/zipball"}`, r.Host)
	})
	mux.HandleFunc("/zipball", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipball)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient("databrickslabs", "ucx", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	dest := filepath.Join(t.TempDir(), "source")

	result, err := Source(context.Background(), client, SourceOptions{Version: "v0.58.0", DestDir: dest})
	if err != nil {
		t.Fatal(err)
	}

	if result.Release.TagName != "v0.58.0" {
		t.Errorf("TagName = %q", result.Release.TagName)
	}
	if result.Verified {
		t.Error("Verified should be false without a checksums asset")
	}

	// Wrapper directory stripped.
	for _, rel := range []string{
		"src/databricks/labs/ucx/install.py",
		"pyproject.toml",
	} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing extracted file %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "databrickslabs-ucx-abc123")); !os.IsNotExist(err) {
		t.Error("wrapper directory should have been stripped")
	}

	// Existing destination refused without Overwrite.
	if _, err := Source(context.Background(), client, SourceOptions{Version: "v0.58.0", DestDir: dest}); err == nil {
		t.Fatal("expected refusal for existing destination")
	}
	if _, err := Source(context.Background(), client, SourceOptions{Version: "v0.58.0", DestDir: dest, Overwrite: true}); err != nil {
		t.Fatalf("overwrite should succeed: %v", err)
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"v0.58.0", "v0.58.0"},
		{"0.58.0", "v0.58.0"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTag(tt.in); got != tt.want {
			t.Errorf("normalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
