// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	// Source is a local ZIP path or an http(s) URL.
	Source string
	// DestDir is the directory the distribution folder is created under.
	// Empty means the current directory.
	DestDir string
	// FolderName overrides the distribution folder name. Empty derives
	// "<archive-stem>" from the source filename.
	FolderName string
	// Overwrite replaces an existing distribution folder.
	Overwrite bool
}

// Unpack extracts a distribution ZIP into DestDir/<folder>.
// Returns the path of the extracted folder.
func Unpack(opts UnpackOptions) (extractedPath string, err error) {
	if opts.Source == "" {
		return "", fmt.Errorf("source cannot be empty")
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err = os.MkdirAll(absDestDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	// The default folder name comes from the source, not the local file:
	// for URL sources the download lands in a random temp file whose name
	// must not leak into the extraction path.
	folder := opts.FolderName
	if folder == "" {
		folder = archiveStem(opts.Source)
	}

	var zipPath string
	cleanup := func() {}
	if strings.HasPrefix(opts.Source, "http://") || strings.HasPrefix(opts.Source, "https://") {
		tmpFile, dlErr := downloadArchive(opts.Source)
		if dlErr != nil {
			return "", fmt.Errorf("failed to download distribution: %w", dlErr)
		}
		zipPath = tmpFile
		cleanup = func() { _ = os.Remove(tmpFile) }
	} else {
		zipPath, err = filepath.Abs(opts.Source)
		if err != nil {
			return "", fmt.Errorf("failed to resolve source path: %w", err)
		}
	}
	defer cleanup()

	targetDir := filepath.Join(absDestDir, folder)

	if _, statErr := os.Stat(targetDir); statErr == nil {
		if !opts.Overwrite {
			return "", fmt.Errorf("distribution already exists at %s (use --overwrite to replace)", targetDir)
		}
		if err = os.RemoveAll(targetDir); err != nil {
			return "", fmt.Errorf("failed to remove existing distribution: %w", err)
		}
	}

	zipReader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("failed to open ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range zipReader.File {
		destPath := filepath.Join(targetDir, filepath.FromSlash(file.Name))

		// Reject entries that would escape the destination.
		relPath, relErr := filepath.Rel(targetDir, destPath)
		if relErr != nil || strings.HasPrefix(relPath, "..") {
			return "", fmt.Errorf("invalid path in ZIP: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if mkdirErr := os.MkdirAll(destPath, 0o755); mkdirErr != nil {
				return "", fmt.Errorf("failed to create directory: %w", mkdirErr)
			}
			continue
		}

		if mkdirErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkdirErr != nil {
			return "", fmt.Errorf("failed to create parent directory: %w", mkdirErr)
		}
		if extractErr := extractFile(file, destPath); extractErr != nil {
			return "", fmt.Errorf("failed to extract %s: %w", file.Name, extractErr)
		}
	}

	return targetDir, nil
}

// archiveStem derives the default extraction folder name: the archive
// filename without its .zip suffix. URL sources use the URL path's basename.
func archiveStem(source string) string {
	base := ""
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if u, parseErr := url.Parse(source); parseErr == nil {
			base = path.Base(u.Path)
		}
		if base == "" || base == "." || base == "/" {
			base = "distribution"
		}
	} else {
		base = filepath.Base(source)
	}
	return strings.TrimSuffix(base, ".zip")
}

// downloadArchive downloads a ZIP from a URL into a temporary file and
// returns its path.
func downloadArchive(url string) (tmpPath string, err error) {
	tmpFile, err := os.CreateTemp("", "ucdist-download-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath = tmpFile.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()
	defer func() {
		if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %s", resp.Status)
	}

	if _, err = io.Copy(tmpFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save downloaded file: %w", err)
	}

	return tmpPath, nil
}

func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode()
	if mode == 0 {
		mode = 0o644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(destFile, rc)
	return err
}
