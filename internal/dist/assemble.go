// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
)

// Manifest describes an assembled distribution archive.
type Manifest struct {
	// Path is the absolute path of the archive.
	Path string
	// Files lists every archive entry, slash-separated, sorted.
	Files []string
	// TotalBytes is the uncompressed size of all entries.
	TotalBytes int64
}

// FileCount returns the number of file entries in the archive.
func (m *Manifest) FileCount() int {
	return len(m.Files)
}

// Assemble packs the staging root into a ZIP archive at outputPath.
//
// Entries are written in sorted order with fixed timestamps so that two
// builds of the same tree produce byte-identical archives. The upstream
// build script zipped in walk order, which made archives differ across
// filesystems for no content reason.
func Assemble(stagingRoot, outputPath string) (manifest *Manifest, err error) {
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}

	var relFiles []string
	walkErr := filepath.WalkDir(stagingRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(stagingRoot, path)
		if relErr != nil {
			return relErr
		}
		relFiles = append(relFiles, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan staging tree: %w", walkErr)
	}
	sort.Strings(relFiles)

	if err := os.MkdirAll(filepath.Dir(absOutput), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	zipFile, err := os.Create(absOutput)
	if err != nil {
		return nil, fmt.Errorf("failed to create ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(absOutput)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	manifest = &Manifest{Path: absOutput}
	for _, rel := range relFiles {
		data, readErr := os.ReadFile(filepath.Join(stagingRoot, filepath.FromSlash(rel)))
		if readErr != nil {
			return nil, fmt.Errorf("failed to read staged file %s: %w", rel, readErr)
		}

		// Fixed header (no per-file mtime) keeps the archive reproducible.
		header := &zip.FileHeader{
			Name:   rel,
			Method: zip.Deflate,
		}
		header.SetMode(0o644)

		writer, createErr := zipWriter.CreateHeader(header)
		if createErr != nil {
			return nil, fmt.Errorf("failed to create ZIP entry %s: %w", rel, createErr)
		}
		if _, writeErr := writer.Write(data); writeErr != nil {
			return nil, fmt.Errorf("failed to write ZIP entry %s: %w", rel, writeErr)
		}

		manifest.Files = append(manifest.Files, rel)
		manifest.TotalBytes += int64(len(data))
	}

	log.Debug("assembled archive", "path", absOutput, "files", len(manifest.Files))
	return manifest, nil
}
