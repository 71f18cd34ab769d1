// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the computed SHA256 hash does not match
	// the published hash.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrChecksumNotFound indicates the downloaded file has no entry in the
	// release's checksums.txt.
	ErrChecksumNotFound = errors.New("file not found in checksums")

	errNoValidEntries = errors.New("no valid checksum entries found")
)

type (
	// ChecksumEntry is a single line of a sha256sum-format checksums file.
	ChecksumEntry struct {
		Hash     string // Hex-encoded SHA256 hash (64 characters)
		Filename string
	}

	// ChecksumError provides details about a verification failure.
	// It wraps ErrChecksumMismatch so callers can use errors.Is.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}
)

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s",
		e.Filename, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseChecksums parses a checksums.txt in sha256sum output format:
// "{sha256_hex}  {filename}" with two spaces between hash and filename.
// Unparseable lines are skipped; an error is returned only when no line
// yields a valid entry.
func ParseChecksums(r io.Reader) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 {
			continue
		}

		hash := parts[0]
		filename := strings.TrimSpace(parts[1])
		if filename == "" || !isValidHexHash(hash) {
			continue
		}

		entries = append(entries, ChecksumEntry{
			Hash:     strings.ToLower(hash),
			Filename: filename,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}

	if len(entries) == 0 {
		return nil, errNoValidEntries
	}

	return entries, nil
}

// FindChecksum returns the hash recorded for filename, or ErrChecksumNotFound.
func FindChecksum(entries []ChecksumEntry, filename string) (string, error) {
	for _, e := range entries {
		if e.Filename == filename {
			return e.Hash, nil
		}
	}
	return "", ErrChecksumNotFound
}

// VerifyFile compares the SHA256 hash of the file at path with expectedHash
// (case-insensitive). A mismatch is reported as a *ChecksumError.
func VerifyFile(path, expectedHash string) error {
	got, err := computeFileHash(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, expectedHash) {
		return &ChecksumError{
			Filename: path,
			Expected: strings.ToLower(expectedHash),
			Got:      got,
		}
	}

	return nil
}

// computeFileHash streams the file through SHA256 and returns the lowercase
// hex digest.
func computeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
