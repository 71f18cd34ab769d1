// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ucdist/internal/issue"

	"github.com/charmbracelet/log"
)

// checksumsAssetName is the conventional name of the sha256sum manifest
// attached to a release.
const checksumsAssetName = "checksums.txt"

type (
	// SourceOptions controls which release is fetched and where it lands.
	SourceOptions struct {
		// Version is the release tag to fetch. Empty means the latest
		// stable release.
		Version string
		// DestDir is the directory the source tree is extracted into.
		// It must not already exist unless Overwrite is set.
		DestDir string
		// Overwrite replaces an existing DestDir.
		Overwrite bool
	}

	// SourceResult describes a completed fetch.
	SourceResult struct {
		// Release is the release the source was taken from.
		Release *Release
		// SourceDir is the directory the tree was extracted into.
		SourceDir string
		// Verified is true when a published checksum covered the download.
		Verified bool
	}
)

// Source downloads a release's source zipball and extracts it into
// opts.DestDir, stripping the repository wrapper directory GitHub puts at
// the archive root. When the release publishes a checksums.txt that names
// the archive, the download is verified against it.
func Source(ctx context.Context, c *Client, opts SourceOptions) (*SourceResult, error) {
	release, err := resolveRelease(ctx, c, opts.Version)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("resolve upstream release").
			WithResource(fmt.Sprintf("%s/%s %s", c.owner, c.repo, opts.Version)).
			WithSuggestion("Check the tag exists on the upstream releases page").
			WithSuggestion("Set GITHUB_TOKEN if the API rate limit was hit").
			Wrap(err).
			BuildError()
	}

	if _, statErr := os.Stat(opts.DestDir); statErr == nil && !opts.Overwrite {
		return nil, issue.NewErrorContext().
			WithOperation("extract upstream source").
			WithResource(opts.DestDir).
			WithSuggestion("Pass --overwrite to replace the existing checkout").
			Wrap(errors.New("destination already exists")).
			BuildError()
	}

	log.Debug("downloading source archive", "tag", release.TagName, "url", redactURL(release.ZipballURL))

	zipPath, err := downloadToTemp(ctx, c, release.ZipballURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(zipPath) }()

	verified, err := verifyAgainstRelease(ctx, c, release, zipPath)
	if err != nil {
		return nil, err
	}

	if opts.Overwrite {
		if err := os.RemoveAll(opts.DestDir); err != nil {
			return nil, fmt.Errorf("failed to clear destination %s: %w", opts.DestDir, err)
		}
	}

	if err := extractZipball(zipPath, opts.DestDir); err != nil {
		return nil, issue.WrapWithOperation(err, "extract upstream source")
	}

	return &SourceResult{
		Release:   release,
		SourceDir: opts.DestDir,
		Verified:  verified,
	}, nil
}

func resolveRelease(ctx context.Context, c *Client, version string) (*Release, error) {
	if version == "" {
		return c.LatestRelease(ctx)
	}
	release, err := c.GetReleaseByTag(ctx, version)
	if errors.Is(err, ErrReleaseNotFound) && !strings.HasPrefix(version, "v") {
		// Upstream has tagged both "0.x.y" and "v0.x.y" over time.
		return c.GetReleaseByTag(ctx, "v"+version)
	}
	return release, err
}

// verifyAgainstRelease checks the downloaded archive against the release's
// checksums.txt asset. Source zipballs are generated on demand and rarely
// listed there, so a missing manifest or missing entry is not an error.
func verifyAgainstRelease(ctx context.Context, c *Client, release *Release, zipPath string) (bool, error) {
	var manifestURL string
	for _, asset := range release.Assets {
		if asset.Name == checksumsAssetName {
			manifestURL = asset.BrowserDownloadURL
			break
		}
	}
	if manifestURL == "" {
		return false, nil
	}

	body, err := c.Download(ctx, manifestURL)
	if err != nil {
		return false, fmt.Errorf("failed to download %s: %w", checksumsAssetName, err)
	}
	defer func() { _ = body.Close() }()

	entries, err := ParseChecksums(body)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", checksumsAssetName, err)
	}

	expected, err := FindChecksum(entries, zipballFilename(release.TagName))
	if errors.Is(err, ErrChecksumNotFound) {
		log.Debug("no checksum entry for source archive", "tag", release.TagName)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := VerifyFile(zipPath, expected); err != nil {
		return false, issue.NewErrorContext().
			WithOperation("verify downloaded archive").
			WithResource(zipballFilename(release.TagName)).
			WithSuggestion("Retry the download; the transfer may have been corrupted").
			Wrap(err).
			BuildError()
	}
	return true, nil
}

func zipballFilename(tag string) string {
	return strings.TrimPrefix(tag, "v") + ".zip"
}

func downloadToTemp(ctx context.Context, c *Client, url string) (string, error) {
	body, err := c.Download(ctx, url)
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("download upstream source").
			WithResource(redactURL(url)).
			WithSuggestion("Check network access to github.com").
			Wrap(err).
			BuildError()
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp("", "ucdist-fetch-*.zip")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close download: %w", err)
	}

	return tmp.Name(), nil
}

// extractZipball unpacks a GitHub source archive into dest. GitHub wraps the
// tree in a single "<owner>-<repo>-<sha>/" directory; that wrapper is
// stripped so dest holds the repository root directly.
func extractZipball(zipPath, dest string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer func() { _ = reader.Close() }()

	for _, f := range reader.File {
		name := stripWrapper(f.Name)
		if name == "" || f.FileInfo().IsDir() {
			continue
		}

		target := filepath.Join(dest, filepath.FromSlash(name))
		rel, err := filepath.Rel(dest, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := extractEntry(f, target); err != nil {
			return err
		}
	}

	return nil
}

func stripWrapper(name string) string {
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return rest
}

func extractEntry(f *zip.File, target string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	mode := f.Mode()
	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", target, closeErr)
		}
	}()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
