package ota

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/release"
	"github.com/MrSnakeDoc/otawatch/internal/service"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
	"github.com/dustin/go-humanize"
)

// Package is one factory image on its way from the vendor to the output
// directory. It lives for a single mirror run.
type Package struct {
	Codename   string
	URL        string
	Checksum   string
	ReleaseTag string
	// DestDir is the per-codename cache directory; Dest the archive inside it.
	DestDir string
	Dest    string
	// Images is the allow-list pulled out of nested archives.
	Images []string
}

func NewPackage(info release.Info, cacheDir string, images []string) (*Package, error) {
	u, err := url.Parse(info.DownloadURL)
	if err != nil {
		return nil, errs.InvalidArgument("bad download URL %q: %v", info.DownloadURL, err)
	}
	name := path.Base(u.Path)
	if !strings.HasSuffix(name, ".zip") {
		return nil, errs.InvalidArgument("download URL %q is not a zip archive", info.DownloadURL)
	}
	if cacheDir == "" {
		return nil, errs.InvalidArgument("cache directory is required")
	}

	destDir := filepath.Join(cacheDir, info.Codename)
	return &Package{
		Codename:   info.Codename,
		URL:        info.DownloadURL,
		Checksum:   strings.ToLower(info.Checksum),
		ReleaseTag: info.ReleaseTag,
		DestDir:    destDir,
		Dest:       filepath.Join(destDir, name),
		Images:     images,
	}, nil
}

// OutputName is the directory name the release is installed under.
func (p *Package) OutputName() string {
	return p.Codename + "-" + p.ReleaseTag
}

// StagingDir is where Extract assembles the images before installation.
func (p *Package) StagingDir() string {
	return filepath.Join(p.DestDir, p.OutputName())
}

// EnsureDownloaded fetches the archive unless a cached copy already matches
// the checksum. A fresh download is verified before it replaces Dest; on a
// mismatch the partial file is removed and *errs.IntegrityError returned.
func (p *Package) EnsureDownloaded(ctx context.Context, client service.HTTPClient) error {
	if err := os.MkdirAll(p.DestDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", p.DestDir, err)
	}

	ok, err := utils.FileExists(p.Dest)
	if err != nil {
		return fmt.Errorf("failed to inspect cached package: %w", err)
	}
	if ok {
		sum, err := utils.SHA256File(p.Dest)
		switch {
		case err != nil:
			logger.Warn("cannot hash cached package %s: %v", p.Dest, err)
		case sum == p.Checksum:
			logger.Info("Package %s already downloaded", filepath.Base(p.Dest))
			return nil
		default:
			logger.Warn("Cached package %s does not match its checksum, downloading again", filepath.Base(p.Dest))
		}
	}

	part := p.Dest + ".part"
	logger.Info("Downloading %s", p.URL)

	n, err := service.DownloadToFile(ctx, client, p.URL, part, 0)
	if err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to download %s: %w", p.URL, err)
	}

	if err := utils.ValidateSHA256Checksum(part, p.Checksum); err != nil {
		_ = os.Remove(part)
		return err
	}

	if err := os.Rename(part, p.Dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to move %s into place: %w", part, err)
	}

	logger.Success("Downloaded %s (%s)", filepath.Base(p.Dest), humanize.Bytes(uint64(n)))
	return nil
}

// Cleanup removes the cache directory of this codename, archive included.
func (p *Package) Cleanup() error {
	if err := os.RemoveAll(p.DestDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p.DestDir, err)
	}
	return nil
}
