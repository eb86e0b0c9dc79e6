package ota

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
)

const (
	imageSuffix   = ".img"
	archiveSuffix = ".zip"
)

// Extract unpacks the downloaded archive into StagingDir and returns it.
//
// Top-level .img entries (bootloader, radio) are copied as-is. Every nested
// .zip entry is opened and only the allow-listed images are taken from it.
// Output files keep their base name. On failure the staging directory is
// removed and *errs.ExtractionError returned.
func (p *Package) Extract() (out string, err error) {
	out = p.StagingDir()
	logger.Info("Beginning extraction of %s", filepath.Base(p.Dest))

	if err := os.RemoveAll(out); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", out, err)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", out, err)
	}

	defer func() {
		if err != nil {
			_ = os.RemoveAll(out)
			out = ""
		}
	}()

	zr, err := zip.OpenReader(p.Dest)
	if err != nil {
		return "", &errs.ExtractionError{Archive: p.Dest, Err: err}
	}
	defer utils.Close(zr)

	nested := 0
	for _, f := range zr.File {
		switch {
		case strings.HasSuffix(f.Name, imageSuffix):
			name := path.Base(f.Name)
			reportExtract(name, f.UncompressedSize64)
			if err := extractEntry(f, filepath.Join(out, name)); err != nil {
				return "", &errs.ExtractionError{Archive: p.Dest, Err: err}
			}

		case strings.HasSuffix(f.Name, archiveSuffix):
			nested++
			if err := p.extractNested(f, out); err != nil {
				return "", &errs.ExtractionError{Archive: p.Dest, Err: err}
			}
		}
	}

	if nested == 0 {
		return "", &errs.ExtractionError{Archive: p.Dest, Err: errors.New("no nested image archive found")}
	}
	return out, nil
}

// extractNested spills the nested archive to a temp file in the cache
// directory, pulls the allow-listed images out, and deletes the temp file.
func (p *Package) extractNested(f *zip.File, out string) error {
	tmp, err := os.CreateTemp(p.DestDir, "nested-*.zip")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := copyEntry(f, tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	inner, err := zip.OpenReader(tmpPath)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	defer utils.Close(inner)

	found := 0
	for _, img := range inner.File {
		if !utils.Includes(p.Images, img.Name) {
			continue
		}
		reportExtract(img.Name, img.UncompressedSize64)
		if err := extractEntry(img, filepath.Join(out, path.Base(img.Name))); err != nil {
			return fmt.Errorf("%s/%s: %w", f.Name, img.Name, err)
		}
		found++
	}

	if found == 0 {
		return fmt.Errorf("%s holds none of %s", f.Name, strings.Join(p.Images, ", "))
	}
	return nil
}

func reportExtract(name string, size uint64) {
	logger.Info("Extracting %s (%s)...", name, humanize.Bytes(size))
}

func extractEntry(f *zip.File, dst string) (err error) {
	w, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return copyEntry(f, w)
}

func copyEntry(f *zip.File, w io.Writer) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer utils.Close(rc)

	_, err = io.Copy(w, rc)
	return err
}
