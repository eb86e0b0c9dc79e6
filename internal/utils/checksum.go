package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
)

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsSHA256Hex reports whether s is a lowercase hex sha256 digest.
func IsSHA256Hex(s string) bool {
	return sha256Pattern.MatchString(s)
}

// SHA256File streams the file at path through sha256 and returns the hex digest.
func SHA256File(path string) (sum string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close failed: %w", cerr)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to compute SHA256 for %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ValidateSHA256Checksum returns an *errs.IntegrityError when the file digest
// differs from expected. The comparison is case-insensitive.
func ValidateSHA256Checksum(path, expected string) error {
	actual, err := SHA256File(path)
	if err != nil {
		return err
	}
	if actual != strings.ToLower(expected) {
		return &errs.IntegrityError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}
