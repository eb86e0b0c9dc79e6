package state

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
)

// Store persists the last-seen version per codename as a plain file at
// prefix+codename. There is no locking: a single writer per codename is
// assumed.
type Store interface {
	Read(codename string) (version string, ok bool, err error)
	Write(codename, version string) error
}

type FileStore struct {
	prefix string
}

// NewFileStore returns a store rooted at prefix. An empty prefix disables
// persistence: reads report absence and writes do nothing.
func NewFileStore(prefix string) *FileStore {
	return &FileStore{prefix: prefix}
}

// Path is the state file for codename, or "" when persistence is disabled.
func (s *FileStore) Path(codename string) string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + codename
}

func (s *FileStore) Read(codename string) (string, bool, error) {
	path := s.Path(codename)
	if path == "" {
		return "", false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state file %s: %w", path, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Write(codename, version string) error {
	if version == "" {
		return errs.InvalidArgument("version for %s cannot be empty", codename)
	}

	path := s.Path(codename)
	if path == "" {
		return nil
	}

	if err := utils.WriteFileAtomic(path+".tmp", path, strings.NewReader(version)); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", path, err)
	}
	logger.Debug("stored version %s for %s in %s", version, codename, path)
	return nil
}
