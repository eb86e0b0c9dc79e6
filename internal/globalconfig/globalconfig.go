package globalconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils/pathutils"

	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".config/otawatch"
	configFile = "config.yml"
)

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// DefaultPath is ~/.config/otawatch/config.yml.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the YAML file at path over config.Default(). An empty path means
// the default location, which is allowed to be missing; an explicit path must
// exist.
func Load(path string) (*config.Config, error) {
	cfg := config.Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &cfg, nil
		}
		path = p
	}

	absPath, err := pathutils.ToAbsolutePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logger.Debug("no config file at %s, using defaults", absPath)
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err := expandPaths(&cfg); err != nil {
		return nil, err
	}

	logger.Debug("loaded config from %s", absPath)
	return &cfg, nil
}

func expandPaths(cfg *config.Config) error {
	cache, err := pathutils.ToAbsolutePath(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve cache_dir: %w", err)
	}
	state, err := pathutils.ToAbsolutePath(cfg.StatePrefix)
	if err != nil {
		return fmt.Errorf("failed to resolve state_prefix: %w", err)
	}
	cfg.CacheDir, cfg.StatePrefix = cache, state
	return nil
}

// Save writes cfg as YAML to path (or the default location).
func Save(cfg *config.Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
