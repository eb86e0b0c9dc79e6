package initiator

import (
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/globalconfig"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
	"github.com/MrSnakeDoc/otawatch/internal/utils/pathutils"
)

type Initiator struct {
	// ConfigPath is where the file is written; empty means the default location.
	ConfigPath string
	Force      bool
}

func New(path string, force bool) *Initiator {
	return &Initiator{ConfigPath: path, Force: force}
}

// Execute writes a config file holding the defaults. An existing file is
// left alone unless Force is set. It returns the path of the file.
func (i *Initiator) Execute() (string, error) {
	path := i.ConfigPath
	if path == "" {
		p, err := globalconfig.DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	path, err := pathutils.ToAbsolutePath(path)
	if err != nil {
		return "", err
	}

	if ok, _ := utils.FileExists(path); ok && !i.Force {
		logger.Info("Config file %s already exists, use --force to overwrite it", path)
		return path, nil
	}

	cfg := config.Default()
	if err := globalconfig.Save(&cfg, path); err != nil {
		return "", err
	}

	logger.Debug("wrote default config to %s", path)
	return path, nil
}
