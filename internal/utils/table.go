package utils

import (
	"io"

	"github.com/MrSnakeDoc/otawatch/internal/logger"
)

type DeviceStatus struct {
	Codename  string
	Version   string
	StateFile string
}

// CreateStatusTable renders one row per device to w.
func CreateStatusTable(w io.Writer, title string, devices []DeviceStatus) error {
	if title != "" {
		logger.Info("%s", title)
	}

	table := logger.CreateTable(w, []string{"Device", "Last seen", "State file"})

	for _, d := range devices {
		if err := table.Append([]string{d.Codename, d.Version, d.StateFile}); err != nil {
			return err
		}
	}

	return table.Render()
}
