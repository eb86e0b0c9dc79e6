package internal

import (
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
	"github.com/MrSnakeDoc/otawatch/internal/printer"
	"github.com/MrSnakeDoc/otawatch/internal/state"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
	"github.com/MrSnakeDoc/otawatch/internal/utils/pathutils"

	"github.com/spf13/cobra"
)

func NewDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List tracked devices and the last version seen for each",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := middleware.Get[*config.Config](cmd, middleware.CtxKeyConfig)
			if err != nil {
				return err
			}

			store := state.NewFileStore(cfg.StatePrefix)
			p := printer.NewColorPrinter()

			rows := make([]utils.DeviceStatus, 0, len(cfg.Devices))
			for _, codename := range cfg.Devices {
				version, ok, err := store.Read(codename)
				if err != nil {
					return err
				}
				if !ok {
					version = p.Warning("never checked")
				}

				path := store.Path(codename)
				if short, err := pathutils.ToHomePathFormat(path); err == nil {
					path = short
				}

				rows = append(rows, utils.DeviceStatus{Codename: codename, Version: version, StateFile: path})
			}

			return utils.CreateStatusTable(cmd.OutOrStdout(), "", rows)
		},
	}
}
