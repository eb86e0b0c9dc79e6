package internal

import (
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
	"github.com/spf13/cobra"
)

var defaultCommands = []middleware.CommandFactory{
	NewInitCmd,
	middleware.UseMiddlewareChain(middleware.LoadConfig)(NewCheckCmd),
	middleware.UseMiddlewareChain(middleware.LoadConfig)(NewMirrorCmd),
	middleware.UseMiddlewareChain(middleware.LoadConfig)(NewDevicesCmd),
	NewVersionCmd,
}

func RegisterSubCommands(cmd *cobra.Command) {
	for _, factory := range defaultCommands {
		cmd.AddCommand(factory())
	}
}
