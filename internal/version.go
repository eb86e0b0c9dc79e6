package internal

import (
	"github.com/MrSnakeDoc/otawatch/internal/checker"

	"github.com/spf13/cobra"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			checker.PrintVersion(cmd.OutOrStdout())
		},
	}
}
