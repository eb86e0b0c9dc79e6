package internal

import (
	"os"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/checker"
	"github.com/MrSnakeDoc/otawatch/internal/logger"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otawatch",
		Short: "Watch factory image releases and mirror them locally",
		Long: `otawatch reads the vendor's factory image page, reports the latest canonical
release of a device and remembers the last version it saw. The mirror command
downloads, verifies and unpacks releases into a local directory.`,
		Example: `otawatch check -n walleye -p
otawatch mirror -o /srv/factory -n walleye`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.ConfigureLoggerFromFlags()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			versionFlag, _ := cmd.Flags().GetBool("version")
			if versionFlag {
				checker.PrintVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolP("version", "v", false, "Print version information")

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Config file (default ~/.config/otawatch/config.yml)")
	pf.String("page-url", "", "Override the factory image page URL")
	pf.String("layout", "", "Table layout of the page: flash or legacy")
	pf.String("policy", "", "Variant policy: tag-shape, carrier or none")
	pf.CountVarP(&logger.FlagVerboseCount, "verbose", "V", "Increase verbosity (-V, -VV)")
	pf.BoolVarP(&logger.FlagQuiet, "quiet", "q", false, "Only print errors")
	pf.BoolVarP(&logger.FlagSilent, "silent", "s", false, "Print no logs at all")
	pf.BoolVar(&logger.FlagJSON, "json", false, "Log as JSON lines")

	RegisterSubCommands(cmd)

	return cmd
}

func Execute() error {
	root := NewRootCmd()

	if os.Getenv("COMP_LINE") != "" ||
		(len(os.Args) > 1 && strings.HasPrefix(os.Args[1], "__complete")) {
		return root.Execute()
	}

	if err := root.Execute(); err != nil {
		logger.Debug("Failed to execute root command: %v", err)
		return err
	}
	return nil
}
