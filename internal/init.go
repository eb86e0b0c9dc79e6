package internal

import (
	"github.com/MrSnakeDoc/otawatch/internal/initiator"
	"github.com/MrSnakeDoc/otawatch/internal/logger"

	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file holding the defaults",
		Long: `Initialize otawatch configuration.
This command will:
- Create the configuration directory in ~/.config/otawatch
- Write config.yml with the default page URL, devices, cache and state paths

Use --config to write the file elsewhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}

			written, err := initiator.New(path, force).Execute()
			if err != nil {
				return err
			}

			logger.Success("Configuration ready at %s", written)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}
