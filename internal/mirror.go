package internal

import (
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
	"github.com/MrSnakeDoc/otawatch/internal/mirror"
	"github.com/MrSnakeDoc/otawatch/internal/utils/pathutils"

	"github.com/spf13/cobra"
)

func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Download and unpack the latest factory images",
		Long: `Downloads the latest canonical factory image of one device, or of every
configured device, verifies its checksum and unpacks the flashable images into
<output>/<codename>-<release tag>. Older releases of the device are removed.

Examples:
    otawatch mirror -o /srv/factory               # every configured device
    otawatch mirror -o /srv/factory -n walleye    # a single device
    otawatch mirror -o /srv/factory -c            # drop cached archives afterwards
    otawatch mirror -o /srv/factory -n walleye -d # print the plan only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := middleware.Get[*config.Config](cmd, middleware.CtxKeyConfig)
			if err != nil {
				return err
			}

			var opts mirror.Options
			if opts.Codename, err = cmd.Flags().GetString("name"); err != nil {
				return err
			}
			if opts.Clean, err = cmd.Flags().GetBool("clean"); err != nil {
				return err
			}
			if opts.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
				return err
			}

			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			if opts.OutputDir, err = pathutils.ToAbsolutePath(output); err != nil {
				return err
			}

			if opts.PageText, err = readPageFile(cmd); err != nil {
				return err
			}

			m, err := mirror.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			m.Out = cmd.OutOrStdout()

			return m.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory for extracted images")
	cmd.Flags().StringP("name", "n", "", "Only mirror this codename")
	cmd.Flags().BoolP("clean", "c", false, "Remove the cached archive once installed")
	cmd.Flags().BoolP("dry-run", "d", false, "Print what would be mirrored and exit")
	addPageFileFlag(cmd)
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
