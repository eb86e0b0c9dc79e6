package internal

import (
	"fmt"
	"os"

	"github.com/MrSnakeDoc/otawatch/internal/checker"
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
	"github.com/MrSnakeDoc/otawatch/internal/notifier"
	"github.com/MrSnakeDoc/otawatch/internal/utils/pathutils"

	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Print the latest canonical release of a device",
		Long: `Looks up the latest canonical factory image of a device and prints it.
The version is remembered in a state file named <prefix><codename>; it is
rewritten only when the version changes.

Examples:
    otawatch check -n walleye                      # human readable
    otawatch check -n walleye -p                   # codename|tag|link|checksum
    otawatch check -n walleye -f ~/.pixel_update_  # custom state file prefix
    otawatch check -n walleye --index -2           # start from the second to last row`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := middleware.Get[*config.Config](cmd, middleware.CtxKeyConfig)
			if err != nil {
				return err
			}

			name, err := cmd.Flags().GetString("name")
			if err != nil {
				return err
			}
			if name == "" {
				return middleware.FlagComboError(errs.MissingCodename)
			}

			porcelain, err := cmd.Flags().GetBool("porcelain")
			if err != nil {
				return err
			}
			notify, err := cmd.Flags().GetBool("notify")
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("file-prefix") {
				prefix, _ := cmd.Flags().GetString("file-prefix")
				if cfg.StatePrefix, err = pathutils.ToAbsolutePath(prefix); err != nil {
					return err
				}
			}

			req := checker.Request{Codename: name, Porcelain: porcelain}

			if cmd.Flags().Changed("index") {
				idx, _ := cmd.Flags().GetInt("index")
				req.Index = &idx
			}

			if req.PageText, err = readPageFile(cmd); err != nil {
				return err
			}

			resolver, err := checker.New(cfg, nil, nil)
			if err != nil {
				return err
			}
			if notify {
				resolver.Notifier = notifier.NewConsole(cmd.ErrOrStderr())
			}

			res, err := resolver.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}

	cmd.Flags().StringP("name", "n", "", "Device codename, e.g. walleye")
	cmd.Flags().StringP("file-prefix", "f", "", "State file prefix (default from config)")
	cmd.Flags().BoolP("porcelain", "p", false, "Machine readable output: codename|tag|link|checksum")
	cmd.Flags().Int("index", -1, "Row to start from; negative counts from the end")
	cmd.Flags().Bool("notify", false, "Announce a version change on stderr")
	addPageFileFlag(cmd)

	return cmd
}

// addPageFileFlag lets a saved copy of the release page stand in for the
// network fetch.
func addPageFileFlag(cmd *cobra.Command) {
	cmd.Flags().String("page-file", "", "Read the release page from a local file instead of fetching it")
}

func readPageFile(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("page-file")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read page file: %w", err)
	}
	return string(data), nil
}
