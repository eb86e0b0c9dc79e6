package middleware

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/globalconfig"
	"github.com/MrSnakeDoc/otawatch/internal/release"
	"github.com/spf13/cobra"
)

// LoadConfig reads the config file named by --config (or the default
// location), applies the persistent override flags and stores the result
// in the command context under CtxKeyConfig.
func LoadConfig(cmd *cobra.Command, args []string, next func(cmd *cobra.Command, args []string) error) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := globalconfig.Load(path)
	if err != nil {
		return err
	}

	if err := applyOverrides(cmd, cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, CtxKeyConfig, cfg))

	return next(cmd, args)
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"page-url", &cfg.PageURL},
		{"layout", &cfg.Layout},
		{"policy", &cfg.Policy},
	}

	for _, o := range overrides {
		f := cmd.Flags().Lookup(o.flag)
		if f == nil || !f.Changed {
			continue
		}
		*o.dst = f.Value.String()
	}

	if _, err := release.LayoutByName(cfg.Layout); err != nil {
		return FlagComboError(errs.UnknownLayout, cfg.Layout)
	}
	if _, err := release.PolicyByName(cfg.Policy, cfg.CarrierMarkers); err != nil {
		return FlagComboError(errs.UnknownPolicy, cfg.Policy)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", errs.ErrInvalidArgument, cfg.Timeout)
	}
	return nil
}
