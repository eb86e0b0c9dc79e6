package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/otawatch/internal/checker"
	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/ota"
	"github.com/MrSnakeDoc/otawatch/internal/release"
	"github.com/MrSnakeDoc/otawatch/internal/service"
	"github.com/MrSnakeDoc/otawatch/internal/utils"
)

// Mirror keeps an output directory holding the latest extracted factory
// images of every tracked device.
//
// Fields:
//   - Config: cache location, device list and image allow-list
//   - Client: HTTP client used for archive downloads, without a whole-request
//     timeout
//   - Resolver: turns a codename into the release to mirror
//   - Out: destination of the dry-run plan (stdout in the CLI)
type Mirror struct {
	Config   *config.Config
	Client   service.HTTPClient
	Resolver *checker.Resolver
	Out      io.Writer
}

// Options selects what a single Run does.
type Options struct {
	// Codename restricts the run to one device; empty means Config.Devices.
	Codename  string
	OutputDir string
	// Clean removes the package cache of a device once it is installed.
	Clean  bool
	DryRun bool
	// PageText replaces the release page fetch, as in checker.Request.
	PageText string
}

// New wires a Mirror. client fetches the release page and a nil resolver is
// built from conf and client. Downloads go through a copy of client without
// its whole-request timeout, so conf.Timeout never cuts an archive short.
func New(conf *config.Config, client service.HTTPClient, resolver *checker.Resolver) (*Mirror, error) {
	if conf == nil {
		def := config.Default()
		conf = &def
	}

	var downloads service.HTTPClient
	if client == nil {
		client = service.NewHTTPClient(conf.Timeout)
		downloads = service.NewDownloadClient(conf.Timeout)
	} else {
		downloads = service.ForDownloads(client)
	}

	if resolver == nil {
		var err error
		resolver, err = checker.New(conf, client, nil)
		if err != nil {
			return nil, err
		}
	}

	return &Mirror{
		Config:   conf,
		Client:   downloads,
		Resolver: resolver,
		Out:      os.Stdout,
	}, nil
}

// Run mirrors every selected device in order.
//
// Returns:
//   - error: nil when every device succeeded, otherwise the joined per-device
//     failures. A failing device never touches its installed directory and
//     does not stop the remaining devices.
func (m *Mirror) Run(ctx context.Context, opts Options) error {
	devices := m.devices(opts)
	if len(devices) == 0 {
		return errs.InvalidArgument("no device to mirror")
	}
	if !opts.DryRun && opts.OutputDir == "" {
		return errs.InvalidArgument("an output directory is required")
	}

	var failures []error
	for _, codename := range devices {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		var err error
		if opts.DryRun {
			err = m.plan(ctx, codename, opts.PageText)
		} else {
			err = m.mirrorDevice(ctx, codename, opts)
		}
		if err != nil {
			logger.LogError("%s: %v", codename, err)
			failures = append(failures, fmt.Errorf("%s: %w", codename, err))
		}
	}

	return errors.Join(failures...)
}

func (m *Mirror) devices(opts Options) []string {
	if opts.Codename != "" {
		return []string{opts.Codename}
	}
	return m.Config.Devices
}

func (m *Mirror) resolve(ctx context.Context, codename, page string, dryRun bool) (*release.Info, error) {
	res, err := m.Resolver.Resolve(ctx, checker.Request{
		Codename:  codename,
		PageText:  page,
		Porcelain: true,
		SkipState: dryRun,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved %s", res.Message)

	info, err := release.ParsePorcelain(res.Message)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// plan prints what a real run would fetch without touching the filesystem.
func (m *Mirror) plan(ctx context.Context, codename, page string) error {
	info, err := m.resolve(ctx, codename, page, true)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(m.Out, "device=%s,release_tag=%s,package_url=%s\n",
		info.Codename, info.ReleaseTag, info.DownloadURL)
	return err
}

func (m *Mirror) mirrorDevice(ctx context.Context, codename string, opts Options) error {
	info, err := m.resolve(ctx, codename, opts.PageText, false)
	if err != nil {
		return err
	}

	pkg, err := ota.NewPackage(*info, m.Config.CacheDir, m.Config.Images)
	if err != nil {
		return err
	}

	logger.Info("Mirroring %s %s", codename, info.ReleaseTag)

	if err := pkg.EnsureDownloaded(ctx, m.Client); err != nil {
		return err
	}

	staging, err := pkg.Extract()
	if err != nil {
		return err
	}

	if err := install(staging, opts.OutputDir, codename, pkg.OutputName()); err != nil {
		return err
	}
	logger.Success("%s installed in %s", pkg.OutputName(), opts.OutputDir)

	if opts.Clean {
		if err := pkg.Cleanup(); err != nil {
			logger.Warn("%v", err)
		}
	}
	return nil
}

// install moves staging into outputDir as name. The release is first moved
// beside its final location under a hidden name, then every entry starting
// with codename is removed, then the hidden directory is renamed into place.
// Until the old entries are removed the previous release stays intact.
func install(staging, outputDir, codename, name string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if ok, err := utils.DirExists(staging); err != nil || !ok {
		return fmt.Errorf("staging directory %s is missing", staging)
	}

	tmp := filepath.Join(outputDir, "."+name+".tmp")
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("failed to clear %s: %w", tmp, err)
	}
	if err := utils.MovePath(staging, tmp); err != nil {
		return fmt.Errorf("failed to stage %s: %w", name, err)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return err
	}
	stale := utils.Filter(entries, func(e os.DirEntry) bool {
		return strings.HasPrefix(e.Name(), codename)
	})
	for _, e := range stale {
		logger.Debug("removing previous release %s", e.Name())
		if err := os.RemoveAll(filepath.Join(outputDir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}

	if err := os.Rename(tmp, filepath.Join(outputDir, name)); err != nil {
		return fmt.Errorf("failed to install %s: %w", name, err)
	}
	return nil
}
