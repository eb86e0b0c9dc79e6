package checker

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/notifier"
	"github.com/MrSnakeDoc/otawatch/internal/release"
	"github.com/MrSnakeDoc/otawatch/internal/service"
	"github.com/MrSnakeDoc/otawatch/internal/state"
)

// Resolver turns the vendor page into a release for one codename and keeps
// the state file for that codename current.
//
// The read-compare-write on the state file is not transactional. Two
// overlapping runs for the same codename may both write; runs are expected
// to be sequential (operator or cron driven).
type Resolver struct {
	Config    config.Config
	Client    service.HTTPClient
	Extractor *release.Extractor
	Store     state.Store
	Notifier  notifier.Notifier
}

type Request struct {
	Codename string
	// PageText replaces the network fetch when non-empty.
	PageText string
	// Index is the starting row; nil means the last matching row.
	Index     *int
	Porcelain bool
	// SkipState resolves without reading or writing the state file.
	SkipState bool
}

type Result struct {
	Info     release.Info
	Message  string
	Previous string
	Changed  bool
}

func New(conf *config.Config, client service.HTTPClient, store state.Store) (*Resolver, error) {
	if conf == nil {
		def := config.Default()
		conf = &def
	}

	if client == nil {
		client = service.NewHTTPClient(conf.Timeout)
	}

	if store == nil {
		store = state.NewFileStore(conf.StatePrefix)
	}

	ex, err := release.NewExtractorFromConfig(conf)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		Config:    *conf,
		Client:    client,
		Extractor: ex,
		Store:     store,
	}, nil
}

func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	page := req.PageText
	if page == "" {
		var err error
		page, err = service.FetchPage(ctx, r.Client, r.Config.PageURL, r.Config.Cookies)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch release page: %w", err)
		}
	}

	idx := release.LatestIndex
	if req.Index != nil {
		idx = *req.Index
	}

	info, err := r.Extractor.Extract(page, req.Codename, idx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Info:    *info,
		Message: info.Message(req.Porcelain),
	}

	if req.SkipState || r.Store == nil {
		return res, nil
	}

	if err := r.updateState(res); err != nil {
		return nil, err
	}

	if res.Changed {
		r.notify(ctx, res)
	}

	return res, nil
}

func (r *Resolver) updateState(res *Result) error {
	current, ok, err := r.Store.Read(res.Info.Codename)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	res.Previous = current

	if ok && current == res.Info.Version {
		logger.Debug("%s still at %s", res.Info.Codename, current)
		return nil
	}

	if err := r.Store.Write(res.Info.Codename, res.Info.Version); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	res.Changed = true
	logger.Debug("%s moved from %q to %q", res.Info.Codename, current, res.Info.Version)
	return nil
}

// notify never fails resolution; a broken notifier only costs a log line.
func (r *Resolver) notify(ctx context.Context, res *Result) {
	if r.Notifier == nil {
		return
	}
	ev := notifier.Event{Info: res.Info, Previous: res.Previous}
	if err := r.Notifier.Notify(ctx, ev); err != nil {
		logger.Warn("notification for %s failed: %v", res.Info.Codename, err)
	}
}
