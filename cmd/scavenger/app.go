package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/scavenger/internal/async"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/export"
	"github.com/joseph-ayodele/scavenger/internal/extract"
	"github.com/joseph-ayodele/scavenger/internal/feed"
	"github.com/joseph-ayodele/scavenger/internal/flyers"
	"github.com/joseph-ayodele/scavenger/internal/metrics"
	"github.com/joseph-ayodele/scavenger/internal/repository"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	cfg       *common.Config
	store     repository.Store
	images    *uploads.LocalStore
	metrics   *metrics.Registry
	extractor *extract.Service
	notifier  *async.StatusNotifier
	feed      *feed.Service
	flyers    *flyers.Service
	export    *export.Service
	logger    *slog.Logger
}

// newApp opens storage and builds every service. With strictProvider unset, a
// missing API key leaves extraction unavailable instead of failing startup.
func newApp(ctx context.Context, cfg *common.Config, reg prometheus.Registerer, strictProvider bool, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Campus.Location()
	if err != nil {
		return nil, err
	}

	provider, err := extract.ProviderFromConfig(cfg.LLM, logger)
	if err != nil {
		if strictProvider || !common.IsMissingConfig(err) {
			return nil, err
		}
		logger.Warn("extract.provider_unavailable", "provider", cfg.LLM.Provider, "error", common.Message(err), "hint", common.SetupHint(err))
		provider = extract.Unavailable(cfg.LLM.Provider, err)
	}

	store, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	images, err := uploads.NewLocalStore(filepath.Join(cfg.Server.PublicDir, "uploads"), logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	m := metrics.New(reg)
	extractor := extract.NewService(provider, cfg.Campus.Timezone, m, logger)
	notifier := async.NewStatusNotifier(store, logger,
		async.WithWorkers(cfg.Notifier.Workers),
		async.WithQueueSize(cfg.Notifier.QueueSize),
		async.WithMetrics(m),
	)

	return &app{
		cfg:       cfg,
		store:     store,
		images:    images,
		metrics:   m,
		extractor: extractor,
		notifier:  notifier,
		feed:      feed.NewService(store, store, images, extractor, loc, logger),
		flyers:    flyers.NewService(store, images, extractor, notifier, logger),
		export:    export.NewService(store, logger),
		logger:    logger,
	}, nil
}

// Close drains pending status updates before closing storage.
func (a *app) Close(ctx context.Context) {
	a.notifier.Shutdown(ctx)
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store.close_error", "error", err)
	}
}
