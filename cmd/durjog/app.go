package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/durjog-khobor/internal/config"
	"github.com/Adda-Baaj/durjog-khobor/internal/crawler"
	"github.com/Adda-Baaj/durjog-khobor/internal/freshness"
	"github.com/Adda-Baaj/durjog-khobor/internal/ingest"
	"github.com/Adda-Baaj/durjog-khobor/internal/logger"
	"github.com/Adda-Baaj/durjog-khobor/internal/metrics"
	"github.com/Adda-Baaj/durjog-khobor/internal/storage"
	"github.com/Adda-Baaj/durjog-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/durjog-khobor/pkg/profiles"
	"github.com/Adda-Baaj/durjog-khobor/pkg/publishers"
	"github.com/Adda-Baaj/durjog-khobor/pkg/relevance"
)

// app holds every long-lived component a command needs.
type app struct {
	cfg         config.Config
	log         logger.Logger
	store       storage.Store
	metrics     *metrics.Metrics
	dispatcher  *publishers.Dispatcher
	coordinator *ingest.Coordinator
}

// loadBase reads the configuration and builds the logger.
func loadBase(configPath string) (config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// loadProfiles builds the active profile list: the built-in catalogue,
// overridden or extended by profiles.file, restricted to profiles.enabled.
func loadProfiles(cfg config.Config) ([]*profiles.Profile, error) {
	keywords := relevance.DefaultKeywords
	if cfg.Keywords.File != "" {
		list, err := relevance.LoadKeywords(cfg.Keywords.File)
		if err != nil {
			return nil, err
		}
		keywords = list
	}

	reg, err := profiles.DefaultRegistry(keywords)
	if err != nil {
		return nil, err
	}
	if cfg.Profiles.File != "" {
		specs, err := profiles.LoadSpecs(cfg.Profiles.File)
		if err != nil {
			return nil, err
		}
		if err := reg.Apply(specs, keywords); err != nil {
			return nil, fmt.Errorf("apply %s: %w", cfg.Profiles.File, err)
		}
	}
	return reg.Select(cfg.Profiles.Enabled)
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, log, err := loadBase(configPath)
	if err != nil {
		return nil, err
	}

	list, err := loadProfiles(cfg)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	dispatcher, err := publishers.FromFile(ctx, cfg.Publishers.File, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load publishers: %w", err)
	}

	// Per-request contexts carry the tighter limits; the client timeout only
	// has to cover the longest of them.
	clientTimeout := max(cfg.Crawler.HomepageTimeout, cfg.Crawler.ArticleTimeout, cfg.Crawler.DiscoveryTimeout)
	client := httpclient.NewRestyClient(clientTimeout, httpclient.WithUserAgent(cfg.Crawler.UserAgent))
	walker := crawler.NewWalker(client, log, crawler.WalkerConfig{
		Window:         cfg.Retention.Window,
		ListingTimeout: cfg.Crawler.HomepageTimeout,
		PageTimeout:    cfg.Crawler.DiscoveryTimeout,
		RequestDelay:   cfg.Crawler.RequestDelay,
		MaxCandidates:  cfg.Crawler.MaxCandidates,
	})
	fetcher := crawler.NewFetcher(client, log, cfg.Crawler.ArticleTimeout)
	m := metrics.New()

	opts := []ingest.Option{ingest.WithObserver(m)}
	if dispatcher.Len() > 0 {
		opts = append(opts, ingest.WithEventSink(dispatcher))
	}
	coord := ingest.New(list, walker, fetcher, store, freshness.New(cfg.Retention.Window), log, opts...)

	log.InfoObj("harvester configured", "app_init", map[string]any{
		"profiles":   len(list),
		"store":      cfg.Store.Driver,
		"store_path": cfg.Store.Path,
		"window":     cfg.Retention.Window.String(),
		"publishers": dispatcher.Len(),
	})

	return &app{
		cfg:         cfg,
		log:         log,
		store:       store,
		metrics:     m,
		dispatcher:  dispatcher,
		coordinator: coord,
	}, nil
}

// Close releases publishers and the store, then flushes the logger.
func (a *app) Close() error {
	err := errors.Join(a.dispatcher.Close(), a.store.Close())
	_ = a.log.Sync()
	return err
}
