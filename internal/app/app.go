package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/linkfeed/internal/config"
	"github.com/samvad-hq/linkfeed/internal/logger"
	"github.com/samvad-hq/linkfeed/internal/server"
	"github.com/samvad-hq/linkfeed/internal/storage"
	"github.com/samvad-hq/linkfeed/internal/version"
	"github.com/samvad-hq/linkfeed/internal/webpage"
	"github.com/samvad-hq/linkfeed/pkg/httpclient"
)

// App is the linkfeed runtime. It makes sure the feed file exists, wires the
// metadata fetcher into the gateway and serves until the context ends.
type App struct {
	cfg    *config.Config
	log    logger.Logger
	server *server.Server
}

// New builds the runtime from cfg. The feed file is created when missing and
// validated when present; either failure is fatal.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	created, err := storage.Bootstrap(cfg.FeedPath)
	if err != nil {
		return nil, fmt.Errorf("prepare feed %s: %w", cfg.FeedPath, err)
	}
	if created {
		log.InfoObj("created new feed", "feed_path", cfg.FeedPath)
	}

	client := httpclient.NewRestyClient(httpclient.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: version.UserAgent(),
	})
	fetcher := webpage.NewFetcher(client, log)

	srv, err := server.New(server.Options{
		PrivateToken: cfg.PrivateToken,
		FeedToken:    cfg.FeedToken,
		FeedPath:     cfg.FeedPath,
		Retention: storage.RetentionPolicy{
			MinEntries: cfg.TrimMinEntries,
			MaxAge:     cfg.TrimAge,
		},
	}, fetcher, log)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	return &App{cfg: cfg, log: log, server: srv}, nil
}

// Run serves on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app is not initialized")
	}
	a.log.InfoObj("linkfeed starting", "runtime", map[string]any{
		"version": version.Version,
		"addr":    a.cfg.ListenAddr(),
	})
	if err := a.server.Run(ctx, a.cfg.ListenAddr()); err != nil {
		return err
	}
	a.log.InfoObj("linkfeed stopped", "version", version.Version)
	return nil
}
