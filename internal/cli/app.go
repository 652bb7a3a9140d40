package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/serialbinder/internal/binder"
	"github.com/ppiankov/serialbinder/internal/cache"
	"github.com/ppiankov/serialbinder/internal/config"
	"github.com/ppiankov/serialbinder/internal/logging"
	"github.com/ppiankov/serialbinder/internal/source"
	"github.com/ppiankov/serialbinder/internal/store"
	"github.com/ppiankov/serialbinder/internal/title"
)

// app holds what every command loads from the config directory.
type app struct {
	cfg        *config.Config
	subs       *config.Subscriptions
	log        *zap.Logger
	normalizer *title.Normalizer
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	subs, err := config.LoadSubscriptions(filepath.Join(configDir, config.DefaultSubscriptionsFile))
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	rules, err := title.CompileRules(subs.Rules)
	if err != nil {
		return nil, fmt.Errorf("compile title rules: %w", err)
	}

	log, err := logging.New(logging.FromConfig(cfg.Log))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &app{
		cfg:        cfg,
		subs:       subs,
		log:        log,
		normalizer: title.Default(rules, cfg.Collect.Location()),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// client returns the configured feed client.
func (a *app) client() source.Client {
	opts := source.RedditOptions{
		BaseURL:   a.cfg.Reddit.BaseURL,
		UserAgent: a.cfg.Reddit.UserAgent,
		Token:     a.cfg.Reddit.Token,
		PageSize:  a.cfg.Reddit.PageSize,
		Timeout:   a.cfg.Reddit.Timeout.Duration,
	}
	if a.cfg.Reddit.Feed == "rss" {
		// The feed is served from the public site, not the OAuth host.
		if opts.BaseURL == config.DefaultRedditBaseURL {
			opts.BaseURL = ""
		}
		return source.NewRSS(opts)
	}
	return source.NewReddit(opts)
}

// openStore opens the SQLite database holding the cache and batch history.
func (a *app) openStore() (*store.Store, error) {
	db, err := store.Open(a.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

// postCache is a source.Cache that can be released.
type postCache interface {
	source.Cache
	Close() error
}

// openCache opens the configured cache backend. It returns nil when caching
// is switched off.
func (a *app) openCache() (postCache, error) {
	switch a.cfg.Cache.Backend {
	case "none":
		return nil, nil
	case "redis":
		rc, err := cache.Connect(a.cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		db, err := a.openStore()
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

func (a *app) binder(client source.Client, c source.Cache, budget int) *binder.Binder {
	return binder.New(binder.Options{
		Client:          client,
		Cache:           c,
		CacheTTL:        a.cfg.Cache.Expiry(),
		Normalizer:      a.normalizer,
		ReadBudget:      budget,
		UnlockedChannel: a.cfg.Collect.UnlockedChannel,
		Extension:       a.cfg.Collect.Extension,
		Log:             a.log,
	})
}

// commandContext returns the command's context, or a background context when
// the command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
