package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	"github.com/donaldgifford/retail-price-tracker/internal/config"
	"github.com/donaldgifford/retail-price-tracker/internal/engine"
	"github.com/donaldgifford/retail-price-tracker/internal/history"
	"github.com/donaldgifford/retail-price-tracker/internal/normalize"
	"github.com/donaldgifford/retail-price-tracker/internal/notify"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	"github.com/donaldgifford/retail-price-tracker/pkg/extract"
)

// app holds the long-running components built from the config.
type app struct {
	store      store.Store
	engine     *engine.Engine
	dispatcher *notify.Dispatcher
}

// openStore connects to the configured database driver.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := store.NewSQLiteStore(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("%s pool_max_conns=%d", cfg.DSN(), cfg.PoolSize)
		s, err := store.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// newExtractor builds the extractor for one configured store, with its own
// session pool and rate limiter.
func newExtractor(sc *config.StoreConfig) (extract.Extractor, error) {
	sessions := extract.NewSessionPool(sc.Sessions.Size, sc.Sessions.Timeout, sc.Sessions.UserAgent)
	limiter := extract.NewRateLimiter(sc.RateLimit.PerSecond, sc.RateLimit.Burst, sc.RateLimit.DailyLimit)

	switch sc.Kind {
	case config.KindJSON:
		ex, err := extract.NewJSONExtractor(extract.JSONConfig{
			Store:        sc.Name,
			BaseURL:      sc.BaseURL,
			SearchPath:   sc.SearchPath,
			BlockMarkers: sc.BlockMarkers,
		}, extract.WithJSONSessionPool(sessions), extract.WithJSONRateLimiter(limiter))
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", sc.Name, err)
		}
		return ex, nil
	default:
		ex, err := extract.NewHTMLExtractor(extract.HTMLConfig{
			Store:        sc.Name,
			BaseURL:      sc.BaseURL,
			SearchPath:   sc.SearchPath,
			Selectors:    sc.Selectors,
			BlockMarkers: sc.BlockMarkers,
		}, extract.WithSessionPool(sessions), extract.WithRateLimiter(limiter))
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", sc.Name, err)
		}
		return ex, nil
	}
}

// newRegistry builds an extractor for every configured store.
func newRegistry(stores []config.StoreConfig) (*extract.Registry, error) {
	exs := make([]extract.Extractor, 0, len(stores))
	for i := range stores {
		ex, err := newExtractor(&stores[i])
		if err != nil {
			return nil, err
		}
		exs = append(exs, ex)
	}
	return extract.NewRegistry(exs...)
}

func newNormalizer(cfg *config.NormalizerConfig, log *slog.Logger) *normalize.Normalizer {
	return normalize.New(normalize.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		PriceTolerance:      cfg.PriceTolerance,
		DefaultCurrency:     cfg.DefaultCurrency,
	}, normalize.WithLogger(log), normalize.WithAliases(cfg.Aliases))
}

// newTransport fans notifications out to every enabled target, falling
// back to the log when none is.
func newTransport(cfg *config.NotificationsConfig, log *slog.Logger) notify.Transport {
	var ts []notify.Transport
	if cfg.Discord.Enabled {
		ts = append(ts, notify.NewDiscordTransport(cfg.Discord.WebhookURL))
	}
	if cfg.Webhook.Enabled {
		ts = append(ts, notify.NewWebhookTransport(cfg.Webhook.URL, cfg.Webhook.Headers))
	}
	switch len(ts) {
	case 0:
		log.Warn("no notification targets enabled, notifications go to the log")
		return notify.NewLogTransport(log)
	case 1:
		return ts[0]
	default:
		return notify.NewMultiTransport(ts...)
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	ec := cfg.Engine
	stores := make(map[string]engine.StoreSettings, len(cfg.Stores))
	for _, sc := range cfg.Stores {
		stores[sc.Name] = engine.StoreSettings{
			BaseURL:     sc.BaseURL,
			Currency:    sc.Currency,
			Concurrency: sc.Concurrency,
		}
	}
	return engine.Config{
		DefaultPollInterval:  ec.DefaultPollInterval,
		Jitter:               ec.JitterValue(),
		StaleMultiplier:      ec.StaleMultiplier,
		GlobalConcurrency:    ec.GlobalConcurrency,
		StoreConcurrency:     ec.StoreConcurrency,
		JobTimeout:           ec.JobTimeout,
		MaxAttempts:          ec.MaxAttempts,
		RetryInitialInterval: ec.RetryInitialInterval,
		RetryMaxInterval:     ec.RetryMaxInterval,
		StaleAfter:           ec.StaleAfter,
		MaxResults:           ec.MaxResults,
		DrainTimeout:         ec.DrainTimeout,
		Breaker: engine.BreakerConfig{
			Threshold: ec.Breaker.Threshold,
			Window:    ec.Breaker.Window,
			Cooldown:  ec.Breaker.Cooldown,
		},
		Stores: stores,
	}
}

// buildApp wires the scrape pipeline and notification outbox on top of s.
func buildApp(cfg *config.Config, s store.Store, log *slog.Logger) (*app, error) {
	registry, err := newRegistry(cfg.Stores)
	if err != nil {
		return nil, fmt.Errorf("building extractors: %w", err)
	}

	dispatcher := notify.NewDispatcher(s, newTransport(&cfg.Notifications, log), notify.DispatcherConfig{
		QueueSize:       cfg.Dispatcher.QueueSize,
		Workers:         cfg.Dispatcher.Workers,
		MaxAttempts:     cfg.Dispatcher.MaxAttempts,
		InitialInterval: cfg.Dispatcher.InitialInterval,
		MaxInterval:     cfg.Dispatcher.MaxInterval,
	}, notify.WithLogger(log))

	evaluator := alert.NewEvaluator(s, dispatcher,
		alert.WithLogger(log),
		alert.WithDefaultDuration(cfg.Alerts.DefaultDuration),
	)

	eng := engine.NewEngine(
		s,
		registry,
		newNormalizer(&cfg.Normalizer, log),
		history.New(s, history.WithLogger(log)),
		evaluator,
		engineConfig(cfg),
		engine.WithLogger(log),
		engine.WithRecoverer(dispatcher),
	)

	return &app{store: s, engine: eng, dispatcher: dispatcher}, nil
}
