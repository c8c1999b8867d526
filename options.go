package hiera

import (
	"context"

	"github.com/goliatone/go-hiera-redis/pkg/activity"
	"github.com/goliatone/go-hiera-redis/pkg/store"
	"go.uber.org/zap"
)

// Fetcher reads one namespaced key from the store. *store.Adapter satisfies
// it; tests substitute counting or failing fetchers.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (store.Value, error)
}

// Option configures a Backend.
type Option func(*backendConfig)

type backendConfig struct {
	logger        *zap.Logger
	fetcher       Fetcher
	dialer        store.Dialer
	lookupLogger  LookupLogger
	activityHooks activity.Hooks
	activity      activity.Config
}

func applyOptions(opts []Option) backendConfig {
	cfg := backendConfig{activity: activity.Config{Enabled: true}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.lookupLogger == nil {
		cfg.lookupLogger = noopLookupLogger{}
	}
	return cfg
}

// WithLogger sets the diagnostics sink. Debug and warn messages never affect
// control flow.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *backendConfig) {
		cfg.logger = logger
	}
}

// WithStore replaces the store adapter entirely; Config.Connection is then
// ignored.
func WithStore(fetcher Fetcher) Option {
	return func(cfg *backendConfig) {
		cfg.fetcher = fetcher
	}
}

// WithDialer keeps the default lazy adapter but dials through dialer instead
// of Redis.
func WithDialer(dialer store.Dialer) Option {
	return func(cfg *backendConfig) {
		cfg.dialer = dialer
	}
}

// WithLookupLogger attaches a per-lookup logger.
func WithLookupLogger(logger LookupLogger) Option {
	return func(cfg *backendConfig) {
		if logger == nil {
			cfg.lookupLogger = noopLookupLogger{}
			return
		}
		cfg.lookupLogger = logger
	}
}

// WithActivityHooks attaches activity hooks notified after every lookup. Nil
// entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *backendConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig controls activity emission (enabled by default once
// hooks are attached).
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *backendConfig) {
		cfg.activity = config
	}
}
