package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
	"github.com/techiemaya-admin/lad-onboarding/internal/config"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/file"
	api "github.com/techiemaya-admin/lad-onboarding/pkg/adapters/http"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/memory"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/openai"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/redis"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/sqlite"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/observability"
	"github.com/techiemaya-admin/lad-onboarding/pkg/persistence/middleware"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

// LockPrefix namespaces the distributed session locks in Redis.
const LockPrefix = "onboarding:lock:"

// App is a fully wired Service plus the pieces the transports share.
type App struct {
	Service  *onboarding.Service
	Store    ports.SessionStore
	Streams  *api.StreamManager
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewApp builds the Service described by cfg.
func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Registry: prometheus.NewRegistry(),
		Streams:  api.NewStreamManager(logger),
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []onboarding.Option{
		onboarding.WithLogger(logger),
		onboarding.WithSessionObserver(app.Streams.Observe),
		onboarding.WithLifecycleHooks(observability.Hooks(observability.NewMetrics(app.Registry), logger)),
	}

	if cfg.CatalogPath != "" {
		c, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, onboarding.WithCatalog(c))
	}

	store, locker, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		app.closers = append(app.closers, closeStore)
	}
	app.Store = middleware.Chain(store, storeMiddleware(cfg)...)
	opts = append(opts, onboarding.WithStore(app.Store))
	if locker != nil {
		opts = append(opts, onboarding.WithLocker(locker))
	}

	if cfg.OpenAIKey != "" {
		opts = append(opts, onboarding.WithGenerator(openai.New(cfg.OpenAIKey,
			openai.WithModel(cfg.OpenAIModel),
			openai.WithBaseURL(cfg.OpenAIBaseURL),
			openai.WithLogger(logger),
		)))
	} else {
		logger.Info("OPENAI_API_KEY not set, free-form replies will fall back")
	}

	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(ctx, cfg.SQLitePath, sqlite.WithLogger(logger))
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.closers = append(app.closers, db.Close)
		opts = append(opts, onboarding.WithLeadStore(db), onboarding.WithCampaigns(db))
	}

	if cfg.Pacing > 0 {
		opts = append(opts, onboarding.WithPacing(cfg.Pacing))
	}
	if cfg.FastMode {
		opts = append(opts, onboarding.WithFastMode())
	}
	if cfg.TransitiveCascade {
		opts = append(opts, onboarding.WithTransitiveCascade())
	}

	app.Service = onboarding.New(opts...)
	return app, nil
}

func newStore(ctx context.Context, cfg config.Config) (ports.SessionStore, ports.DistributedLocker, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil, nil
	case config.StoreRedis:
		redisOpts, err := backend.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := backend.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		store := redis.NewFromClient(client, redis.WithTTL(cfg.SessionTTL))
		return store, redis.NewLocker(client, LockPrefix), store.Close, nil
	default:
		return file.New(cfg.SessionDir), nil, nil, nil
	}
}

// storeMiddleware masks lead contact data, then seals the session when a key is set.
func storeMiddleware(cfg config.Config) []middleware.Middleware {
	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	if cfg.EncryptionKey != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    cfg.EncryptionKey,
			FallbackKeys: cfg.EncryptionOldKeys,
		}))
	}
	return mws
}
