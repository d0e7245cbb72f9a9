package fx

import (
	"context"
	"database/sql"
	"player-cards/internal/api"
	"player-cards/internal/cache"
	"player-cards/internal/config"
	"player-cards/internal/constants"
	"player-cards/internal/database"
	"player-cards/internal/logger"
	"player-cards/internal/mirror"
	"player-cards/internal/render"
	"player-cards/internal/repository"
	"player-cards/internal/scoring"
	"player-cards/internal/server"
	"player-cards/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Stores holds the key-value backends. History is always durable and the
// profile cache follows CACHE_BACKEND. Rendered images stay out of process
// memory: they share the redis store or fall back to the durable one.
type Stores struct {
	Profile cache.Store
	History cache.Store
	Render  cache.Store
}

func ProvideStores(lc fx.Lifecycle, cfg *config.Config, db *sql.DB, logger zerolog.Logger) (*Stores, error) {
	durable := cache.NewSQLiteStore(db, logger)
	stores := &Stores{Profile: durable, History: durable, Render: durable}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := durable.Purge(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to purge expired cache entries")
				return nil
			}
			logger.Info().Int64("purged", n).Msg("expired cache entries purged")
			return nil
		},
	})

	switch cfg.CacheBackend {
	case config.BackendMemory:
		memory := cache.NewMemoryStore()
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go memory.Sweep(sweepCtx, constants.MemorySweepInterval)
				return nil
			},
			OnStop: func(context.Context) error {
				stopSweep()
				return nil
			},
		})
		stores.Profile = memory
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
		defer cancel()
		rdb, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		redisStore := cache.NewRedisStore(rdb)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return redisStore.Close()
			},
		})
		stores.Profile = redisStore
		stores.Render = redisStore
	}
	logger.Info().Str("backend", cfg.CacheBackend).Msg("cache store ready")
	return stores, nil
}

func ProvideProfileCache(stores *Stores, cfg *config.Config, logger zerolog.Logger) *repository.ProfileCache {
	return repository.NewProfileCache(stores.Profile, cfg.ProfileTTL, logger)
}

func ProvideHistoryStore(stores *Stores, logger zerolog.Logger) *repository.HistoryStore {
	return repository.NewHistoryStore(stores.History, logger)
}

func ProvideProfileSource(client *api.EnkaClient) service.ProfileSource {
	return client
}

func ProvideImageMirror(m *mirror.Mirror) service.ImageMirror {
	return m
}

func ProvideRenderer(lc fx.Lifecycle, cfg *config.Config, stores *Stores, logger zerolog.Logger) (render.Renderer, error) {
	chrome, err := render.NewChromeRenderer(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return chrome.Close()
		},
	})
	return render.NewCached(chrome, stores.Render, logger), nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// stores
	fx.Provide(ProvideStores),
	fx.Provide(ProvideProfileCache),
	fx.Provide(ProvideHistoryStore),
	// remote
	fx.Provide(api.LoadCatalog),
	fx.Provide(api.NewEnkaClient),
	fx.Provide(ProvideProfileSource),
	fx.Provide(mirror.New),
	fx.Provide(ProvideImageMirror),
	// rendering
	fx.Provide(scoring.NewEngine),
	fx.Provide(ProvideRenderer),
	// svc
	fx.Provide(service.NewProfileFetcher),
	fx.Provide(service.NewOrchestrator),
	fx.Provide(service.NewCardService),
	// server
	fx.Provide(server.NewPlayerCardsServer),
)
