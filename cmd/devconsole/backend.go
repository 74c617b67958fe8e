package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/devconsole/internal/catalog"
	"github.com/thebtf/devconsole/internal/config"
	"github.com/thebtf/devconsole/internal/kv"
	"github.com/thebtf/devconsole/internal/kv/postgres"
	"github.com/thebtf/devconsole/internal/kv/redis"
	"github.com/thebtf/devconsole/internal/kv/sqlite"
	"github.com/thebtf/devconsole/internal/session"
)

// openSubstrate opens the configured durable backend. The returned close
// function is never nil.
func openSubstrate(ctx context.Context, cfg *config.Config) (kv.Substrate, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return kv.NewMemory(), func() {}, nil

	case config.BackendSQLite:
		store, err := sqlite.NewStore(sqlite.StoreConfig{
			Path:     cfg.ResolvedDBPath(),
			MaxConns: cfg.MaxConns,
			WALMode:  true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, closer(store.Close, "sqlite"), nil

	case config.BackendPostgres:
		store, err := postgres.NewStore(postgres.Config{
			DSN:      cfg.PostgresDSN,
			MaxConns: cfg.MaxConns,
			LogLevel: logger.Silent,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, closer(store.Close, "postgres"), nil

	case config.BackendRedis:
		store, err := redis.NewStore(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return store, closer(store.Close, "redis"), nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func closer(fn func() error, name string) func() {
	return func() {
		if err := fn(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("Failed to close backend")
		}
	}
}

// openSession opens the backend, loads the session store and the egg
// catalog.
func openSession(ctx context.Context, cfg *config.Config) (*session.Store, *catalog.Registry, func(), error) {
	substrate, closeFn, err := openSubstrate(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	store := session.New(substrate, session.WithMaxTranscriptEntries(cfg.MaxTranscriptEntries))
	store.LoadOnInit(ctx)

	reg := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.CatalogPath).Msg("Invalid egg catalog, using built-in catalog")
		} else {
			reg = loaded
		}
	}

	log.Debug().Str("backend", cfg.Backend).Int("eggs", len(store.Eggs())).Int("entries", len(store.Transcript())).Msg("Session loaded")
	return store, reg, closeFn, nil
}
