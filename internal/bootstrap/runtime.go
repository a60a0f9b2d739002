// Package bootstrap opens the external resources a Scrolla process needs.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scrolla/internal/cache"
	"scrolla/internal/config"
	"scrolla/internal/database"
	"scrolla/internal/media"
	"scrolla/internal/middleware"
	"scrolla/internal/notifications"
	"scrolla/internal/repository"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs database.ApplySchema after connecting.
	ApplySchema bool
	// SkipOptional leaves Redis, NATS and MongoDB unopened; used by one-shot tools.
	SkipOptional bool
}

// Runtime holds every connection opened at startup. Optional members are nil
// when their backing service is not configured or not reachable.
type Runtime struct {
	Store    *database.Store
	Redis    *redis.Client
	NATS     *nats.Conn
	Mongo    *database.Mongo
	Storage  media.Storage
	Journeys repository.JourneyRepository
}

// InitRuntime connects to the database and, unless opts.SkipOptional is set,
// to Redis, NATS, MongoDB and the media store. Redis and NATS failures are
// logged and tolerated; the database and an explicitly selected Mongo
// journey store are required.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt := &Runtime{Store: store}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, store, cfg); err != nil {
			_ = rt.Close(ctx)
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	rt.Journeys = repository.NewJourneyRepository(store.DB())
	if opts.SkipOptional {
		return rt, nil
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			middleware.Logger.Warn("redis unavailable, continuing without cache and pub/sub",
				slog.String("error", err.Error()))
		} else {
			rt.Redis = rdb
		}
	}

	if cfg.NATSURL != "" {
		nc, err := notifications.ConnectNATS(cfg.NATSURL)
		if err != nil {
			middleware.Logger.Warn("nats unavailable, events stay local", slog.String("error", err.Error()))
		} else {
			rt.NATS = nc
		}
	}

	if cfg.JourneyStore == "mongo" {
		m, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
		rt.Mongo = m
		if err := repository.EnsureJourneyIndexes(ctx, m.DB); err != nil {
			middleware.Logger.Warn("failed to ensure journey indexes", slog.String("error", err.Error()))
		}
		rt.Journeys = repository.NewMongoJourneyRepository(m.DB)
	}

	storage, err := media.NewStorage(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("media storage: %w", err)
	}
	rt.Storage = storage

	return rt, nil
}

// Close releases every connection the runtime holds.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	var errs []error
	if rt.NATS != nil {
		if err := rt.NATS.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("nats: %w", err))
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := rt.Mongo.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("mongo: %w", err))
	}
	if err := rt.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	return errors.Join(errs...)
}
