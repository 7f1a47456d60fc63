// Package app assembles the infrastructure shared by the service binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/innoshop/platform/internal/api/handler"
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/infrastructure/db/memory"
	mongodb "github.com/innoshop/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/innoshop/platform/internal/infrastructure/db/redis"
	"github.com/innoshop/platform/internal/pkg/config"
)

// Stores is the persistence selected by STORE_DRIVER.
type Stores struct {
	Accounts ports.AccountRepository
	Roles    ports.RoleRepository
	Tokens   ports.TokenStore
	Products ports.ProductRepository
	Health   map[string]handler.HealthCheck

	closers []func(context.Context) error
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}

// TokenWindows maps each single-use token purpose to its lifetime.
func TokenWindows(cfg *config.Config) map[domain.TokenPurpose]time.Duration {
	return map[domain.TokenPurpose]time.Duration{
		domain.PurposeConfirmEmail:  cfg.Tokens.ConfirmationTTL,
		domain.PurposeResetPassword: cfg.Tokens.ResetTTL,
	}
}

// OpenStores connects the configured backends and creates their indexes.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory stores; data is lost on restart")
		accounts := memory.NewAccountStore()
		return &Stores{
			Accounts: accounts,
			Roles:    accounts.Roles(),
			Tokens:   memory.NewTokenStore(TokenWindows(cfg), nil),
			Products: memory.NewProductStore(),
		}, nil
	case config.DriverMongo:
		return openMongoRedis(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMongoRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	accounts := mongodb.NewAccountRepository(db)
	roles := mongodb.NewRoleRepository(db)
	products := mongodb.NewProductRepository(db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return accounts.EnsureIndexes(gctx) })
	g.Go(func() error { return roles.EnsureIndexes(gctx) })
	g.Go(func() error { return products.EnsureIndexes(gctx) })
	if err := g.Wait(); err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Stores{
		Accounts: accounts,
		Roles:    roles,
		Tokens:   redisdb.NewTokenStore(rdb, TokenWindows(cfg)),
		Products: products,
		Health: map[string]handler.HealthCheck{
			"mongodb": mongodb.Pinger(db),
			"redis":   redisdb.Pinger(rdb),
		},
		closers: []func(context.Context) error{
			func(context.Context) error { return rdb.Close() },
			client.Disconnect,
		},
	}, nil
}
