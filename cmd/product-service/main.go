// Command product-service serves the product catalogue. Mutations require a
// bearer token minted by auth-service and are limited to the product's creator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	_ "github.com/innoshop/platform/docs"
	"github.com/innoshop/platform/internal/api"
	"github.com/innoshop/platform/internal/app"
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/core/service"
	"github.com/innoshop/platform/internal/pkg/config"
	"github.com/innoshop/platform/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Service: "product-service",
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("product service stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("closing stores")
		}
	}()

	clock := ports.SystemClock{}
	issuer, err := app.NewTokenIssuer(cfg, clock)
	if err != nil {
		return err
	}

	guard := service.NewOwnershipGuard()
	if len(cfg.OwnerOverrideRoles) > 0 {
		guard = guard.WithOverrideRoles(cfg.OwnerOverrideRoles...)
		log.Info().Strs("roles", cfg.OwnerOverrideRoles).Msg("ownership override enabled")
	}

	products := service.NewProductService(stores.Products, guard, clock, log)

	e := api.NewProductRouter(api.ProductDeps{
		ServerOptions: api.ServerOptions{
			Log:        log,
			Production: cfg.Production(),
			Health:     stores.Health,
		},
		Products:  products,
		Validator: issuer,
	})

	return app.Serve(ctx, e, ":"+cfg.Port, log)
}
