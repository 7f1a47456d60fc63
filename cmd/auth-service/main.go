// Command auth-service serves registration, email confirmation, login and
// password recovery.
//
// @title                       innoshop auth service
// @version                     1.0
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
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
	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
	"github.com/innoshop/platform/internal/core/service"
	"github.com/innoshop/platform/internal/infrastructure/notify"
	"github.com/innoshop/platform/internal/infrastructure/queue"
	"github.com/innoshop/platform/internal/infrastructure/security"
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
		Service: "auth-service",
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("auth service stopped with error")
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
	if err := service.NewRoleSeeder(stores.Roles, clock, log).EnsureRoles(ctx, domain.DefaultRoles); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	issuer, err := app.NewTokenIssuer(cfg, clock)
	if err != nil {
		return err
	}

	mailer, err := notify.NewLogMailer(cfg.PublicBaseURL, logger.Component(log, "mailer"))
	if err != nil {
		return err
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, mailer, log)
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	accounts, err := service.NewAccountService(service.AccountDeps{
		Accounts: stores.Accounts,
		Roles:    stores.Roles,
		Tokens:   stores.Tokens,
		Hasher:   security.NewBcryptHasher(cfg.Password.BcryptCost),
		Issuer:   issuer,
		Secrets:  security.RandomSecrets{},
		Notifier: dispatcher,
		Clock:    clock,
	}, service.PasswordPolicy{
		MinLength:     cfg.Password.MinLength,
		RequireDigit:  cfg.Password.RequireDigit,
		RequireLower:  cfg.Password.RequireLower,
		RequireUpper:  cfg.Password.RequireUpper,
		RequireSymbol: cfg.Password.RequireSymbol,
	}, log)
	if err != nil {
		return err
	}
	if cfg.AdminEmail != "" {
		if err := accounts.BootstrapAdmin(ctx, cfg.AdminEmail); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	e := api.NewAuthRouter(api.AuthDeps{
		ServerOptions: api.ServerOptions{
			Log:        log,
			Production: cfg.Production(),
			Health:     stores.Health,
		},
		Accounts:       accounts,
		Validator:      issuer,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	return app.Serve(ctx, e, ":"+cfg.Port, log)
}
