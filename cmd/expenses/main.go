// Command expenses serves the personal finance web application.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(nil, "Invalid configuration", err)
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		cli.Fatal(nil, "Invalid logging configuration", err)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(parent context.Context, cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.GracefulShutdown(log.NewContext(parent, logger), logger)
	defer stop()

	if !cfg.SecureCookies {
		logger.Warn("Session cookies are sent without the Secure flag")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Expenses:    res.Expenses,
		Incomes:     res.Incomes,
		Summaries:   res.Summaries,
		Preferences: res.Preferences,
		Accounts:    res.Accounts,
		Ready:       res.Store.Ping,
	}, apphttp.Options{
		Logger:         logger,
		SecureCookies:  cfg.SecureCookies,
		LoginRateLimit: cfg.LoginRateLimit,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			"port", cfg.Port,
			"driver", res.Store.Driver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
