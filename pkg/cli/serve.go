package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/makola-community/makola/pkg/cli/config"
	httpctrl "github.com/makola-community/makola/pkg/controller/http"
	"github.com/makola-community/makola/pkg/usecase"
	"github.com/makola-community/makola/pkg/utils/async"
	"github.com/makola-community/makola/pkg/utils/logging"
	"github.com/makola-community/makola/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var appCfg config.App
	var repoCfg config.Repository
	var authCfg config.Auth
	var slackCfg config.Slack
	var rateLimitCfg config.RateLimit
	var storageCfg config.Storage
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MAKOLA_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, rateLimitCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

			municipality, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load municipality configuration")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(context.Background()); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			ucOpts := []usecase.Option{
				usecase.WithAppConfig(municipality),
				usecase.WithAuth(authUC),
			}

			notifier, err := slackCfg.Configure(municipality)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Slack notifications")
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}

			limiter, closeLimiter, err := rateLimitCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure rate limiting")
			}
			if limiter != nil {
				defer closeLimiter()
				ucOpts = append(ucOpts, usecase.WithRateLimiter(limiter))
			}

			photos, err := storageCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure photo storage")
			}
			if photos != nil {
				defer safe.Close(ctx, photos)
				ucOpts = append(ucOpts, usecase.WithPhotoStorage(photos))
			}

			uc := usecase.New(repo, ucOpts...)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "no_auth", authCfg.IsNoAuthMode())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Notifications dispatched by the last requests
				if !async.Wait(10 * time.Second) {
					logging.Default().Warn("Timed out waiting for background notifications")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
