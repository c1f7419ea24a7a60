package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ad2image/pkg/cli/config"
	httpctrl "github.com/secmon-lab/ad2image/pkg/controller/http"
	"github.com/secmon-lab/ad2image/pkg/metrics"
	"github.com/secmon-lab/ad2image/pkg/service/avatar"
	"github.com/secmon-lab/ad2image/pkg/service/worker"
	"github.com/secmon-lab/ad2image/pkg/usecase"
	"github.com/secmon-lab/ad2image/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var appFile config.AppFile
	var dirCfg config.Directory
	var photoCfg config.Photo
	var avatarCfg config.Avatar
	var cacheCfg config.Cache
	var gravatarCfg config.Gravatar

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("AD2IMAGE_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, appFile.Flags()...)
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, photoCfg.Flags()...)
	flags = append(flags, avatarCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, gravatarCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			appCfg, err := appFile.Load()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			defaultMode, err := avatarCfg.DefaultMode()
			if err != nil {
				return err
			}
			if err := gravatarCfg.Validate(); err != nil {
				return err
			}

			directory, err := dirCfg.Configure(appCfg)
			if err != nil {
				return err
			}
			nativeSize, err := dirCfg.PhotoSize()
			if err != nil {
				return err
			}
			photo, err := photoCfg.Configure()
			if err != nil {
				return err
			}

			store, closeStore, err := cacheCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize avatar cache")
			}
			defer closeStore()

			logger.Info("Configuration loaded",
				"config", appFile.Path(),
				"directory", dirCfg,
				"photo", photoCfg,
				"avatar", avatarCfg,
				"cache", cacheCfg,
				"gravatar", gravatarCfg,
			)

			m := metrics.New()
			uc := usecase.New(directory, photo, avatar.New(),
				usecase.WithAvatarStore(store),
				usecase.WithMetrics(m),
				usecase.WithHashIndexOptions(gravatarCfg.HashIndexOptions()...),
				usecase.WithResolverOptions(usecase.WithNativeSize(nativeSize)),
			)

			// The hash index must be complete before the first gravatar request
			var refreshWorker *worker.HashIndexRefreshWorker
			if gravatarCfg.Enabled() {
				if err := uc.HashIndex.Populate(ctx); err != nil {
					return goerr.Wrap(err, "failed to populate hash index")
				}

				refreshWorker, err = worker.NewHashIndexRefreshWorker(uc.HashIndex, gravatarCfg.RefreshSchedule())
				if err != nil {
					return goerr.Wrap(err, "failed to create hash index refresh worker")
				}
				if err := refreshWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start hash index refresh worker")
				}
			}

			httpHandler, err := httpctrl.New(uc,
				httpctrl.WithDefaultMode(defaultMode),
				httpctrl.WithGravatar(gravatarCfg.Enabled()),
				httpctrl.WithMetrics(m),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr, "gravatar", gravatarCfg.Enabled())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if refreshWorker != nil {
					refreshWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				// Stop the refresh worker first
				if refreshWorker != nil {
					refreshWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
