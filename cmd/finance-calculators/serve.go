package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/finance-calculators/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator HTTP API",
		Long: `Serve the JSON HTTP API over the loaded calculators:

  GET    /api/version
  GET    /api/calculators
  GET    /api/calculators/{slug}
  POST   /api/calculators/{slug}/recompute
  POST   /api/calculators/{slug}/seek
  GET    /api/history
  POST   /api/history
  DELETE /api/history`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				a.conf.Server.Address = address
			}
			serverCfg, err := server.NewConfig(a.conf.Server)
			if err != nil {
				return err
			}

			registry, err := a.registry()
			if err != nil {
				return err
			}

			handler := server.NewHandler(a.logger, registry, a.historyStore(), serverCfg.BodySizeBytes(), version)
			httpServer := &http.Server{
				Addr:              serverCfg.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server listening",
					zap.String("op", "main.serve"),
					zap.String("address", serverCfg.Address),
					zap.Int64("maxBodySize", serverCfg.BodySizeBytes()),
					zap.Strings("calculators", registry.Slugs()),
				)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server", zap.String("op", "main.serve"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	return cmd
}
