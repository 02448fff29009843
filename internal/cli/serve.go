package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/forPelevin/clipfeed/internal/logging"
	"github.com/forPelevin/clipfeed/internal/server"
)

const shutdownGrace = 2 * time.Minute

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.newApp()
			if err != nil {
				return err
			}
			defer app.Close()
			cfg := app.Config()
			logger := logging.WithComponent(ctx.logger, "serve")

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another clipfeed server is running (lock %s)", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn().Err(err).Msg("failed to release lock")
				}
			}()

			addr := cfg.Server.Bind
			if bind != "" {
				addr = bind
			}
			runner := server.NewRunner(app, cfg.Server.MaxConcurrentRuns, cfg.Server.RetainedReports, ctx.logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewRouter(runner, server.RouterOptions{
					DefaultUpload: cfg.Pipeline.Upload,
					WatermarkDir:  cfg.Server.WatermarkDir,
				}, ctx.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-sigCtx.Done():
			}

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("http shutdown")
			}
			if err := runner.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("waiting for in-flight runs: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config or PORT)")
	return cmd
}
