package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voice-insight/pkg/api"
	"voice-insight/pkg/classifier"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/metrics"
	"voice-insight/pkg/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	log := logger.Named("server")

	if err := ensureDirs(cfg); err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mm := metrics.NewManager(metrics.WithProcessCollectors())
	manager := pipeline.NewManager(cfg, store, classifier.NewRandomClassifier(nil), logger.Get(),
		pipeline.WithMetrics(mm))
	handlers := api.NewHandlers(manager, logger.Get())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(cfg, handlers, mm, logger.Get()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting",
			logger.String("addr", cfg.Server.Addr),
			logger.String("upload_dir", cfg.Storage.UploadDir),
			logger.String("graph_dir", cfg.Storage.GraphDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "server failed", logger.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server forced to shutdown", logger.Error(err))
		return err
	}
	log.Info(ctx, "server exited")
	return nil
}
