package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/disaster-alert-service/internal/adapter/http"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
	"github.com/couchcryptid/disaster-alert-service/internal/scheduler"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic alert check",
		Long: `Serve starts the HTTP API on HTTP_ADDR and runs an alert check for the
configured USER_LAT/USER_LON every CHECK_INTERVAL. Notifications go to the log
or to Kafka depending on NOTIFIER.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadApp()
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	a, err := newApp(cfg, logger, metrics, appOptions{useKafka: true, archive: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}()

	if cfg.UserPosition == nil {
		logger.Warn("USER_LAT/USER_LON not set, scheduled checks will report a location error")
	}
	sched := scheduler.New(cfg.CheckInterval, a.engine, a.engine, clockwork.NewRealClock(), logger, metrics)

	api := httpadapter.API{Aggregator: a.aggregator, Alerts: a.engine}
	if a.archive != nil {
		api.Archive = a.archive
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, sched, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
