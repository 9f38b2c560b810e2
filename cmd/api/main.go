package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doorstep/internal/config"
	"doorstep/internal/database"
	"doorstep/internal/pkg/obs"
	"doorstep/internal/repository"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProdLike() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, "doorstep-api", cfg.OTelEndpoint, cfg.AppEnv)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	a, err := newApp(cfg, db, log)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(cfg.WarrantySweepSchedule, func() {
		n, err := a.warranties.ExpireDue(context.Background())
		if err != nil {
			log.Error("warranty sweep failed", "error", err)
			return
		}
		log.Info("warranty sweep", "expired", n)
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
