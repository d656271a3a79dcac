package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsedash/pulse-backend-go/internal/api"
	"github.com/pulsedash/pulse-backend-go/internal/api/handlers"
	"github.com/pulsedash/pulse-backend-go/internal/config"
	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	"github.com/pulsedash/pulse-backend-go/internal/core/refresh"
	"github.com/pulsedash/pulse-backend-go/internal/database"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
	"github.com/pulsedash/pulse-backend-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("Starting Pulse analytics backend")

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.MigrationsPath); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
		log.Info("Database migrations applied")
	}

	repos := database.NewRepositories(db)

	if cfg.Seed.Enabled {
		if err := refresh.LoadSeed(context.Background(), cfg.Seed.Path, repos.Metrics, log); err != nil {
			log.WithError(err).Warn("Failed to load seed data")
		}
	}

	engine, err := analytics.NewEngine(handlers.PipelineConfig(cfg.Analytics), log)
	if err != nil {
		log.WithError(err).Fatal("Invalid analytics configuration")
	}

	hub := websocket.NewHub(log)
	go hub.Run()

	router := api.NewRouter(cfg, db, repos, engine, hub, log)

	refresher := refresh.New(repos, engine, hub, router.Metrics,
		cfg.Analytics.Forecasting.UpdateFrequencyHours, log)
	if err := refresher.Start(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to start insight refresher")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
	log.Info("Server stopped")
}
