package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dragonsofash/FitnessTrackerBackend/internal/api"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/auth"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/config"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/domain"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/logger"
	"github.com/Dragonsofash/FitnessTrackerBackend/internal/persistence/postgres"
	httptransport "github.com/Dragonsofash/FitnessTrackerBackend/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(cfg.DatabaseURL, slogger); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	service := domain.NewService(
		postgres.NewRoutineStore(pool, slogger),
		postgres.NewActivityStore(pool, slogger),
		postgres.NewRoutineActivityStore(pool, slogger),
		slogger,
	)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret})

	router := chi.NewRouter()
	router.Use(api.RequestLogger(slogger))
	router.Handle("/metrics", promhttp.Handler())

	handler := api.NewHandler(service, slogger)
	handler.RegisterRoutes(router, authMiddleware)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, router)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slogger.Info("fitness tracker listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("graceful shutdown failed", "error", err)
	}
}
