package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/systemshift/biograph/internal/config"
	"github.com/systemshift/biograph/internal/logger"
	"github.com/systemshift/biograph/internal/server/api"
	"github.com/systemshift/biograph/internal/server/graph"
)

func main() {
	configPath := flag.String("config", os.Getenv("BIOGRAPH_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// Load configuration from file and environment
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, os.Stderr)
	if err != nil {
		logger.Default().Error("failed to create logger", "error", err)
		os.Exit(1)
	}
	logger.SetLogger(log)

	// Initialize Neo4j store
	ctx := context.Background()
	store, err := graph.New(ctx, cfg.Store(), log)
	if err != nil {
		log.Error("failed to connect to Neo4j", "uri", cfg.Neo4j.URI, "error", err)
		os.Exit(1)
	}
	defer store.Close(ctx)

	log.Info("connected to Neo4j", "uri", cfg.Neo4j.URI, "database", cfg.Neo4j.Database)

	if err := store.EnsureIndexes(ctx); err != nil {
		log.Warn("failed to create indexes", "error", err)
	}

	// Setup HTTP router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	api.New(store, log).Register(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting biograph server", "addr", "http://localhost:"+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
