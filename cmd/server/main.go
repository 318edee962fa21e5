package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/andreaspandu8619/mastercreator/pkg/config"
	"github.com/andreaspandu8619/mastercreator/pkg/di"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
	"github.com/andreaspandu8619/mastercreator/pkg/router"
	"github.com/andreaspandu8619/mastercreator/shared/observability"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting mastercreator", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// Observability (metrics + tracing); optional, never fatal
	shutdownObs, err := observability.Setup(context.Background())
	if err != nil {
		log.LogError(err, "Observability setup failed, continuing without it")
		shutdownObs = func(context.Context) error { return nil }
	}

	// Build the container. Storage failures degrade to in-memory mode
	// instead of aborting startup.
	container, err := di.New(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	if container.Degraded {
		log.Warn("Running in degraded mode: changes will not survive a restart")
	}

	// Legacy migration and collection hydration must finish before the
	// server accepts requests; an empty collection served mid-load would
	// read as no data.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 60*time.Second)
	if err := container.Init(initCtx); err != nil {
		log.LogError(err, "Failed to load collections")
		os.Exit(1)
	}
	cancelInit()

	container.Health.Start()

	r := router.New(container)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shut down")
	}
	if err := shutdownObs(ctx); err != nil {
		log.LogError(err, "Observability shutdown failed")
	}

	log.Info("Server exited")
}
