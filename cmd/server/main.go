package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/CLDWare/evaluations-backend/api"
	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/cache"
	"github.com/CLDWare/evaluations-backend/internal/janitor"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

//	@title			Evaluations API
//	@version		1.0
//	@description	Sessions, responses and administration of teacher evaluation surveys
//	@BasePath		/

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Info(".env file not found, proceeding with environment variables")
	}

	// Force reload configuration after .env is loaded
	config.ForceReload()

	// Initialize logger with the updated configuration
	logger.Init()

	// Load configuration
	cfg := config.Get()

	// Initialise Database
	db, err := models.InitialiseDatabase(cfg)
	if err != nil {
		logger.Err(err)
		os.Exit(1)
	}

	// Create interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Create API instance
	apiInstance := api.NewAPI(db)
	go apiInstance.Hub.Run(ctx)

	// Seed admin accounts
	if _, err := apiInstance.Auth.EnsureAdmins(ctx, cfg.Admin.Emails, cfg.Admin.Password); err != nil {
		logger.Err(err)
		os.Exit(1)
	}

	// Survey definition cache, optional
	redisClient, err := cache.Connect(ctx, cfg)
	if err != nil {
		logger.Warn(err, "- continuing without cache")
	} else if redisClient != nil {
		defer redisClient.Close()
		apiInstance.Evaluation.SetCache(cache.NewDefinitionCache(redisClient, cfg.Cache.TTL))
		logger.Info("Caching survey definitions in redis at", cfg.Cache.RedisAddr)
	}

	// Initialize the janitor
	jan := janitor.NewJanitor(cfg, db, false)
	jan.SetInvalidator(apiInstance.Evaluation.InvalidateDefinition)
	jan.Start()
	defer jan.Stop()

	// Create mux with routes
	mux := apiInstance.CreateMux()

	// Apply middleware
	handler := api.ApplyMiddleware(mux)

	// Server configuration
	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server on", server.Addr)
		logger.Info("Environment:", cfg.App.Environment)
		logger.Info("Debug mode:", cfg.App.Debug)
		logger.Info("Application:", cfg.App.Name, "v"+cfg.App.Version)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Err("Server failed to start:", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Err("Server forced to shutdown:", err)
		os.Exit(1)
	}

	logger.Info("Server exited")
}
