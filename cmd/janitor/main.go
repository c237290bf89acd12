package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/janitor"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

func main() {
	full := flag.Bool("full", false, "also purge soft deleted rows")
	flag.Parse()

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

	jan := janitor.NewJanitor(cfg, db, true)

	if *full {
		jan.RunFull()
		return
	}
	jan.RunShort()
}
