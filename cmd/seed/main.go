package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/auth"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

// seed fills a development database with the demo survey and the configured admin accounts
func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info(".env file not found, proceeding with environment variables")
	}
	config.ForceReload()
	logger.Init()
	cfg := config.Get()

	db, err := models.InitialiseDatabase(cfg)
	if err != nil {
		logger.Err(err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := models.SeedDummyData(ctx, db); err != nil {
		logger.Err(err)
		os.Exit(1)
	}
	if _, err := auth.NewService(cfg, db).EnsureAdmins(ctx, cfg.Admin.Emails, cfg.Admin.Password); err != nil {
		logger.Err(err)
		os.Exit(1)
	}

	logger.Info("Seeded demo survey at", cfg.PublicSurveyURL(models.DummyLink))
}
