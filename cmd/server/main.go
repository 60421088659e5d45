package main

import (
	"context"
	"path/filepath"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	"github.com/RohitKattimani/MedReadApp/internal/database"
	logger "github.com/RohitKattimani/MedReadApp/internal/logging"
	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/router"
	"github.com/RohitKattimani/MedReadApp/internal/services"

	"go.uber.org/zap"
)

func main() {
	projectRoot := "."

	// Initialize Logger
	log, err := logger.Init(projectRoot)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize configuration
	if err := config.Init(projectRoot, log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Database
	database.Init(log)

	// Load diagnosis category presets at startup
	categories, err := models.LoadCategories(filepath.Join(projectRoot, "config", "categories.yaml"))
	if err != nil {
		log.Warn("Failed to load categories file, using defaults", zap.Error(err))
		categories = models.DefaultCategories()
	}

	// Background cleanup of expired tokens and abandoned sessions
	scheduler := services.NewScheduler(log)
	scheduler.Start(context.Background())

	// Setup router, passing the logger to it
	r := router.Setup(log, categories)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
