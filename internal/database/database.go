package database

import (
	"fmt"

	"github.com/RohitKattimani/MedReadApp/internal/config"
	logging "github.com/RohitKattimani/MedReadApp/internal/logging"
	"github.com/RohitKattimani/MedReadApp/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	// Create our custom GORM logger
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Info

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.User{},
		&models.UserSession{},
		&models.Image{},
		&models.DriveFolder{},
		&models.ReadingSession{},
		&models.SessionResponse{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	responsesIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_responses_once_per_image ON session_responses (session_id, image_id);`
	if err := DB.Exec(responsesIndex).Error; err != nil {
		log.Fatal("Failed to create unique index on responses table", zap.Error(err))
	}
	sessionsIndex := `CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON reading_sessions (user_id, started_at DESC);`
	if err := DB.Exec(sessionsIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on sessions table", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
