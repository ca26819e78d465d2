package database

import (
	"fmt"
	"os"

	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	logModel "dispatch-board/models/log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models
func autoMigrate(db *gorm.DB) error {
	// Stage 1: Core models
	stage1Models := []interface{}{
		&departureModel.Departure{},
	}

	for _, model := range stage1Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Models referencing Stage 1
	stage2Models := []interface{}{
		&departureModel.DepartureEvent{},
	}

	for _, model := range stage2Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Remaining models
	remainingModels := []interface{}{
		// Logging
		&logModel.Log{},
	}

	for _, model := range remainingModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// MigrateForTest runs the same migrations against an arbitrary connection.
// Used by tests that run on an in-memory store.
func MigrateForTest(db *gorm.DB) error {
	return autoMigrate(db)
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	// Departure indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departures_collection_time ON departures(collection_time)").Error; err != nil {
		return fmt.Errorf("failed to create departure collection_time index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departures_status ON departures(status)").Error; err != nil {
		return fmt.Errorf("failed to create departure status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departures_carrier ON departures(carrier)").Error; err != nil {
		return fmt.Errorf("failed to create departure carrier index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departures_schedule_number ON departures(schedule_number)").Error; err != nil {
		return fmt.Errorf("failed to create departure schedule_number index: %w", err)
	}

	// Departure event indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departure_events_departure_id ON departure_events(departure_id)").Error; err != nil {
		return fmt.Errorf("failed to create departure event departure_id index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_departure_events_event_type ON departure_events(event_type)").Error; err != nil {
		return fmt.Errorf("failed to create departure event event_type index: %w", err)
	}

	// Log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_method ON logs(method)").Error; err != nil {
		return fmt.Errorf("failed to create log method index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)").Error; err != nil {
		return fmt.Errorf("failed to create log status_code index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create log created_at index: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
