package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDatabase establishes a connection to the database.
// PostgreSQL is used in production; a sqlite DSN (the original
// development default) is also accepted.
func ConnectDatabase() error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// Fallback to a local sqlite file for development
		databaseURL = "sqlite://chickorder.db"
		log.Println("DATABASE_URL not set, using default:", databaseURL)
	}

	var err error
	DB, err = gorm.Open(openDialector(databaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// openDialector picks the GORM driver matching the DSN scheme.
func openDialector(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "sqlite://") {
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	}
	return postgres.Open(databaseURL)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
