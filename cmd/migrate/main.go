package main

import (
	"digicoop/internal/config" // Custom import path (Config)
	"digicoop/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Create or update every table
}
