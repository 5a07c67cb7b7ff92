package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name: "sqlite",
	createTable: `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at DATETIME NOT NULL,
		water_level REAL NOT NULL,
		percentage REAL NOT NULL,
		rain_humidity INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_recorded_at ON readings(recorded_at);`,
	insert: `
		INSERT INTO readings(recorded_at, water_level, percentage, rain_humidity)
		VALUES(?, ?, ?, ?)`,
	selectAll: `
		SELECT id, recorded_at, water_level, percentage, rain_humidity
		FROM readings
		ORDER BY recorded_at DESC, id DESC`,
	purge: `DELETE FROM readings WHERE recorded_at < ?`,
}

// NewSQLiteReadingStore opens (and creates if needed) the SQLite database at dbPath
func NewSQLiteReadingStore(dbPath string) (*SQLReadingStore, error) {
	if dbPath == "" {
		// Set default path if not specified
		dbDir := "data"
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
		dbPath = filepath.Join(dbDir, "tank_levels.db")
	}

	log.Printf("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	return newSQLReadingStore(db, sqliteDialect)
}
