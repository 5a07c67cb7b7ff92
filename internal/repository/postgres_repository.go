package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name: "postgres",
	createTable: `
	CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		water_level DOUBLE PRECISION NOT NULL,
		percentage DOUBLE PRECISION NOT NULL,
		rain_humidity INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON readings(recorded_at);`,
	insert: `
		INSERT INTO readings(recorded_at, water_level, percentage, rain_humidity)
		VALUES($1, $2, $3, $4)`,
	selectAll: `
		SELECT id, recorded_at, water_level, percentage, rain_humidity
		FROM readings
		ORDER BY recorded_at DESC, id DESC`,
	purge: `DELETE FROM readings WHERE recorded_at < $1`,
}

// NewPostgresReadingStore connects to Postgres and makes sure the readings table exists
func NewPostgresReadingStore(ctx context.Context, dsn string) (*SQLReadingStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store: DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("Connected to postgres")

	return newSQLReadingStore(db, postgresDialect)
}
