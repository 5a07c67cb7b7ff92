// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/abelzeko/tank-monitor/internal/entities"
)

// ReadingStore defines the durable store operations the pipeline and the history views depend on
type ReadingStore interface {
	Append(ctx context.Context, rec entities.PersistedRecord) error
	QueryAll(ctx context.Context) ([]entities.PersistedRecord, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
	Close() error
}

// StoreError wraps a failed store operation
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// dialect holds the statements that differ between database engines
type dialect struct {
	name        string
	createTable string
	insert      string
	selectAll   string
	purge       string
}

// SQLReadingStore implements ReadingStore on top of database/sql.
// Every statement runs under mu, so the handle is never used by two goroutines at once.
type SQLReadingStore struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLReadingStore(db *sql.DB, d dialect) (*SQLReadingStore, error) {
	if _, err := db.Exec(d.createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}
	return &SQLReadingStore{db: db, dialect: d, now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLReadingStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores one record. Timestamps are kept in UTC at second resolution.
func (s *SQLReadingStore) Append(ctx context.Context, rec entities.PersistedRecord) error {
	var humidity sql.NullInt64
	if rec.RainHumidity.Valid {
		humidity = sql.NullInt64{Int64: int64(rec.RainHumidity.Value), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.dialect.insert,
		storedTime(rec.Timestamp),
		rec.WaterLevelCM,
		rec.TankPercentage,
		humidity,
	)
	if err != nil {
		return &StoreError{Op: "insert reading", Err: err}
	}
	return nil
}

// QueryAll returns every stored record, most recent first
func (s *SQLReadingStore) QueryAll(ctx context.Context) ([]entities.PersistedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, s.dialect.selectAll)
	if err != nil {
		return nil, &StoreError{Op: "query readings", Err: err}
	}
	defer rows.Close()

	var result []entities.PersistedRecord
	for rows.Next() {
		var (
			rec      entities.PersistedRecord
			humidity sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.WaterLevelCM,
			&rec.TankPercentage,
			&humidity,
		); err != nil {
			return nil, &StoreError{Op: "scan reading", Err: err}
		}
		if humidity.Valid {
			rec.RainHumidity = entities.KnownHumidity(int(humidity.Int64))
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "iterate readings", Err: err}
	}

	return result, nil
}

// PurgeOlderThan deletes records recorded more than age ago and returns how many were removed
func (s *SQLReadingStore) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := storedTime(s.now().Add(-age))

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.dialect.purge, cutoff)
	if err != nil {
		return 0, &StoreError{Op: "purge readings", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "count purged readings", Err: err}
	}

	log.Printf("Purged %d %s readings older than %s", n, s.dialect.name, cutoff.Format(time.RFC3339))
	return n, nil
}

func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Config selects and configures a store implementation
type Config struct {
	Driver string // "sqlite3" (default) or "postgres"
	Path   string // SQLite database file
	DSN    string // Postgres connection string
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg Config) (*SQLReadingStore, error) {
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		return NewSQLiteReadingStore(cfg.Path)
	case "postgres", "postgresql":
		return NewPostgresReadingStore(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

var _ ReadingStore = (*SQLReadingStore)(nil)
