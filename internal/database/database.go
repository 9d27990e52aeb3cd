package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Repository defines the storage operations used by the daemon and the CLI
type Repository interface {
	CalculationRepository() CalculationRepository
	Close() error
}

// DB implements the Repository interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite applies pragmas for a single writer with concurrent readers
func optimizeSQLite(db *sql.DB) error {
	pragmas := []struct {
		stmt string
		desc string
	}{
		// WAL lets the API read history while the collector writes
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA synchronous=NORMAL", "set synchronous mode"},
		{"PRAGMA temp_store=MEMORY", "set temp_store"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			return fmt.Errorf("failed to %s: %w", p.desc, err)
		}
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// CalculationRepository returns the repository for takeoff calculations
func (d *DB) CalculationRepository() CalculationRepository {
	return NewCalculationRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	calculationsSchema := `CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		source TEXT NOT NULL,
		engine TEXT NOT NULL,
		mass_kg REAL NOT NULL,
		pressure_altitude_ft REAL NOT NULL,
		temperature_c REAL NOT NULL,
		slope_pct REAL NOT NULL,
		grass TEXT,
		contamination TEXT NOT NULL,
		ground_roll_m REAL NOT NULL,
		distance_to_50ft_m REAL NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_calculations_engine ON calculations(engine)`,
	}

	if _, err := d.db.Exec(calculationsSchema); err != nil {
		return fmt.Errorf("failed to create calculations table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
