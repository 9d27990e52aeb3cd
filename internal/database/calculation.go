package database

import (
	"database/sql"
	"fmt"
	"time"

	"aviation_calculator/internal/models"
)

type CalculationRepository interface {
	InsertBatch(calcs []*models.Calculation) error
	Recent(limit int) ([]*models.Calculation, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type calculationRepository struct {
	db *sql.DB
}

func NewCalculationRepository(db *sql.DB) CalculationRepository {
	return &calculationRepository{db: db}
}

// InsertBatch inserts one or more calculations in a single transaction.
// Records whose ID already exists are ignored.
func (r *calculationRepository) InsertBatch(calcs []*models.Calculation) error {
	if len(calcs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO calculations (
		id, created_at, source, engine, mass_kg, pressure_altitude_ft,
		temperature_c, slope_pct, grass, contamination,
		ground_roll_m, distance_to_50ft_m, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range calcs {
		var grass sql.NullString
		if c.Grass != nil {
			grass = sql.NullString{String: *c.Grass, Valid: true}
		}

		if _, err := stmt.Exec(
			c.ID, c.CreatedAt.UnixNano(), c.Source, c.Engine, c.MassKg,
			c.PressureAltitudeFt, c.TemperatureC, c.SlopePct, grass,
			c.Contamination, c.GroundRollM, c.DistanceTo50FtM, c.Error,
		); err != nil {
			return fmt.Errorf("failed to insert calculation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Recent returns up to limit calculations, newest first
func (r *calculationRepository) Recent(limit int) ([]*models.Calculation, error) {
	rows, err := r.db.Query(`SELECT
		id, created_at, source, engine, mass_kg, pressure_altitude_ft,
		temperature_c, slope_pct, grass, contamination,
		ground_roll_m, distance_to_50ft_m, error
	FROM calculations
	ORDER BY created_at DESC, id
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var calcs []*models.Calculation
	for rows.Next() {
		var (
			c         models.Calculation
			createdAt int64
			grass     sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &createdAt, &c.Source, &c.Engine, &c.MassKg,
			&c.PressureAltitudeFt, &c.TemperatureC, &c.SlopePct, &grass,
			&c.Contamination, &c.GroundRollM, &c.DistanceTo50FtM, &c.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		c.CreatedAt = time.Unix(0, createdAt).UTC()
		if grass.Valid {
			c.Grass = &grass.String
		}
		calcs = append(calcs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calculations: %w", err)
	}

	return calcs, nil
}

// DeleteOlderThan removes calculations created before cutoff and returns the
// number of deleted rows
func (r *calculationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM calculations WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete calculations: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
