package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
)

// DBStorage implements the Repository interface backed by PostgreSQL.
type DBStorage struct {
	db *sql.DB
}

// NewDBStorage opens a connection pool for the given DSN.
func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBStorage{db: dbConnect}, nil
}

// Close releases the underlying connection pool.
func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

// SetMeasurements stores a batch of measurements in one transaction.
func (storage *DBStorage) SetMeasurements(ctx context.Context, measurements []models.StoredMeasurement) error {
	tx, err := storage.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (name, kind, value, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			value = CASE WHEN measurements.kind = 'counter'
				THEN measurements.value + EXCLUDED.value
				ELSE EXCLUDED.value END,
			updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("error preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range measurements {
		if _, err := stmt.ExecContext(ctx, m.Name, m.Kind, m.Value); err != nil {
			return fmt.Errorf("error saving measurement %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// SetMeasurement stores a single measurement.
func (storage *DBStorage) SetMeasurement(ctx context.Context, name string, value float64, kind string) error {
	return storage.SetMeasurements(ctx, []models.StoredMeasurement{{Name: name, Kind: kind, Value: value}})
}

// GetMeasurement retrieves a single measurement by name.
func (storage *DBStorage) GetMeasurement(ctx context.Context, name string) (models.StoredMeasurement, error) {
	var kind string
	var value float64

	query := "SELECT kind, value FROM measurements WHERE name = $1"
	err := storage.db.QueryRowContext(ctx, query, name).Scan(&kind, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.StoredMeasurement{}, internalerrors.ErrMeasurementNotFound
		}
		return models.StoredMeasurement{}, fmt.Errorf("error retrieving measurement: %w", err)
	}
	return models.StoredMeasurement{Name: name, Kind: kind, Value: value}, nil
}

// ListMeasurements retrieves all stored measurements.
func (storage *DBStorage) ListMeasurements(ctx context.Context) ([]models.StoredMeasurement, error) {
	var result []models.StoredMeasurement
	query := "SELECT name, kind, value FROM measurements"
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving measurements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StoredMeasurement
		if err = rows.Scan(&m.Name, &m.Kind, &m.Value); err != nil {
			return nil, fmt.Errorf("error scanning measurement: %w", err)
		}
		result = append(result, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over measurements: %w", err)
	}
	return result, nil
}

// DeleteMeasurement removes a measurement by name.
func (storage *DBStorage) DeleteMeasurement(ctx context.Context, name string) error {
	query := "DELETE FROM measurements WHERE name = $1"
	if _, err := storage.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("error deleting measurement: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (storage *DBStorage) Ping(ctx context.Context) error {
	if err := storage.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
