// Package repository provides the sink's storage backends for ingested
// measurements.
package repository

import (
	"context"

	models "github.com/Schera-ole/librato/internal/model"
)

// Repository is the storage contract shared by the in-memory and PostgreSQL
// backends.
type Repository interface {
	// SetMeasurement stores one measurement. Counters accumulate across
	// batches, gauges replace the previous value.
	SetMeasurement(ctx context.Context, name string, value float64, kind string) error

	// SetMeasurements stores a batch of measurements in one operation.
	SetMeasurements(ctx context.Context, measurements []models.StoredMeasurement) error

	// GetMeasurement retrieves one measurement by name.
	GetMeasurement(ctx context.Context, name string) (models.StoredMeasurement, error)

	// ListMeasurements retrieves every stored measurement.
	ListMeasurements(ctx context.Context) ([]models.StoredMeasurement, error)

	// DeleteMeasurement removes one measurement by name.
	DeleteMeasurement(ctx context.Context, name string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
