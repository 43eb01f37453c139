package repository

import (
	"context"
	"sync"

	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// gauges stores gauge measurements as name -> value pairs
	gauges map[string]float64

	// counters stores accumulated counter measurements
	counters map[string]float64

	// kinds stores the measurement kind for each name
	kinds map[string]string
}

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		gauges:   make(map[string]float64),
		counters: make(map[string]float64),
		kinds:    make(map[string]string),
	}
}

// SetMeasurement stores a single measurement in memory.
//
// For counters, the value is added to the existing counter (or a new one is
// created). For gauges, the existing value is replaced.
func (ms *MemStorage) SetMeasurement(ctx context.Context, name string, value float64, kind string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.set(name, value, kind)
}

// set assumes the caller holds the write lock.
func (ms *MemStorage) set(name string, value float64, kind string) error {
	switch kind {
	case models.Counter:
		ms.counters[name] += value
		ms.kinds[name] = kind
	case models.Gauge:
		ms.gauges[name] = value
		ms.kinds[name] = kind
	default:
		return internalerrors.ErrUnknownKind
	}
	return nil
}

// SetMeasurements stores a batch of measurements under one lock acquisition.
func (ms *MemStorage) SetMeasurements(ctx context.Context, measurements []models.StoredMeasurement) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, m := range measurements {
		if err := ms.set(m.Name, m.Value, m.Kind); err != nil {
			return err
		}
	}
	return nil
}

// GetMeasurement retrieves a single measurement by name.
func (ms *MemStorage) GetMeasurement(ctx context.Context, name string) (models.StoredMeasurement, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	kind, exists := ms.kinds[name]
	if !exists {
		return models.StoredMeasurement{}, internalerrors.ErrMeasurementNotFound
	}
	switch kind {
	case models.Gauge:
		return models.StoredMeasurement{Name: name, Kind: kind, Value: ms.gauges[name]}, nil
	case models.Counter:
		return models.StoredMeasurement{Name: name, Kind: kind, Value: ms.counters[name]}, nil
	}
	return models.StoredMeasurement{}, internalerrors.ErrUnknownKind
}

// ListMeasurements returns all measurements stored in memory.
func (ms *MemStorage) ListMeasurements(ctx context.Context) ([]models.StoredMeasurement, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result := make([]models.StoredMeasurement, 0, len(ms.kinds))
	for name, kind := range ms.kinds {
		switch kind {
		case models.Gauge:
			result = append(result, models.StoredMeasurement{Name: name, Kind: kind, Value: ms.gauges[name]})
		case models.Counter:
			result = append(result, models.StoredMeasurement{Name: name, Kind: kind, Value: ms.counters[name]})
		}
	}
	return result, nil
}

// DeleteMeasurement removes a measurement from all maps.
func (ms *MemStorage) DeleteMeasurement(ctx context.Context, name string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.gauges, name)
	delete(ms.counters, name)
	delete(ms.kinds, name)
	return nil
}

// Ping always succeeds for in-memory storage.
func (ms *MemStorage) Ping(ctx context.Context) error {

	return nil
}
