// Package service provides the business logic layer for the ingestion sink.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/repository"
)

// IngestService turns inbound payloads into stored measurements.
//
// It delegates persistence to an underlying repository implementation.
type IngestService struct {
	// repository is the underlying data storage implementation
	repository repository.Repository
}

// NewIngestService creates a new IngestService with the specified repository.
func NewIngestService(repo repository.Repository) *IngestService {

	return &IngestService{repository: repo}
}

// Ingest flattens one payload into stored measurements and persists them.
//
// Counters and single-valued gauges keep their value. Distribution summaries
// are flattened to their mean; summaries with a zero count are skipped. The
// returned names are in payload order for audit purposes.
func (s *IngestService) Ingest(ctx context.Context, payload models.Payload) ([]string, error) {

	var prepared []models.StoredMeasurement
	for _, c := range payload.Counters {
		if c.Value == nil {
			continue
		}
		prepared = append(prepared, models.StoredMeasurement{Name: c.Name, Kind: models.Counter, Value: *c.Value})
	}
	for _, g := range payload.Gauges {
		switch {
		case g.Value != nil:
			prepared = append(prepared, models.StoredMeasurement{Name: g.Name, Kind: models.Gauge, Value: *g.Value})
		case g.Count != nil && g.Sum != nil && *g.Count > 0:
			prepared = append(prepared, models.StoredMeasurement{Name: g.Name, Kind: models.Gauge, Value: *g.Sum / float64(*g.Count)})
		}
	}

	if err := s.repository.SetMeasurements(ctx, prepared); err != nil {
		return nil, fmt.Errorf("error storing batch: %w", err)
	}

	names := make([]string, len(prepared))
	for i, m := range prepared {
		names[i] = m.Name
	}
	return names, nil
}

// GetMeasurement retrieves a single measurement by name, delegating to the repository.
func (s *IngestService) GetMeasurement(ctx context.Context, name string) (models.StoredMeasurement, error) {

	return s.repository.GetMeasurement(ctx, name)
}

// ListMeasurements retrieves all measurements, delegating to the repository.
func (s *IngestService) ListMeasurements(ctx context.Context) ([]models.StoredMeasurement, error) {

	return s.repository.ListMeasurements(ctx)
}

// Ping checks the repository connection, delegating to the repository.
func (s *IngestService) Ping(ctx context.Context) error {

	return s.repository.Ping(ctx)
}

// IsMemStorage checks if the underlying repository is a MemStorage implementation.
func (s *IngestService) IsMemStorage() bool {

	_, isMemStorage := s.repository.(*repository.MemStorage)
	return isMemStorage
}

// SaveMeasurements saves all measurements to a file in JSON format.
func (s *IngestService) SaveMeasurements(ctx context.Context, fname string) error {

	file, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	measurements, err := s.repository.ListMeasurements(ctx)
	if err != nil {
		return fmt.Errorf("error listing measurements: %w", err)
	}
	return json.NewEncoder(file).Encode(measurements)
}

// RestoreMeasurements restores measurements from a file.
//
// A missing file is not an error; the sink simply starts empty.
func (s *IngestService) RestoreMeasurements(ctx context.Context, fname string, logger *zap.SugaredLogger) error {

	if _, err := os.Stat(fname); os.IsNotExist(err) {
		logger.Infof("storage file not exists %s", fname)
		return nil
	}

	file, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("error while opening file to restore: %w", err)
	}
	defer file.Close()

	measurements := []models.StoredMeasurement{}
	if err := json.NewDecoder(file).Decode(&measurements); err != nil {
		return fmt.Errorf("error while decoding file store: %w", err)
	}
	return s.repository.SetMeasurements(ctx, measurements)
}
