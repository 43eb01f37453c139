// Package models defines the data structures exchanged between the reporter and the Librato API.
package models

import (
	internalerrors "github.com/Schera-ole/librato/internal/errors"
)

const (
	// Gauge marks a measurement carrying a point-in-time value or a distribution summary.
	Gauge = "gauge"

	// Counter marks a measurement carrying a monotonic count.
	Counter = "counter"
)

// Measurement is the normalized unit of data sent to the remote system.
//
// A measurement is either a single-valued record (Value set) or a
// distribution summary (Count/Sum/Min/Max/SumSquares set). The Kind field
// decides which top-level array of the outbound payload it lands in and is
// never serialized itself.
type Measurement struct {
	// Name is the sanitized identifier for the measurement
	Name string `json:"name"`

	// Kind is either "gauge" or "counter"
	Kind string `json:"-"`

	// Value is the single numeric value (omitted for distribution summaries)
	Value *float64 `json:"value,omitempty"`

	// Count is the number of samples in a distribution summary
	Count *int64 `json:"count,omitempty"`

	// Sum is the sum of all samples in a distribution summary
	Sum *float64 `json:"sum,omitempty"`

	// Min is the smallest sample in a distribution summary
	Min *float64 `json:"min,omitempty"`

	// Max is the largest sample in a distribution summary
	Max *float64 `json:"max,omitempty"`

	// SumSquares is the sum of squared samples, used by the remote system
	// to reconstruct variance
	SumSquares *float64 `json:"sum_squares,omitempty"`
}

// NewGauge creates a single-valued gauge measurement.
func NewGauge(name string, value float64) Measurement {
	return Measurement{Name: name, Kind: Gauge, Value: &value}
}

// NewCounter creates a counter measurement.
func NewCounter(name string, value float64) Measurement {
	return Measurement{Name: name, Kind: Counter, Value: &value}
}

// NewDistribution creates a gauge measurement carrying a distribution summary.
func NewDistribution(name string, count int64, sum, min, max, sumSquares float64) Measurement {
	return Measurement{
		Name:       name,
		Kind:       Gauge,
		Count:      &count,
		Sum:        &sum,
		Min:        &min,
		Max:        &max,
		SumSquares: &sumSquares,
	}
}

// Validate checks the numeric invariants of a measurement.
//
// Distribution summaries must have a non-negative count, a non-negative sum
// of squares, and min not exceeding max.
func (m Measurement) Validate() error {
	if m.Count != nil && *m.Count < 0 {
		return internalerrors.ErrInvalidMeasurement
	}
	if m.SumSquares != nil && *m.SumSquares < 0 {
		return internalerrors.ErrInvalidMeasurement
	}
	if m.Min != nil && m.Max != nil && *m.Min > *m.Max {
		return internalerrors.ErrInvalidMeasurement
	}
	return nil
}

// Payload is the JSON document posted to the ingestion endpoint.
//
// Measurements are split by kind into the two top-level arrays. Source and
// MeasureTime apply to every record in the document.
type Payload struct {
	// Gauges holds all gauge-kind measurements
	Gauges []Measurement `json:"gauges"`

	// Counters holds all counter-kind measurements
	Counters []Measurement `json:"counters"`

	// Source identifies the reporting process or host
	Source string `json:"source,omitempty"`

	// MeasureTime is the batch timestamp in seconds since epoch
	MeasureTime int64 `json:"measure_time"`
}

// NewPayload splits measurements by kind into an outbound payload.
func NewPayload(measurements []Measurement, source string, measureTime int64) Payload {
	payload := Payload{
		Gauges:      make([]Measurement, 0, len(measurements)),
		Counters:    make([]Measurement, 0),
		Source:      source,
		MeasureTime: measureTime,
	}
	for _, m := range measurements {
		switch m.Kind {
		case Counter:
			payload.Counters = append(payload.Counters, m)
		default:
			payload.Gauges = append(payload.Gauges, m)
		}
	}
	return payload
}

// StoredMeasurement is a flattened measurement as kept by the sink's storage.
//
// Counters accumulate across batches; gauges keep the latest value.
// Distribution summaries are flattened to their mean before storage.
type StoredMeasurement struct {
	// Name is the measurement identifier
	Name string `json:"name"`

	// Kind is either "gauge" or "counter"
	Kind string `json:"kind"`

	// Value is the stored numeric value
	Value float64 `json:"value"`
}

// AuditEvent represents an audit log entry for ingested measurement batches.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Measurements is a list of measurement names in the ingested batch
	Measurements []string `json:"measurements"`

	// IPAddress is the IP address of the client that sent the batch
	IPAddress string `json:"ip_address"`
}
