// Package batch accumulates measurements for one reporting cycle and splits
// them into size-bounded chunks for dispatch.
package batch

import models "github.com/Schera-ole/librato/internal/model"

// DefaultMaxSize is the chunk size used when none is configured.
const DefaultMaxSize = 500

// Accumulator collects measurements and emits chunks of at most maxSize
// records each, preserving insertion order within and across chunks.
//
// Chunking is purely size-based: related measurements (a timer's rate and
// distribution records, for example) may land in different chunks, which is
// acceptable because every chunk is an independent request from the remote
// system's point of view.
type Accumulator struct {
	maxSize      int
	measurements []models.Measurement
}

// NewAccumulator creates an Accumulator. A non-positive maxSize selects
// DefaultMaxSize.
func NewAccumulator(maxSize int) *Accumulator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Accumulator{maxSize: maxSize}
}

// Add appends one measurement to the current batch.
func (a *Accumulator) Add(m models.Measurement) {
	a.measurements = append(a.measurements, m)
}

// AddAll appends measurements in order.
func (a *Accumulator) AddAll(ms []models.Measurement) {
	a.measurements = append(a.measurements, ms...)
}

// Len reports how many measurements the batch currently holds.
func (a *Accumulator) Len() int {
	return len(a.measurements)
}

// Finish splits the accumulated batch into chunks of at most maxSize
// measurements and resets the accumulator. An empty batch yields no chunks.
func (a *Accumulator) Finish() [][]models.Measurement {
	var chunks [][]models.Measurement
	for start := 0; start < len(a.measurements); start += a.maxSize {
		end := start + a.maxSize
		if end > len(a.measurements) {
			end = len(a.measurements)
		}
		chunks = append(chunks, a.measurements[start:end])
	}
	a.measurements = nil
	return chunks
}
