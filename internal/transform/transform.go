// Package transform converts live metric snapshots into normalized
// measurements.
//
// Each metric kind has its own conversion rules: counters become counter
// measurements, gauges and meters become single-valued gauges, histograms
// become a distribution summary plus per-percentile gauges, and timers
// combine the meter and histogram conversions under one base name.
package transform

import (
	"fmt"

	"github.com/rcrowley/go-metrics"

	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/sanitize"
)

// Percentile pairs a quantile with the name suffix of its sampling record.
type Percentile struct {
	Quantile float64
	Suffix   string
}

// DefaultPercentiles is the sampling policy applied when none is configured.
var DefaultPercentiles = []Percentile{
	{Quantile: 0.5, Suffix: "median"},
	{Quantile: 0.75, Suffix: "75th"},
	{Quantile: 0.95, Suffix: "95th"},
	{Quantile: 0.99, Suffix: "99th"},
	{Quantile: 0.999, Suffix: "999th"},
}

// Transformer converts metric snapshots into measurements using a fixed
// sanitizer and percentile policy.
type Transformer struct {
	sanitizer   sanitize.Func
	percentiles []Percentile
}

// New creates a Transformer.
//
// A nil sanitizer degrades to the mandatory final pass alone; nil
// percentiles select DefaultPercentiles.
func New(sanitizer sanitize.Func, percentiles []Percentile) *Transformer {
	if sanitizer == nil {
		sanitizer = sanitize.Chain(nil)
	}
	if percentiles == nil {
		percentiles = DefaultPercentiles
	}
	return &Transformer{sanitizer: sanitizer, percentiles: percentiles}
}

// Transform produces the measurements for one named metric.
//
// Registry entries of a kind this reporter does not understand (healthchecks,
// arbitrary registered values) yield no measurements and no error. A non-nil
// error means the snapshot violated a numeric invariant; the caller is
// expected to log it and move on to the next metric.
func (t *Transformer) Transform(name string, metric interface{}) ([]models.Measurement, error) {
	sanitized := t.sanitizer(name)

	switch m := metric.(type) {
	case metrics.Counter:
		return []models.Measurement{models.NewCounter(sanitized, float64(m.Count()))}, nil

	case metrics.Gauge:
		return []models.Measurement{models.NewGauge(sanitized, float64(m.Value()))}, nil

	case metrics.GaugeFloat64:
		return []models.Measurement{models.NewGauge(sanitized, m.Value())}, nil

	case metrics.Meter:
		return t.metered(sanitized, m.Snapshot()), nil

	case metrics.Histogram:
		return t.distribution(sanitized, m.Snapshot())

	case metrics.Timer:
		snapshot := m.Snapshot()
		result := t.metered(sanitized, snapshot)
		dist, err := t.distribution(sanitized, snapshot)
		if err != nil {
			return nil, err
		}
		return append(result, dist...), nil
	}

	// not a kind the remote system can represent
	return nil, nil
}

// metered is the subset of fields shared by meters and timers.
type metered interface {
	Count() int64
	Rate1() float64
	Rate5() float64
	Rate15() float64
	RateMean() float64
}

func (t *Transformer) metered(name string, m metered) []models.Measurement {
	return []models.Measurement{
		models.NewGauge(fmt.Sprintf("%s.count", name), float64(m.Count())),
		models.NewGauge(fmt.Sprintf("%s.meanRate", name), m.RateMean()),
		models.NewGauge(fmt.Sprintf("%s.1MinuteRate", name), m.Rate1()),
		models.NewGauge(fmt.Sprintf("%s.5MinuteRate", name), m.Rate5()),
		models.NewGauge(fmt.Sprintf("%s.15MinuteRate", name), m.Rate15()),
	}
}

// sampled is the subset of fields shared by histograms and timers.
type sampled interface {
	Count() int64
	Min() int64
	Max() int64
	Mean() float64
	StdDev() float64
	Sum() int64
	Percentiles([]float64) []float64
}

func (t *Transformer) distribution(name string, m sampled) ([]models.Measurement, error) {
	count := m.Count()
	mean := m.Mean()
	stddev := m.StdDev()

	// reconstructs variance remotely; clamp the float error floor
	sumSquares := float64(count) * (stddev*stddev + mean*mean)
	if sumSquares < 0 {
		sumSquares = 0
	}

	summary := models.NewDistribution(name, count, float64(m.Sum()), float64(m.Min()), float64(m.Max()), sumSquares)
	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("distribution %s: %w", name, internalerrors.ErrInvalidMeasurement)
	}

	result := []models.Measurement{summary}

	quantiles := make([]float64, len(t.percentiles))
	for i, p := range t.percentiles {
		quantiles[i] = p.Quantile
	}
	values := m.Percentiles(quantiles)
	for i, p := range t.percentiles {
		result = append(result, models.NewGauge(fmt.Sprintf("%s.%s", name, p.Suffix), values[i]))
	}
	return result, nil
}
