package transform

import (
	"testing"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/sanitize"
)

func TestTransformCounter(t *testing.T) {
	counter := metrics.NewCounter()
	counter.Inc(42)

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("requests", counter)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, "requests", result[0].Name)
	assert.Equal(t, models.Counter, result[0].Kind)
	require.NotNil(t, result[0].Value)
	assert.Equal(t, 42.0, *result[0].Value)
}

func TestTransformGauge(t *testing.T) {
	gauge := metrics.NewGauge()
	gauge.Update(17)

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("queue.depth", gauge)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, models.Gauge, result[0].Kind)
	require.NotNil(t, result[0].Value)
	assert.Equal(t, 17.0, *result[0].Value)
}

func TestTransformGaugeFloat64(t *testing.T) {
	gauge := metrics.NewGaugeFloat64()
	gauge.Update(3.14)

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("temperature", gauge)
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.NotNil(t, result[0].Value)
	assert.Equal(t, 3.14, *result[0].Value)
}

func TestTransformSanitizesName(t *testing.T) {
	counter := metrics.NewCounter()
	counter.Inc(1)

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("requests raw!", counter)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "requestsraw", result[0].Name)
}

func TestTransformMeter(t *testing.T) {
	meter := metrics.NewMeter()
	defer meter.Stop()
	meter.Mark(10)

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("events", meter)
	require.NoError(t, err)
	require.Len(t, result, 5)

	names := make([]string, 0, len(result))
	for _, m := range result {
		assert.Equal(t, models.Gauge, m.Kind)
		require.NotNil(t, m.Value)
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"events.count",
		"events.meanRate",
		"events.1MinuteRate",
		"events.5MinuteRate",
		"events.15MinuteRate",
	}, names)
	assert.Equal(t, 10.0, *result[0].Value)
}

func TestTransformHistogram(t *testing.T) {
	histogram := metrics.NewHistogram(metrics.NewUniformSample(1024))
	for _, v := range []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		histogram.Update(v)
	}

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("payload.size", histogram)
	require.NoError(t, err)
	// one summary plus the default percentile set
	require.Len(t, result, 1+len(DefaultPercentiles))

	summary := result[0]
	assert.Equal(t, "payload.size", summary.Name)
	require.NotNil(t, summary.Count)
	assert.Equal(t, int64(10), *summary.Count)
	require.NotNil(t, summary.Sum)
	assert.Equal(t, 55.0, *summary.Sum)
	require.NotNil(t, summary.Min)
	assert.Equal(t, 1.0, *summary.Min)
	require.NotNil(t, summary.Max)
	assert.Equal(t, 10.0, *summary.Max)

	count := float64(histogram.Count())
	mean := histogram.Mean()
	stddev := histogram.StdDev()
	require.NotNil(t, summary.SumSquares)
	assert.InDelta(t, count*(stddev*stddev+mean*mean), *summary.SumSquares, 1e-9)

	assert.Equal(t, "payload.size.median", result[1].Name)
	assert.Equal(t, "payload.size.999th", result[len(result)-1].Name)
}

func TestTransformTimer(t *testing.T) {
	timer := metrics.NewTimer()
	defer timer.Stop()
	for i := 1; i <= 10; i++ {
		timer.Update(0)
	}

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("latency", timer)
	require.NoError(t, err)
	// meter conversion plus summary plus percentile samples
	require.Len(t, result, 5+1+len(DefaultPercentiles))

	assert.Equal(t, "latency.count", result[0].Name)
	assert.Equal(t, "latency", result[5].Name)
	require.NotNil(t, result[5].Count)
	assert.Equal(t, int64(10), *result[5].Count)
}

func TestTransformCustomPercentiles(t *testing.T) {
	histogram := metrics.NewHistogram(metrics.NewUniformSample(1024))
	histogram.Update(5)

	tr := New(sanitize.Chain(nil), []Percentile{{Quantile: 0.98, Suffix: "98th"}})
	result, err := tr.Transform("size", histogram)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "size.98th", result[1].Name)
}

func TestTransformUnknownKindSkipped(t *testing.T) {
	healthcheck := metrics.NewHealthcheck(func(h metrics.Healthcheck) { h.Healthy() })

	tr := New(sanitize.Chain(nil), nil)
	result, err := tr.Transform("db.alive", healthcheck)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTransformIdempotent(t *testing.T) {
	histogram := metrics.NewHistogram(metrics.NewUniformSample(1024))
	for _, v := range []int64{3, 1, 4, 1, 5} {
		histogram.Update(v)
	}

	tr := New(sanitize.Chain(nil), nil)
	first, err := tr.Transform("size", histogram)
	require.NoError(t, err)
	second, err := tr.Transform("size", histogram)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
