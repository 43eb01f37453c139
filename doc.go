// Package librato implements a reporter that periodically publishes
// measurements from a go-metrics registry to the Librato Metrics API.
//
// The reporter walks a registry of heterogeneous metric kinds:
//   - Counter: a monotonic count, published as a counter measurement
//   - Gauge: a point-in-time value, published as a gauge measurement
//   - Meter: rolling rate statistics, published as a set of rate gauges
//   - Histogram: a value distribution, published as a summary plus
//     per-percentile gauges
//   - Timer: both a rate and a duration distribution, combining the meter
//     and histogram conversions
//
// Measurements are grouped into size-bounded chunks and each chunk is
// posted as one authenticated JSON request. Publishing is best-effort: a
// failed chunk is logged and dropped, and the next cycle re-sends current
// state.
//
// Features:
//   - Two-stage metric name sanitization that custom stages cannot bypass
//   - Optional process-level measurements (Go runtime and host statistics)
//   - Configurable batch size, percentile policy, and metric filtering
//   - Structured logging
//   - Graceful shutdown with a final flush
//
// The module includes a local ingestion sink that accepts the reporter's
// payloads, for development and end-to-end testing. The sink can store
// received measurements in memory or in a PostgreSQL database, with audit
// logging to file or HTTP endpoint.
//
// Both reporter and sink binaries support configuration via command-line
// flags and environment variables.
package librato
