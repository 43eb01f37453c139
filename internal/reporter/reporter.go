// Package reporter drives the periodic collection and publishing of
// measurements from a metrics registry to the Librato API.
//
// One reporting cycle walks the registry through the transformer, folds in
// optional VM-level measurements, splits the resulting batch into chunks and
// dispatches each chunk. Every phase is best-effort: failures are logged and
// the cycle always runs to completion, so the next scheduled cycle is never
// blocked by the previous one's errors.
package reporter

import (
	"context"
	"time"

	"github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/Schera-ole/librato/internal/batch"
	internalerrors "github.com/Schera-ole/librato/internal/errors"
	models "github.com/Schera-ole/librato/internal/model"
	"github.com/Schera-ole/librato/internal/publish"
	"github.com/Schera-ole/librato/internal/sanitize"
	"github.com/Schera-ole/librato/internal/transform"
	"github.com/Schera-ole/librato/internal/vmstats"
)

// DefaultInterval is the reporting cadence used when none is configured.
const DefaultInterval = 10 * time.Second

// VMStats supplies pre-built process-level measurements for a cycle.
type VMStats interface {
	Measurements() []models.Measurement
}

// Predicate filters which registry entries a reporter publishes.
type Predicate func(name string, metric interface{}) bool

// Options configures a Reporter. Username, Token and Registry are required;
// every other field has a usable zero value.
type Options struct {
	// Username and Token build the Basic-Auth header. Both must be non-empty.
	Username string
	Token    string

	// Source labels the reporting process or host, attached once per batch.
	Source string

	// APIURL overrides the ingestion endpoint (defaults to the production API).
	APIURL string

	// Timeout bounds each publish attempt (defaults to 5 seconds).
	Timeout time.Duration

	// Name identifies this reporter in logs.
	Name string

	// Sanitizer is an optional custom name transformation. The mandatory
	// final pass always runs after it.
	Sanitizer sanitize.Func

	// Registry is the metrics source. Required: there is no implicit
	// process-wide default.
	Registry metrics.Registry

	// Predicate filters registry entries; nil publishes everything.
	Predicate Predicate

	// VMStats overrides the default process-level collector.
	VMStats VMStats

	// DisableVMStats turns off the VM phase entirely.
	DisableVMStats bool

	// MaxBatchSize bounds the number of measurements per outbound request.
	MaxBatchSize int

	// Percentiles overrides the sampling policy for histograms and timers.
	Percentiles []transform.Percentile

	// Interval is the reporting cadence for Start (defaults to 10 seconds).
	Interval time.Duration

	// Logger receives all failure reporting. Defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Reporter publishes a registry's metrics on a fixed cadence.
//
// Cycles run sequentially on the goroutine that calls Start, so at most one
// cycle per Reporter is in flight at a time. Independent Reporter instances
// share no state.
type Reporter struct {
	name         string
	source       string
	registry     metrics.Registry
	predicate    Predicate
	transformer  *transform.Transformer
	publisher    *publish.Publisher
	maxBatchSize int
	vm           VMStats
	interval     time.Duration
	logger       *zap.SugaredLogger

	quiting, quit chan struct{}
}

// New validates the options and creates a Reporter.
//
// Construction fails fast on empty credentials or a missing registry; no
// error after this point is surfaced to the caller.
func New(opts Options) (*Reporter, error) {
	if opts.Username == "" || opts.Token == "" {
		return nil, internalerrors.ErrMissingCredentials
	}
	if opts.Registry == nil {
		return nil, internalerrors.ErrNilRegistry
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	name := opts.Name
	if name == "" {
		name = "librato-reporter"
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	vm := opts.VMStats
	if vm == nil && !opts.DisableVMStats {
		vm = vmstats.New(logger)
	}
	if opts.DisableVMStats {
		vm = nil
	}

	return &Reporter{
		name:         name,
		source:       opts.Source,
		registry:     opts.Registry,
		predicate:    opts.Predicate,
		transformer:  transform.New(sanitize.Chain(opts.Sanitizer), opts.Percentiles),
		publisher:    publish.New(opts.APIURL, opts.Username, opts.Token, opts.Timeout),
		maxBatchSize: opts.MaxBatchSize,
		vm:           vm,
		interval:     interval,
		logger:       logger,
		quiting:      make(chan struct{}),
		quit:         make(chan struct{}),
	}, nil
}

// Name returns the reporter identifier.
func (r *Reporter) Name() string {
	return r.name
}

// Start runs reporting cycles at the configured interval until Stop is
// called, then flushes once more and returns. It blocks the calling
// goroutine.
func (r *Reporter) Start() error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quiting:
			// final flush
			r.Report(context.Background())
			close(r.quit)
			return nil

		case <-ticker.C:
			r.Report(context.Background())
		}
	}
}

// Stop ends the reporting loop and waits for the final flush to finish.
func (r *Reporter) Stop() {
	close(r.quiting)
	<-r.quit
}

// Report runs one complete reporting cycle: VM phase, registry phase,
// dispatch phase. It never returns an error and never panics; all failures
// are logged.
func (r *Reporter) Report(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("%s: reporting cycle aborted: %v", r.name, p)
		}
	}()

	measureTime := time.Now().Unix()
	accumulator := batch.NewAccumulator(r.maxBatchSize)

	if r.vm != nil {
		accumulator.AddAll(r.vm.Measurements())
	}

	r.registry.Each(func(name string, metric interface{}) {
		if r.predicate != nil && !r.predicate(name, metric) {
			return
		}
		r.reportMetric(accumulator, name, metric)
	})

	for i, chunk := range accumulator.Finish() {
		if err := r.publisher.Publish(ctx, chunk, r.source, measureTime); err != nil {
			r.logger.Errorf("%s: publish failed for chunk %d of %d measurements: %v", r.name, i, len(chunk), err)
		}
	}
}

// reportMetric converts one registry entry, recovering panics from
// user-supplied metric callbacks so a single bad metric cannot abort the
// rest of the cycle.
func (r *Reporter) reportMetric(accumulator *batch.Accumulator, name string, metric interface{}) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("%s: error processing metric %s: %v", r.name, name, p)
		}
	}()

	measurements, err := r.transformer.Transform(name, metric)
	if err != nil {
		r.logger.Errorf("%s: error converting metric %s: %v", r.name, name, err)
		return
	}
	accumulator.AddAll(measurements)
}
