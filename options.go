package vigil

import "context"

// Option configures a Monitor with optional dependencies.
type Option func(*monitorOptions)

// monitorOptions holds optional Monitor configuration.
type monitorOptions struct {
	reporter       Reporter
	stalePredicate StalePredicate
	staleCommit    func(ctx context.Context) error
	epoch          string
	clock          Clock
	logger         Logger
	metrics        MetricsCollector
}

// WithReporter sets the sink that crash reports are delivered to.
//
// If not set, reports are written to the logger at error level.
//
// Parameters:
//   - reporter: Reporter implementation
//
// Returns:
//   - Option: Functional option for NewMonitor
//
// Example:
//
//	mon, err := vigil.NewMonitor(&cfg, st, vigil.WithReporter(telemetrySink))
func WithReporter(reporter Reporter) Option {
	return func(o *monitorOptions) {
		o.reporter = reporter
	}
}

// WithStalePredicate sets the startup staleness check.
//
// The predicate runs once when the monitor starts; if it resolves true the
// entire store is cleared before this instance registers, preventing
// phantom crash reports against records from a previous boot session.
//
// Parameters:
//   - predicate: Async staleness predicate
//
// Returns:
//   - Option: Functional option for NewMonitor
//
// Example:
//
//	check := bootcheck.New(stateDir)
//	mon, err := vigil.NewMonitor(&cfg, st,
//	    vigil.WithStalePredicate(check.Predicate()),
//	    vigil.WithStaleCommit(check.Commit),
//	)
func WithStalePredicate(predicate StalePredicate) Option {
	return func(o *monitorOptions) {
		o.stalePredicate = predicate
	}
}

// WithStaleCommit sets the callback that marks the staleness check's verdict
// as acted on, typically bootcheck's Commit.
//
// It runs at startup after the predicate resolved false, or after a stale
// store was successfully cleared. It is skipped when the predicate or the
// clear failed, so a crashed or failed reset is retried on the next startup
// instead of being silently forgotten.
//
// Parameters:
//   - commit: Commit callback
//
// Returns:
//   - Option: Functional option for NewMonitor
func WithStaleCommit(commit func(ctx context.Context) error) Option {
	return func(o *monitorOptions) {
		o.staleCommit = commit
	}
}

// WithEpoch sets the state-epoch token recorded in the store's shared
// metadata at startup, typically the host boot epoch from bootcheck.
//
// Parameters:
//   - epoch: Opaque state-generation token
//
// Returns:
//   - Option: Functional option for NewMonitor
func WithEpoch(epoch string) Option {
	return func(o *monitorOptions) {
		o.epoch = epoch
	}
}

// WithClock sets the wall-clock source.
//
// Parameters:
//   - clock: Clock implementation (defaults to the system clock)
//
// Returns:
//   - Option: Functional option for NewMonitor
func WithClock(clock Clock) Option {
	return func(o *monitorOptions) {
		o.clock = clock
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewMonitor
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	mon, err := vigil.NewMonitor(&cfg, st, vigil.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *monitorOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewMonitor
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *monitorOptions) {
		o.metrics = metrics
	}
}
