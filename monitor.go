package vigil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arloliu/vigil/internal/checker"
	"github.com/arloliu/vigil/internal/heartbeat"
	"github.com/arloliu/vigil/internal/logging"
	"github.com/arloliu/vigil/internal/metrics"
	"github.com/arloliu/vigil/types"
)

// State represents a monitor's lifecycle state.
type State int32

// Monitor lifecycle states. Stopped is absorbing: a stopped monitor cannot
// be restarted under the same session ID.
const (
	StateNotStarted State = iota
	StateRunning
	StateStopped
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// NewSessionID generates a globally unique session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Monitor ties one process into the cross-process crash monitoring scheme.
//
// It owns this instance's heartbeat emitter and crash checker, and governs
// the shared store's lifecycle at startup (staleness reset). One Monitor is
// created per process, passed down explicitly, and disposed with Stop; it
// is not an ambient singleton.
type Monitor struct {
	cfg       Config
	store     types.HeartbeatStore
	sessionID string

	reporter    Reporter
	stale       StalePredicate
	staleCommit func(ctx context.Context) error
	epoch       string
	clock       types.Clock
	logger      types.Logger
	collector   types.MetricsCollector

	emitter *heartbeat.Emitter
	checker *checker.Checker

	state  atomic.Int32
	stopMu sync.Mutex
}

// NewMonitor creates a crash monitor for this process.
//
// Parameters:
//   - cfg: Monitor configuration; missing fields are defaulted in place
//   - store: Shared heartbeat store (see the store package for backends)
//   - opts: Optional reporter, staleness check, clock, logger and metrics
//
// Returns:
//   - *Monitor: New monitor in the not-started state
//   - error: Nil-argument or configuration validation failure
//
// Example:
//
//	st, _ := store.NewFileStore(stateDir)
//	check := bootcheck.New(stateDir)
//	mon, err := vigil.NewMonitor(&cfg, st,
//	    vigil.WithReporter(telemetrySink),
//	    vigil.WithStalePredicate(check.Predicate()),
//	    vigil.WithStaleCommit(check.Commit),
//	)
//	if err != nil { ... }
//	if err := mon.Start(ctx); err != nil { ... }
//	defer mon.Stop(context.Background())
func NewMonitor(cfg *Config, store types.HeartbeatStore, opts ...Option) (*Monitor, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &monitorOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	collector := options.metrics
	if collector == nil {
		collector = metrics.NewNop()
	}

	clock := options.clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	// Dev mode disables reporting: detected crashes go to the logger only.
	// The same fallback applies when no reporter is configured.
	reporter := options.reporter
	if reporter == nil || cfg.DevMode {
		reporter = &logReporter{logger: logger}
	}

	m := &Monitor{
		cfg:         *cfg,
		store:       store,
		sessionID:   sessionID,
		reporter:    NewDedupReporter(reporter),
		stale:       options.stalePredicate,
		staleCommit: options.staleCommit,
		epoch:       options.epoch,
		clock:       clock,
		logger:      logger,
		collector:   collector,
	}

	m.emitter = heartbeat.New(store, sessionID, cfg.CheckInterval,
		heartbeat.WithClock(clock),
		heartbeat.WithLogger(logger),
		heartbeat.WithMetrics(collector),
		heartbeat.WithOperationTimeout(cfg.OperationTimeout),
		heartbeat.WithDebugFlag(cfg.IsDebug),
	)

	m.checker = checker.New(checker.Options{
		Store:                    store,
		SessionID:                sessionID,
		Interval:                 cfg.CheckInterval,
		StaleThresholdMultiplier: cfg.StaleThresholdMultiplier,
		PrimaryGraceMultiplier:   cfg.PrimaryGraceMultiplier,
		LagToleranceMultiplier:   cfg.LagToleranceMultiplier,
		OperationTimeout:         cfg.OperationTimeout,
		Reporter:                 m.reporter,
		Clock:                    clock,
		Logger:                   logger,
		Metrics:                  collector,
	})

	m.state.Store(int32(StateNotStarted))

	return m, nil
}

// SessionID returns this instance's session identifier.
func (m *Monitor) SessionID() string {
	return m.sessionID
}

// State returns the monitor's current lifecycle state.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Start begins monitoring.
//
// The startup sequence is:
//
//  1. Run the staleness check once; if the state predates the current boot
//     session the entire store is cleared before this instance registers.
//  2. Stamp the state epoch into the store's shared metadata, if provided.
//  3. Start the heartbeat emitter (first heartbeat fires immediately).
//  4. Start the crash checker.
//
// Staleness-check failures are logged and monitoring continues: a missed
// reset can at worst produce reports against a previous boot's sessions,
// while refusing to monitor would hide real crashes.
//
// Parameters:
//   - ctx: Context for startup I/O
//
// Returns:
//   - error: ErrAlreadyStarted if not in the not-started state
func (m *Monitor) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		return ErrAlreadyStarted
	}

	m.resetStaleState(ctx)

	if err := m.emitter.Start(ctx); err != nil {
		m.state.Store(int32(StateStopped))

		return fmt.Errorf("failed to start heartbeat emitter: %w", err)
	}

	if err := m.checker.Start(ctx); err != nil {
		_ = m.emitter.Stop()
		m.state.Store(int32(StateStopped))

		return fmt.Errorf("failed to start crash checker: %w", err)
	}

	m.logger.Info("crash monitoring started",
		"sessionId", m.sessionID,
		"checkInterval", m.cfg.CheckInterval,
		"staleThreshold", m.cfg.StaleThreshold(),
		"devMode", m.cfg.DevMode,
	)

	return nil
}

// Stop ends monitoring gracefully.
//
// The checker stops first (it removes nothing), then the emitter removes
// this instance's record, which is what tells every peer the exit was
// intentional. Safe to call multiple times.
//
// Parameters:
//   - ctx: Unused today; present so shutdown can be bounded later without
//     an API change
//
// Returns:
//   - error: ErrNotStarted if the monitor never ran, or the record removal
//     failure (the monitor still ends up stopped)
func (m *Monitor) Stop(_ context.Context) error {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()

	switch State(m.state.Load()) {
	case StateNotStarted:
		return ErrNotStarted
	case StateStopped:
		return nil
	case StateRunning:
	}

	if err := m.checker.Stop(); err != nil {
		m.logger.Warn("failed to stop crash checker", "error", err)
	}

	err := m.emitter.Stop()

	m.state.Store(int32(StateStopped))
	m.logger.Info("crash monitoring stopped", "sessionId", m.sessionID)

	if err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}

	return nil
}

// SimulateCrash halts this instance's heartbeats and checker without
// deregistering, leaving the same store signature an ungraceful termination
// would: a record that never advances again.
//
// Test hook for validating detection from another instance. The crashed
// state is terminal; a later Stop is a no-op.
//
// Returns:
//   - error: ErrNotStarted if the monitor is not running
func (m *Monitor) SimulateCrash() error {
	m.stopMu.Lock()
	defer m.stopMu.Unlock()

	if State(m.state.Load()) != StateRunning {
		return ErrNotStarted
	}

	if err := m.checker.Stop(); err != nil {
		m.logger.Warn("failed to stop crash checker", "error", err)
	}

	err := m.emitter.SimulateCrash()

	m.state.Store(int32(StateStopped))

	return err
}

// CheckNow forces one election-and-scan pass outside the regular cadence.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.checker.CheckOnce(ctx)
}

// resetStaleState runs the startup staleness check and epoch stamping.
//
// The commit callback runs only once the verdict has been fully acted on: a
// failed predicate or a failed clear leaves the verdict uncommitted, so the
// next startup re-detects the stale state and retries the reset.
func (m *Monitor) resetStaleState(ctx context.Context) {
	if m.stale != nil {
		stale, err := m.stale(ctx)
		acted := err == nil

		switch {
		case err != nil:
			m.logger.Warn("staleness check failed, keeping existing state", "error", err)
		case stale:
			m.logger.Info("store state predates current boot session, clearing", "sessionId", m.sessionID)
			if err := m.store.ClearAll(ctx); err != nil {
				m.logger.Warn("failed to clear stale state", "error", err)
				acted = false
			}
		}

		if acted && m.staleCommit != nil {
			if err := m.staleCommit(ctx); err != nil {
				m.logger.Warn("failed to commit staleness check", "error", err)
			}
		}
	}

	if m.epoch == "" {
		return
	}

	meta, err := m.store.Meta(ctx)
	if err != nil {
		m.logger.Warn("failed to read store metadata", "error", err)

		return
	}

	if meta.Epoch != m.epoch {
		meta.Epoch = m.epoch
		if err := m.store.PutMeta(ctx, meta); err != nil {
			m.logger.Warn("failed to stamp state epoch", "error", err)
		}
	}
}
