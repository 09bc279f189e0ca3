package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/vigil/internal/logging"
	"github.com/arloliu/vigil/internal/metrics"
	"github.com/arloliu/vigil/types"
)

// Common errors for emitter operations.
var (
	ErrNotStarted     = errors.New("emitter not started")
	ErrAlreadyStarted = errors.New("emitter already started")
	ErrNoSessionID    = errors.New("session ID not set")
)

// Emitter publishes periodic heartbeats for one instance to the shared store.
//
// Only this emitter ever writes its instance's record; each write overwrites
// the last, so the owner's heartbeats are totally ordered. Stop removes the
// record so a graceful shutdown leaves no trace in the store.
type Emitter struct {
	store     types.HeartbeatStore
	sessionID string
	interval  time.Duration
	opTimeout time.Duration
	isDebug   bool

	clock   types.Clock
	logger  types.Logger
	metrics types.MetricsCollector

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	ticker  *time.Ticker
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithClock sets the wall-clock source used for heartbeat timestamps.
func WithClock(clock types.Clock) EmitterOption {
	return func(e *Emitter) {
		e.clock = clock
	}
}

// WithLogger sets the logger for heartbeat diagnostics.
func WithLogger(logger types.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector for heartbeat events.
func WithMetrics(collector types.MetricsCollector) EmitterOption {
	return func(e *Emitter) {
		e.metrics = collector
	}
}

// WithOperationTimeout sets the per-write store operation timeout.
func WithOperationTimeout(timeout time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.opTimeout = timeout
	}
}

// WithDebugFlag marks the published records as belonging to a debug session.
func WithDebugFlag(isDebug bool) EmitterOption {
	return func(e *Emitter) {
		e.isDebug = isDebug
	}
}

// New creates a new heartbeat emitter.
//
// Parameters:
//   - store: Shared heartbeat store
//   - sessionID: This instance's unique session ID
//   - interval: Heartbeat interval
//   - opts: Optional clock, logger, metrics and timeout configuration
//
// Returns:
//   - *Emitter: New emitter instance
//
// Example:
//
//	emitter := heartbeat.New(st, sessionID, 10*time.Second)
//	if err := emitter.Start(ctx); err != nil { ... }
//	defer emitter.Stop()
func New(store types.HeartbeatStore, sessionID string, interval time.Duration, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		store:     store,
		sessionID: sessionID,
		interval:  interval,
		opTimeout: 5 * time.Second,
		clock:     types.SystemClock{},
		logger:    logging.NewNop(),
		metrics:   metrics.NewNop(),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start begins publishing heartbeats in the background.
//
// Publishes the first heartbeat immediately, then at regular intervals,
// until Stop is called. An initial write failure is logged, not returned:
// heartbeating is best-effort and self-corrects on the next tick.
//
// Parameters:
//   - ctx: Context for the initial heartbeat write
//
// Returns:
//   - error: ErrAlreadyStarted if already running, ErrNoSessionID if the
//     session ID is empty
func (e *Emitter) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return ErrAlreadyStarted
	}
	if e.sessionID == "" {
		return ErrNoSessionID
	}

	e.started = true
	e.ticker = time.NewTicker(e.interval)

	// First heartbeat fires immediately so a just-started instance is
	// visible to peers without a full-interval delay.
	e.publish(ctx)

	go e.publishLoop()

	return nil
}

// Stop stops the emitter and removes the instance's record from the store.
//
// Blocks until the publishing goroutine exits. Removing the record is what
// marks the shutdown as graceful; the record's absence is the only signal
// peers have that this instance exited intentionally.
//
// Safe to call multiple times; subsequent calls return ErrNotStarted.
//
// Returns:
//   - error: ErrNotStarted if not running, or the record removal error
func (e *Emitter) Stop() error {
	e.mu.Lock()

	if !e.started || e.stopped {
		e.mu.Unlock()

		return ErrNotStarted
	}

	e.ticker.Stop()
	close(e.stopCh)
	e.stopped = true

	e.mu.Unlock()

	<-e.doneCh

	// Use a background context with timeout since the caller is shutting down.
	ctx, cancel := context.WithTimeout(context.Background(), e.opTimeout)
	defer cancel()

	if err := e.store.RemoveInstance(ctx, e.sessionID); err != nil {
		return fmt.Errorf("stopped but failed to remove own record: %w", err)
	}

	return nil
}

// SimulateCrash halts the heartbeat timer without removing the record.
//
// Test hook: the stale record left behind is exactly what an ungraceful
// termination produces, letting another instance's checker be validated
// against a real crash signature.
//
// Returns:
//   - error: ErrNotStarted if not running
func (e *Emitter) SimulateCrash() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started || e.stopped {
		return ErrNotStarted
	}

	e.ticker.Stop()
	close(e.stopCh)
	e.stopped = true

	return nil
}

// SessionID returns the emitter's session ID.
func (e *Emitter) SessionID() string {
	return e.sessionID
}

// IsStarted returns whether the emitter is currently publishing.
func (e *Emitter) IsStarted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.started && !e.stopped
}

// publishLoop is the background goroutine that publishes heartbeats.
func (e *Emitter) publishLoop() {
	defer close(e.doneCh)

	for {
		select {
		case <-e.stopCh:
			return
		case <-e.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), e.opTimeout)
			e.publish(ctx)
			cancel()
		}
	}
}

// publish writes one heartbeat. Failures are logged and swallowed.
func (e *Emitter) publish(ctx context.Context) {
	err := e.store.SendHeartbeat(ctx, e.sessionID, e.clock.Now(), types.HeartbeatMetadata{IsDebug: e.isDebug})
	if err != nil {
		e.logger.Warn("heartbeat write failed", "sessionId", e.sessionID, "error", err)
	}

	e.metrics.RecordHeartbeat(e.sessionID, err == nil)
}
