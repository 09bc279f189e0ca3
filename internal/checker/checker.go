package checker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/vigil/internal/logging"
	"github.com/arloliu/vigil/internal/metrics"
	"github.com/arloliu/vigil/internal/timelag"
	"github.com/arloliu/vigil/types"
)

// Common errors for checker operations.
var (
	ErrNotStarted     = errors.New("checker not started")
	ErrAlreadyStarted = errors.New("checker already started")
)

// Checker periodically scans the heartbeat store for crashed peers.
//
// Stop never removes records: only an instance's own emitter removes its
// record on graceful shutdown, and only a detecting checker removes a
// crashed peer's record.
type Checker struct {
	store       types.HeartbeatStore
	sessionID   string
	interval    time.Duration
	staleAfter  time.Duration
	leaderGrace time.Duration
	opTimeout   time.Duration

	reporter types.Reporter
	guard    *timelag.Guard
	clock    types.Clock
	logger   types.Logger
	metrics  types.MetricsCollector

	inFlight atomic.Bool

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	ticker  *time.Ticker
}

// Options carries the checker's required collaborators and tuning.
type Options struct {
	// Store is the shared heartbeat store.
	Store types.HeartbeatStore

	// SessionID is this instance's own session ID; its record is never
	// classified by its own checker.
	SessionID string

	// Interval is the tick cadence, matching the heartbeat interval.
	Interval time.Duration

	// StaleThresholdMultiplier sets the staleness threshold as a multiple
	// of Interval. Must absorb one or two missed ticks plus write latency.
	StaleThresholdMultiplier int

	// PrimaryGraceMultiplier sets the election grace window as a multiple
	// of Interval: a peer's check within this window yields the tick.
	PrimaryGraceMultiplier int

	// LagToleranceMultiplier sets the time-lag guard tolerance as a
	// multiple of Interval.
	LagToleranceMultiplier int

	// OperationTimeout bounds each tick's store I/O.
	OperationTimeout time.Duration

	// Reporter receives one crash report per detected crash.
	Reporter types.Reporter

	// Clock, Logger and Metrics are optional; nil selects system clock,
	// nop logger and nop metrics.
	Clock   types.Clock
	Logger  types.Logger
	Metrics types.MetricsCollector
}

// New creates a new crash checker.
//
// Parameters:
//   - opts: Collaborators and tuning; zero multipliers select defaults
//     (stale 5x, grace 2x, lag tolerance 3x)
//
// Returns:
//   - *Checker: New checker instance
func New(opts Options) *Checker {
	if opts.Clock == nil {
		opts.Clock = types.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.StaleThresholdMultiplier <= 0 {
		opts.StaleThresholdMultiplier = 5
	}
	if opts.PrimaryGraceMultiplier <= 0 {
		opts.PrimaryGraceMultiplier = 2
	}
	if opts.LagToleranceMultiplier <= 0 {
		opts.LagToleranceMultiplier = 3
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 5 * time.Second
	}

	return &Checker{
		store:       opts.Store,
		sessionID:   opts.SessionID,
		interval:    opts.Interval,
		staleAfter:  opts.Interval * time.Duration(opts.StaleThresholdMultiplier),
		leaderGrace: opts.Interval * time.Duration(opts.PrimaryGraceMultiplier),
		opTimeout:   opts.OperationTimeout,
		reporter:    opts.Reporter,
		guard:       timelag.New(opts.Interval, opts.LagToleranceMultiplier, opts.Clock),
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the checker's interval timer.
//
// The first tick fires after one full interval rather than immediately,
// offsetting the scan from the emitter's immediate first heartbeat.
//
// Returns:
//   - error: ErrAlreadyStarted if already running
func (c *Checker) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}

	c.started = true
	c.ticker = time.NewTicker(c.interval)

	go c.checkLoop()

	return nil
}

// Stop stops the checker's timer. It removes nothing from the store.
//
// Safe to call multiple times; subsequent calls return ErrNotStarted.
//
// Returns:
//   - error: ErrNotStarted if not running
func (c *Checker) Stop() error {
	c.mu.Lock()

	if !c.started || c.stopped {
		c.mu.Unlock()

		return ErrNotStarted
	}

	c.ticker.Stop()
	close(c.stopCh)
	c.stopped = true

	c.mu.Unlock()

	<-c.doneCh

	return nil
}

// IsStarted returns whether the checker is currently running.
func (c *Checker) IsStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.started && !c.stopped
}

// StaleThreshold returns the heartbeat age beyond which an instance is
// classified as crashed.
func (c *Checker) StaleThreshold() time.Duration {
	return c.staleAfter
}

// CheckOnce runs one election-and-scan pass immediately.
//
// This is the body of a timer tick, exposed for forced scans and
// deterministic tests. It never returns an error: every failure mode is a
// logged skip, since nothing in the scan path may terminate the host.
//
// Parameters:
//   - ctx: Context bounding the pass's store I/O
func (c *Checker) CheckOnce(ctx context.Context) {
	// Overlap guard: if the previous tick's I/O is still in flight, skip
	// rather than stack concurrent scans.
	if !c.inFlight.CompareAndSwap(false, true) {
		c.metrics.RecordScan(types.ScanOutcomeSkippedInFlight)

		return
	}
	defer c.inFlight.Store(false)

	// A large gap between ticks means the host was likely suspended. Every
	// heartbeat in the store looks stale after a resume, so neither election
	// nor detection may run this tick.
	if elapsed := c.guard.Observe(); c.guard.DidLag() {
		c.metrics.RecordTimeLag(elapsed.Seconds())
		c.metrics.RecordScan(types.ScanOutcomeSkippedLag)
		c.logger.Info("time lag detected, suppressing crash check",
			"sessionId", c.sessionID, "elapsed", elapsed, "interval", c.interval)

		return
	}

	if !c.claimTick(ctx) {
		c.metrics.RecordScan(types.ScanOutcomeSkippedNotLeader)

		return
	}

	c.metrics.RecordScan(types.ScanOutcomeScanned)
	c.scan(ctx)
}

// claimTick decides whether this instance is the primary checker for the
// current tick and, if so, records the claim in the store's metadata.
//
// Soft election: a race between two claimants can let both scan. That is
// tolerated — the store removal below ensures at most one report per crash.
func (c *Checker) claimTick(ctx context.Context) bool {
	now := c.clock.Now()

	meta, err := c.store.Meta(ctx)
	if err != nil {
		c.logger.Warn("failed to read store metadata, skipping tick", "error", err)

		return false
	}

	// A recent claim by a peer yields the tick. Our own prior claim never
	// does, or a lone survivor would scan only once per grace window.
	if meta.LastCheckMillis > 0 && meta.LastCheckBy != c.sessionID {
		sinceLast := now.Sub(time.UnixMilli(meta.LastCheckMillis))
		if sinceLast >= 0 && sinceLast < c.leaderGrace {
			return false
		}
	}

	meta.LastCheckMillis = now.UnixMilli()
	meta.LastCheckBy = c.sessionID
	if err := c.store.PutMeta(ctx, meta); err != nil {
		c.logger.Warn("failed to claim check tick, skipping", "error", err)

		return false
	}

	return true
}

// scan classifies stale peers, reports them, and prunes their records.
func (c *Checker) scan(ctx context.Context) {
	now := c.clock.Now()

	instances, err := c.store.ListInstances(ctx)
	if err != nil {
		c.logger.Warn("failed to list instances, aborting scan", "error", err)

		return
	}

	for _, inst := range instances {
		if inst.SessionID == c.sessionID {
			continue
		}

		age := inst.HeartbeatAge(now)
		if age <= c.staleAfter {
			continue
		}

		c.logger.Info("detected crashed instance",
			"sessionId", inst.SessionID, "heartbeatAge", age, "threshold", c.staleAfter)

		// Remove first: once the record is gone no other checker can
		// observe the same crash, so the report is emitted at most once
		// system-wide.
		if err := c.store.RemoveInstance(ctx, inst.SessionID); err != nil {
			c.logger.Warn("failed to remove crashed instance record, deferring report",
				"sessionId", inst.SessionID, "error", err)

			continue
		}

		c.metrics.RecordCrashDetected(inst.SessionID)

		if err := c.reporter.Report(ctx, types.NewCrashReport(inst.SessionID)); err != nil {
			c.logger.Error("failed to deliver crash report",
				"sessionId", inst.SessionID, "error", err)
		}
	}
}

// checkLoop is the background goroutine driving ticks.
func (c *Checker) checkLoop() {
	defer close(c.doneCh)

	for {
		select {
		case <-c.stopCh:
			return
		case <-c.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
			c.CheckOnce(ctx)
			cancel()
		}
	}
}
