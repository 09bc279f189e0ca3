// Package timelag detects interval-firing gaps caused by OS sleep/wake or
// heavy scheduler starvation.
//
// A process resumed from suspension sees every peer's heartbeat as ancient,
// which would produce a burst of false crash reports. The guard watches the
// checker's own tick cadence: when a tick arrives far later than expected,
// detection is suppressed until the cadence normalizes.
package timelag

import (
	"sync"
	"time"

	"github.com/arloliu/vigil/types"
)

// Guard tracks tick timing for one checker and flags probable time lags.
//
// Safe for concurrent use, though in practice Observe and DidLag are called
// from the checker's single scan goroutine.
type Guard struct {
	interval  time.Duration
	tolerance time.Duration
	clock     types.Clock

	mu       sync.Mutex
	lastTick time.Time
	lagged   bool
}

// New creates a guard for a checker firing every interval.
//
// A tick whose gap from the previous tick exceeds interval * toleranceMultiplier
// is classified as a lag. The guard clears automatically once a subsequent
// tick falls back within tolerance.
//
// Parameters:
//   - interval: Expected tick cadence
//   - toleranceMultiplier: Gap multiple that constitutes a lag (>= 1)
//   - clock: Wall-clock source
//
// Returns:
//   - *Guard: New guard; the first Observe establishes the baseline
func New(interval time.Duration, toleranceMultiplier int, clock types.Clock) *Guard {
	if clock == nil {
		clock = types.SystemClock{}
	}

	return &Guard{
		interval:  interval,
		tolerance: interval * time.Duration(toleranceMultiplier),
		clock:     clock,
	}
}

// Observe records one tick and returns the gap since the previous tick.
//
// The first observation has no baseline and returns a zero gap without
// flagging a lag.
func (g *Guard) Observe() time.Duration {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lastTick.IsZero() {
		g.lastTick = now

		return 0
	}

	elapsed := now.Sub(g.lastTick)
	g.lastTick = now
	g.lagged = elapsed > g.tolerance

	return elapsed
}

// DidLag reports whether the most recent tick arrived outside tolerance.
//
// While true, the checker must not classify anything as crashed.
func (g *Guard) DidLag() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lagged
}
