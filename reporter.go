package vigil

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/vigil/types"
)

// DedupReporter wraps a Reporter and guarantees at most one delivered
// report per session ID.
//
// The soft primary election tolerates racing checkers by design, so the
// same crash can occasionally be observed twice before the record removal
// lands. Deduplication downstream of the checkers makes the at-most-once
// property hold regardless of election races.
//
// Session IDs are never reused, so suppressed entries are kept for the
// reporter's lifetime.
type DedupReporter struct {
	inner Reporter
	seen  *xsync.Map[string, struct{}]
}

// Compile-time assertion that DedupReporter implements Reporter.
var _ Reporter = (*DedupReporter)(nil)

// NewDedupReporter wraps a reporter with per-session deduplication.
//
// Parameters:
//   - inner: The sink receiving first-seen reports
//
// Returns:
//   - *DedupReporter: Deduplicating wrapper
func NewDedupReporter(inner Reporter) *DedupReporter {
	return &DedupReporter{
		inner: inner,
		seen:  xsync.NewMap[string, struct{}](),
	}
}

// Report delivers the report unless one for the same session was already
// delivered.
func (r *DedupReporter) Report(ctx context.Context, report CrashReport) error {
	if _, loaded := r.seen.LoadOrStore(report.ProxiedSessionID, struct{}{}); loaded {
		return nil
	}

	return r.inner.Report(ctx, report)
}

// logReporter writes crash reports to the logger instead of a sink. Used as
// the default reporter and in dev mode, where reporting is disabled.
type logReporter struct {
	logger types.Logger
}

var _ Reporter = (*logReporter)(nil)

func (r *logReporter) Report(_ context.Context, report CrashReport) error {
	r.logger.Error("crash detected",
		"proxiedSessionId", report.ProxiedSessionID,
		"result", report.Result,
		"reason", report.Reason,
	)

	return nil
}
