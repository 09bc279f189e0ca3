package types

import "context"

// Fixed CrashReport field values. The payload shape is dictated by the
// consuming telemetry sink and must not vary per report.
const (
	// ResultFailed is the fixed Result value of every crash report.
	ResultFailed = "Failed"

	// ReasonExtHostCrashed is the fixed Reason classification of every
	// crash report.
	ReasonExtHostCrashed = "ExtHostCrashed"
)

// CrashReport is the structured event emitted when a checker classifies a
// peer instance as crashed. Reports are ephemeral: they are delivered to the
// Reporter sink, never persisted in the store.
type CrashReport struct {
	// ProxiedSessionID is the crashed instance's session ID. "Proxied"
	// because the report is emitted by a surviving instance on the crashed
	// owner's behalf.
	ProxiedSessionID string `json:"proxiedSessionId"`

	// Result is always ResultFailed.
	Result string `json:"result"`

	// Reason is always ReasonExtHostCrashed.
	Reason string `json:"reason"`
}

// NewCrashReport builds the report for a crashed session.
func NewCrashReport(sessionID string) CrashReport {
	return CrashReport{
		ProxiedSessionID: sessionID,
		Result:           ResultFailed,
		Reason:           ReasonExtHostCrashed,
	}
}

// Reporter delivers crash reports to whatever telemetry or event sink the
// host provides. The library defines the payload shape only, not the sink's
// protocol.
//
// Implementations must be safe for concurrent use and should not block for
// long; reports are delivered from the checker's scan goroutine.
type Reporter interface {
	// Report delivers one crash report. Errors are logged by the caller
	// and never abort the scan that produced the report.
	Report(ctx context.Context, report CrashReport) error
}

// StalePredicate decides at startup whether the entire on-disk state is
// stale, e.g. because the OS rebooted since the previous run. When it
// returns true the store is cleared before any instance registers,
// preventing phantom crash reports against a previous boot session.
type StalePredicate func(ctx context.Context) (bool, error)
