package vigil

import "github.com/arloliu/vigil/types"

// Re-exported types for a friendlier public API. Application code can use
// vigil.Reporter, vigil.CrashReport etc. without importing the types package.
type (
	// Instance is one process's liveness record in the shared store.
	Instance = types.Instance

	// Meta is the store's shared metadata record.
	Meta = types.Meta

	// CrashReport is the structured event emitted for a detected crash.
	CrashReport = types.CrashReport

	// Reporter delivers crash reports to the host's telemetry sink.
	Reporter = types.Reporter

	// StalePredicate decides at startup whether the store state is stale.
	StalePredicate = types.StalePredicate

	// HeartbeatStore is the durable store instances coordinate through.
	HeartbeatStore = types.HeartbeatStore

	// Clock abstracts wall-clock reads.
	Clock = types.Clock

	// Logger defines methods for structured logging.
	Logger = types.Logger

	// MetricsCollector defines methods for recording operational metrics.
	MetricsCollector = types.MetricsCollector
)

// Fixed CrashReport field values.
const (
	// ResultFailed is the fixed Result value of every crash report.
	ResultFailed = types.ResultFailed

	// ReasonExtHostCrashed is the fixed Reason classification of every
	// crash report.
	ReasonExtHostCrashed = types.ReasonExtHostCrashed
)
