package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
type MetricsCollector interface {
	HeartbeatMetrics
	CheckerMetrics
	StoreMetrics
}

// HeartbeatMetrics defines metrics for the heartbeat emitter.
type HeartbeatMetrics interface {
	// RecordHeartbeat records one heartbeat write attempt.
	//
	// Parameters:
	//   - sessionID: The emitting instance's session ID
	//   - success: true if the write succeeded
	RecordHeartbeat(sessionID string, success bool)
}

// CheckerMetrics defines metrics for the crash checker.
type CheckerMetrics interface {
	// RecordScan records the outcome of one checker tick.
	//
	// Parameters:
	//   - outcome: "scanned", "skipped_not_primary", "skipped_lag" or
	//     "skipped_in_flight"
	RecordScan(outcome string)

	// RecordCrashDetected records one crash classification.
	RecordCrashDetected(sessionID string)

	// RecordTimeLag records one detected interval-firing lag.
	//
	// Parameters:
	//   - elapsedSeconds: Observed gap between ticks in seconds
	RecordTimeLag(elapsedSeconds float64)
}

// StoreMetrics defines metrics for heartbeat store operations.
type StoreMetrics interface {
	// RecordStoreOperation records one store operation's latency.
	//
	// Parameters:
	//   - operation: Operation type ("heartbeat", "list", "remove", "clear", "meta")
	//   - seconds: Time taken in seconds
	RecordStoreOperation(operation string, seconds float64)
}

// Checker tick outcomes recorded via CheckerMetrics.RecordScan.
const (
	ScanOutcomeScanned          = "scanned"
	ScanOutcomeSkippedNotLeader = "skipped_not_primary"
	ScanOutcomeSkippedLag       = "skipped_lag"
	ScanOutcomeSkippedInFlight  = "skipped_in_flight"
)
