package metrics

import "github.com/arloliu/vigil/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordHeartbeat discards the heartbeat metric.
func (n *NopMetrics) RecordHeartbeat(_ /* sessionID */ string, _ /* success */ bool) {
	// No-op
}

// RecordScan discards the scan outcome metric.
func (n *NopMetrics) RecordScan(_ /* outcome */ string) {
	// No-op
}

// RecordCrashDetected discards the crash detection metric.
func (n *NopMetrics) RecordCrashDetected(_ /* sessionID */ string) {
	// No-op
}

// RecordTimeLag discards the time-lag metric.
func (n *NopMetrics) RecordTimeLag(_ /* elapsedSeconds */ float64) {
	// No-op
}

// RecordStoreOperation discards the store operation latency metric.
func (n *NopMetrics) RecordStoreOperation(_ /* operation */ string, _ /* seconds */ float64) {
	// No-op
}
