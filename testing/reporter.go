package testing

import (
	"context"
	"sync"

	"github.com/arloliu/vigil/types"
)

// CaptureReporter is a Reporter that records every crash report it receives.
// Safe for concurrent use.
type CaptureReporter struct {
	mu      sync.Mutex
	reports []types.CrashReport
}

// Compile-time assertion that CaptureReporter implements Reporter.
var _ types.Reporter = (*CaptureReporter)(nil)

// NewCaptureReporter creates an empty capture sink.
func NewCaptureReporter() *CaptureReporter {
	return &CaptureReporter{}
}

// Report records the crash report.
func (r *CaptureReporter) Report(_ context.Context, report types.CrashReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, report)

	return nil
}

// Reports returns a copy of all captured reports.
func (r *CaptureReporter) Reports() []types.CrashReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.CrashReport, len(r.reports))
	copy(out, r.reports)

	return out
}

// ReportsFor returns the captured reports whose proxied session matches sessionID.
func (r *CaptureReporter) ReportsFor(sessionID string) []types.CrashReport {
	var out []types.CrashReport
	for _, report := range r.Reports() {
		if report.ProxiedSessionID == sessionID {
			out = append(out, report)
		}
	}

	return out
}

// Count returns the number of captured reports.
func (r *CaptureReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.reports)
}
