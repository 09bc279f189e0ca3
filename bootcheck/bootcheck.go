// Package bootcheck decides whether the shared monitoring state predates the
// current OS boot.
//
// Heartbeat records written before a reboot describe processes that no
// longer exist; scanning them after the reboot would produce a burst of
// phantom crash reports. The check compares the host's boot time against a
// token persisted on the previous run: a mismatch means everything in the
// store belongs to a dead boot session and must be cleared.
package bootcheck

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/arloliu/vigil/types"
)

const tokenFileName = "boot-epoch"

// Check persists the host boot epoch and detects reboots across runs.
type Check struct {
	path string
}

// New creates a boot check persisting its token at the given path.
//
// The token lives in its own file, typically inside the same state
// directory as the heartbeat store.
//
// Parameters:
//   - dir: Directory to persist the boot-epoch token in
//
// Returns:
//   - *Check: New boot check
func New(dir string) *Check {
	return &Check{path: filepath.Join(dir, tokenFileName)}
}

// Epoch returns the current boot epoch token: the host's boot time as Unix
// seconds, formatted as a decimal string.
func (c *Check) Epoch(ctx context.Context) (string, error) {
	bootTime, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read host boot time: %w", err)
	}

	return strconv.FormatUint(bootTime, 10), nil
}

// IsStateStale reports whether the persisted token belongs to a previous
// boot. It never writes: the token is refreshed only by Commit, after the
// caller has acted on a stale verdict. A crash between the verdict and the
// store reset therefore leaves the stale token in place, and the next
// startup reaches the same verdict and retries the reset.
//
// The first run on a host has no token and is not considered stale. An
// unreadable boot time degrades to "not stale": a spurious clear would
// erase live peers' records, while a missed clear merely defers cleanup to
// the staleness threshold.
//
// Satisfies types.StalePredicate via the Predicate method.
func (c *Check) IsStateStale(ctx context.Context) (bool, error) {
	current, err := c.Epoch(ctx)
	if err != nil {
		return false, err
	}

	previous, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read boot-epoch token: %w", err)
	}

	return strings.TrimSpace(string(previous)) != current, nil
}

// Commit persists the current boot epoch token, marking the state as
// belonging to this boot session. Call it once IsStateStale's verdict has
// been fully acted on.
func (c *Check) Commit(ctx context.Context) error {
	current, err := c.Epoch(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, []byte(current), 0o644); err != nil {
		return fmt.Errorf("failed to persist boot-epoch token: %w", err)
	}

	return nil
}

// Predicate returns IsStateStale as a types.StalePredicate. Pair it with
// Commit so the token is refreshed after the reset completes:
//
//	mon, err := vigil.NewMonitor(&cfg, st,
//	    vigil.WithStalePredicate(check.Predicate()),
//	    vigil.WithStaleCommit(check.Commit),
//	)
func (c *Check) Predicate() types.StalePredicate {
	return c.IsStateStale
}
