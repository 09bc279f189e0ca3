package bootcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheck_IsStateStale(t *testing.T) {
	t.Run("first run is not stale", func(t *testing.T) {
		check := New(t.TempDir())

		stale, err := check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.False(t, stale)
	})

	t.Run("same boot is not stale after commit", func(t *testing.T) {
		check := New(t.TempDir())

		require.NoError(t, check.Commit(t.Context()))

		stale, err := check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.False(t, stale)
	})

	t.Run("token from a different boot is stale", func(t *testing.T) {
		dir := t.TempDir()
		check := New(dir)

		// Token written by a run on a previous boot.
		require.NoError(t, os.WriteFile(filepath.Join(dir, tokenFileName), []byte("12345"), 0o644))

		stale, err := check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.True(t, stale)
	})

	t.Run("stale verdict persists until committed", func(t *testing.T) {
		dir := t.TempDir()
		check := New(dir)

		require.NoError(t, os.WriteFile(filepath.Join(dir, tokenFileName), []byte("12345"), 0o644))

		// Checking does not refresh the token: a process that crashes after
		// the verdict but before resetting the store must reach the same
		// verdict on its next startup.
		stale, err := check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.True(t, stale)

		stale, err = check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.True(t, stale)

		// Commit marks the reset as done; the next check is clean.
		require.NoError(t, check.Commit(t.Context()))

		stale, err = check.IsStateStale(t.Context())
		require.NoError(t, err)
		require.False(t, stale)
	})

	t.Run("epoch is a stable decimal string", func(t *testing.T) {
		check := New(t.TempDir())

		a, err := check.Epoch(t.Context())
		require.NoError(t, err)
		require.NotEmpty(t, a)

		b, err := check.Epoch(t.Context())
		require.NoError(t, err)
		require.Equal(t, a, b)
	})
}
