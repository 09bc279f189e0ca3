package heartbeat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arloliu/vigil/store"
	vigiltest "github.com/arloliu/vigil/testing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()

	st, err := store.NewFileStore(t.TempDir(), store.WithFileStoreLogger(vigiltest.NewTestLogger(t)))
	require.NoError(t, err)

	return st
}

func TestEmitter_Start(t *testing.T) {
	t.Run("publishes first heartbeat immediately", func(t *testing.T) {
		ctx := t.Context()
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.NoError(t, emitter.Start(ctx))
		require.True(t, emitter.IsStarted())

		// Visible before the first full interval elapses.
		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		require.Equal(t, "session-1", instances[0].SessionID)
		require.NotZero(t, instances[0].LastHeartbeat)

		require.NoError(t, emitter.Stop())
	})

	t.Run("returns error if session ID empty", func(t *testing.T) {
		st := newFileStore(t)

		emitter := New(st, "", time.Hour)
		require.ErrorIs(t, emitter.Start(t.Context()), ErrNoSessionID)
		require.False(t, emitter.IsStarted())
	})

	t.Run("returns error if already started", func(t *testing.T) {
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.NoError(t, emitter.Start(t.Context()))
		require.ErrorIs(t, emitter.Start(t.Context()), ErrAlreadyStarted)

		require.NoError(t, emitter.Stop())
	})

	t.Run("keeps heartbeating on the interval", func(t *testing.T) {
		ctx := t.Context()
		st := newFileStore(t)

		emitter := New(st, "session-1", 50*time.Millisecond)
		require.NoError(t, emitter.Start(ctx))

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		first := instances[0].LastHeartbeat

		require.Eventually(t, func() bool {
			instances, err := st.ListInstances(ctx)
			if err != nil || len(instances) != 1 {
				return false
			}

			return instances[0].LastHeartbeat > first
		}, 2*time.Second, 20*time.Millisecond, "heartbeat timestamp should advance")

		require.NoError(t, emitter.Stop())
	})

	t.Run("records debug flag", func(t *testing.T) {
		ctx := t.Context()
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour, WithDebugFlag(true))
		require.NoError(t, emitter.Start(ctx))

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		require.True(t, instances[0].IsDebug)

		require.NoError(t, emitter.Stop())
	})
}

func TestEmitter_Stop(t *testing.T) {
	t.Run("graceful stop removes own record", func(t *testing.T) {
		ctx := t.Context()
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.NoError(t, emitter.Start(ctx))
		require.NoError(t, emitter.Stop())
		require.False(t, emitter.IsStarted())

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Empty(t, instances, "graceful exit must leave no trace")
	})

	t.Run("stop before start returns error", func(t *testing.T) {
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.ErrorIs(t, emitter.Stop(), ErrNotStarted)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.NoError(t, emitter.Start(t.Context()))
		require.NoError(t, emitter.Stop())
		require.ErrorIs(t, emitter.Stop(), ErrNotStarted)
	})
}

func TestEmitter_SimulateCrash(t *testing.T) {
	t.Run("halts timer but leaves the record behind", func(t *testing.T) {
		ctx := t.Context()
		st := newFileStore(t)

		emitter := New(st, "session-1", 50*time.Millisecond)
		require.NoError(t, emitter.Start(ctx))
		require.NoError(t, emitter.SimulateCrash())
		require.False(t, emitter.IsStarted())

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1, "crash must leave a stale record")
		frozen := instances[0].LastHeartbeat

		// Timestamp no longer advances.
		time.Sleep(150 * time.Millisecond)
		instances, err = st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		require.Equal(t, frozen, instances[0].LastHeartbeat)
	})

	t.Run("crash before start returns error", func(t *testing.T) {
		st := newFileStore(t)

		emitter := New(st, "session-1", time.Hour)
		require.ErrorIs(t, emitter.SimulateCrash(), ErrNotStarted)
	})
}
