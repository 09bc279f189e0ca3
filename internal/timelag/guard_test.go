package timelag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	vigiltest "github.com/arloliu/vigil/testing"
)

func TestGuard_Observe(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first observation establishes baseline without lag", func(t *testing.T) {
		clock := vigiltest.NewFakeClock(base)
		guard := New(200*time.Millisecond, 3, clock)

		elapsed := guard.Observe()
		require.Zero(t, elapsed)
		require.False(t, guard.DidLag())
	})

	t.Run("normal cadence does not lag", func(t *testing.T) {
		clock := vigiltest.NewFakeClock(base)
		guard := New(200*time.Millisecond, 3, clock)

		guard.Observe()
		clock.Advance(200 * time.Millisecond)
		elapsed := guard.Observe()

		require.Equal(t, 200*time.Millisecond, elapsed)
		require.False(t, guard.DidLag())
	})

	t.Run("gap within tolerance does not lag", func(t *testing.T) {
		clock := vigiltest.NewFakeClock(base)
		guard := New(200*time.Millisecond, 3, clock)

		guard.Observe()
		clock.Advance(550 * time.Millisecond) // < 3x interval
		guard.Observe()

		require.False(t, guard.DidLag())
	})

	t.Run("gap beyond tolerance flags a lag", func(t *testing.T) {
		clock := vigiltest.NewFakeClock(base)
		guard := New(200*time.Millisecond, 3, clock)

		guard.Observe()
		clock.Advance(5 * time.Second) // sleep/wake
		guard.Observe()

		require.True(t, guard.DidLag())
	})

	t.Run("lag clears on the next normal-cadence tick", func(t *testing.T) {
		clock := vigiltest.NewFakeClock(base)
		guard := New(200*time.Millisecond, 3, clock)

		guard.Observe()
		clock.Advance(5 * time.Second)
		guard.Observe()
		require.True(t, guard.DidLag())

		clock.Advance(200 * time.Millisecond)
		guard.Observe()
		require.False(t, guard.DidLag())
	})
}
