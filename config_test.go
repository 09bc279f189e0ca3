package vigil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 10*time.Second, cfg.CheckInterval)
	require.Equal(t, 5, cfg.StaleThresholdMultiplier)
	require.Equal(t, 2, cfg.PrimaryGraceMultiplier)
	require.Equal(t, 3, cfg.LagToleranceMultiplier)
	require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	require.False(t, cfg.DevMode)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 50*time.Second, cfg.StaleThreshold())
}

func TestSetDefaults(t *testing.T) {
	t.Run("fills only missing fields", func(t *testing.T) {
		cfg := Config{CheckInterval: time.Second}
		SetDefaults(&cfg)

		require.Equal(t, time.Second, cfg.CheckInterval)
		require.Equal(t, 5, cfg.StaleThresholdMultiplier)
		require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		return cfg
	}

	t.Run("rejects non-positive interval", func(t *testing.T) {
		cfg := valid()
		cfg.CheckInterval = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects multipliers below one", func(t *testing.T) {
		cfg := valid()
		cfg.StaleThresholdMultiplier = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		cfg = valid()
		cfg.PrimaryGraceMultiplier = -1
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

		cfg = valid()
		cfg.LagToleranceMultiplier = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects stale threshold within the election grace window", func(t *testing.T) {
		cfg := valid()
		cfg.StaleThresholdMultiplier = 2
		cfg.PrimaryGraceMultiplier = 2
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects non-positive operation timeout", func(t *testing.T) {
		cfg := valid()
		cfg.OperationTimeout = -time.Second
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads yaml and applies defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vigil.yaml")
		content := []byte("checkInterval: 2s\nstaleThresholdMultiplier: 6\ndevMode: true\n")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 2*time.Second, cfg.CheckInterval)
		require.Equal(t, 6, cfg.StaleThresholdMultiplier)
		require.True(t, cfg.DevMode)
		// Omitted fields get defaults.
		require.Equal(t, 2, cfg.PrimaryGraceMultiplier)
		require.Equal(t, 5*time.Second, cfg.OperationTimeout)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vigil.yaml")
		require.NoError(t, os.WriteFile(path, []byte("checkInterval: ["), 0o644))

		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vigil.yaml")
		content := []byte("staleThresholdMultiplier: 2\nprimaryGraceMultiplier: 3\n")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		_, err := LoadConfig(path)
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file returns error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
