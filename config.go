package vigil

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for the Monitor.
//
// All duration fields accept standard Go duration strings like "10s", "1m"
// when loaded from YAML.
type Config struct {
	// SessionID is this instance's unique session identifier. Leave empty
	// to have the monitor generate one (a UUID) at construction.
	SessionID string `yaml:"sessionId"`

	// CheckInterval is the cadence of both heartbeat writes and crash
	// scans. Shorter intervals detect crashes faster but increase store
	// traffic. Recommended: 5-30 seconds.
	CheckInterval time.Duration `yaml:"checkInterval"`

	// StaleThresholdMultiplier sets the staleness threshold as a multiple
	// of CheckInterval: a peer whose heartbeat is older than
	// CheckInterval * StaleThresholdMultiplier is classified as crashed.
	// Must be large enough to absorb one or two missed ticks plus write
	// latency. Recommended: 4-6.
	StaleThresholdMultiplier int `yaml:"staleThresholdMultiplier"`

	// PrimaryGraceMultiplier sets the soft-election grace window as a
	// multiple of CheckInterval: an instance yields its scan tick when a
	// peer checked within the window. Must stay below
	// StaleThresholdMultiplier so a dead primary's silence is itself
	// detected. Recommended: 2.
	PrimaryGraceMultiplier int `yaml:"primaryGraceMultiplier"`

	// LagToleranceMultiplier sets the time-lag tolerance as a multiple of
	// CheckInterval: a tick arriving later than that is treated as a
	// sleep/wake gap and suppresses detection. Recommended: 3.
	LagToleranceMultiplier int `yaml:"lagToleranceMultiplier"`

	// OperationTimeout bounds each store operation (heartbeat write, scan
	// I/O). Recommended: 5 seconds.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// DevMode routes crash reports to the logger instead of the reporter
	// sink, for non-production builds.
	DevMode bool `yaml:"devMode"`

	// IsDebug marks this instance's heartbeat records as belonging to a
	// debug session. Informational only.
	IsDebug bool `yaml:"isDebug"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		CheckInterval:            10 * time.Second,
		StaleThresholdMultiplier: 5,
		PrimaryGraceMultiplier:   2,
		LagToleranceMultiplier:   3,
		OperationTimeout:         5 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = defaults.CheckInterval
	}
	if cfg.StaleThresholdMultiplier == 0 {
		cfg.StaleThresholdMultiplier = defaults.StaleThresholdMultiplier
	}
	if cfg.PrimaryGraceMultiplier == 0 {
		cfg.PrimaryGraceMultiplier = defaults.PrimaryGraceMultiplier
	}
	if cfg.LagToleranceMultiplier == 0 {
		cfg.LagToleranceMultiplier = defaults.LagToleranceMultiplier
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
}

// Validate checks configuration constraints and returns an error for
// invalid values. Call after SetDefaults.
//
// Returns:
//   - error: Describing the first violated constraint, or nil
func (cfg *Config) Validate() error {
	if cfg.CheckInterval <= 0 {
		return fmt.Errorf("%w: checkInterval must be positive, got %v", ErrInvalidConfig, cfg.CheckInterval)
	}
	if cfg.StaleThresholdMultiplier < 1 {
		return fmt.Errorf("%w: staleThresholdMultiplier must be >= 1, got %d", ErrInvalidConfig, cfg.StaleThresholdMultiplier)
	}
	if cfg.PrimaryGraceMultiplier < 1 {
		return fmt.Errorf("%w: primaryGraceMultiplier must be >= 1, got %d", ErrInvalidConfig, cfg.PrimaryGraceMultiplier)
	}
	if cfg.LagToleranceMultiplier < 1 {
		return fmt.Errorf("%w: lagToleranceMultiplier must be >= 1, got %d", ErrInvalidConfig, cfg.LagToleranceMultiplier)
	}
	if cfg.StaleThresholdMultiplier <= cfg.PrimaryGraceMultiplier {
		return fmt.Errorf("%w: staleThresholdMultiplier (%d) must exceed primaryGraceMultiplier (%d) so a dead primary is itself detectable",
			ErrInvalidConfig, cfg.StaleThresholdMultiplier, cfg.PrimaryGraceMultiplier)
	}
	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("%w: operationTimeout must be positive, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	return nil
}

// StaleThreshold returns the effective heartbeat age beyond which a peer is
// classified as crashed.
func (cfg *Config) StaleThreshold() time.Duration {
	return cfg.CheckInterval * time.Duration(cfg.StaleThresholdMultiplier)
}

// LoadConfig reads a YAML configuration file, applying defaults for any
// field the file omits.
//
// Parameters:
//   - path: YAML file path
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Read, parse or validation failure
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
