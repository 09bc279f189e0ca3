package vigil

import "errors"

// Sentinel errors returned by the Monitor.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStoreRequired is returned when the heartbeat store is nil.
	ErrStoreRequired = errors.New("heartbeat store is required")

	// ErrAlreadyStarted is returned when Start is called on a running monitor.
	ErrAlreadyStarted = errors.New("monitor already started")

	// ErrNotStarted is returned when Stop is called on a monitor that hasn't
	// been started.
	ErrNotStarted = errors.New("monitor not started")
)
