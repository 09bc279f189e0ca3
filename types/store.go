package types

import (
	"context"
	"time"
)

// Instance is one running process's liveness record in the shared store.
//
// A record is written only by its owning process. The single exception is
// removal: whichever process's checker first classifies the owner as crashed
// deletes the record on its behalf.
type Instance struct {
	// SessionID is the owner's opaque unique session identifier,
	// created once per process lifetime.
	SessionID string `json:"sessionId"`

	// LastHeartbeat is the wall-clock time of the most recent successful
	// heartbeat write, in Unix milliseconds.
	LastHeartbeat int64 `json:"lastHeartbeat"`

	// IsDebug marks instances running under a debugger. Informational only.
	IsDebug bool `json:"isDebug,omitempty"`
}

// HeartbeatAge returns how long ago the instance last heartbeated,
// relative to now.
func (i Instance) HeartbeatAge(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(i.LastHeartbeat))
}

// Meta is the small piece of shared metadata the store persists alongside
// the per-instance records.
type Meta struct {
	// LastCheckMillis is the wall-clock time of the most recent crash scan
	// performed by any instance, in Unix milliseconds. It drives the soft
	// primary election: an instance skips its scan when another instance
	// checked recently.
	LastCheckMillis int64 `json:"lastCheck"`

	// LastCheckBy is the session ID of the instance that recorded
	// LastCheckMillis. An instance never yields a tick to its own prior
	// claim, so a lone survivor keeps scanning every interval.
	LastCheckBy string `json:"lastCheckBy,omitempty"`

	// Epoch is an opaque token identifying the state generation, typically
	// derived from the host boot time. A mismatch at startup means every
	// record in the store predates the current boot and must be cleared.
	Epoch string `json:"epoch,omitempty"`
}

// HeartbeatMetadata carries the optional per-heartbeat fields an instance
// records alongside its timestamp.
type HeartbeatMetadata struct {
	// IsDebug marks the owning instance as running under a debugger.
	IsDebug bool
}

// HeartbeatStore is the durable shared store that independent OS processes
// coordinate through. There is no IPC channel or lock server; the store is
// the only shared mutable resource.
//
// Implementations must make individual writes atomic (a concurrent reader
// never observes a half-written record) but need no cross-process locking:
// the data model tolerates eventual, best-effort consistency.
type HeartbeatStore interface {
	// SendHeartbeat upserts the calling instance's record with the given
	// timestamp. Idempotent; each write overwrites the last.
	SendHeartbeat(ctx context.Context, sessionID string, at time.Time, meta HeartbeatMetadata) error

	// ListInstances returns all known instance records in no particular
	// order. Entries that do not look like instance records are ignored,
	// and an empty (or missing) store yields an empty slice, not an error.
	ListInstances(ctx context.Context) ([]Instance, error)

	// RemoveInstance deletes one instance's record. Removing a record that
	// is already absent is a no-op, not an error.
	RemoveInstance(ctx context.Context, sessionID string) error

	// ClearAll wipes every record and the shared metadata.
	ClearAll(ctx context.Context) error

	// Meta returns the shared metadata. A store with no metadata yet
	// returns the zero Meta, not an error.
	Meta(ctx context.Context) (Meta, error)

	// PutMeta overwrites the shared metadata.
	PutMeta(ctx context.Context, meta Meta) error
}
