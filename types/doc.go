// Package types defines the shared interfaces and records used across the
// vigil library.
//
// It exists to break circular dependencies: store backends, the heartbeat
// emitter, and the crash checker all depend on these contracts without
// depending on each other. Application code usually imports the root vigil
// package, which re-exports the common types.
package types
