// Package store provides durable heartbeat store backends.
//
// A heartbeat store is the single shared mutable resource that independent
// OS processes coordinate through: each instance writes its own liveness
// record, every instance may read all records, and a record is deleted
// either by its owner on graceful shutdown or by a peer's checker once the
// owner is classified as crashed.
//
// Two backends are provided:
//
//   - FileStore: one JSON file per instance under a shared state directory.
//     This is the default; it needs nothing but a filesystem both processes
//     can reach, and relies on write-temp-then-rename for atomicity.
//   - KVStore: a NATS JetStream KeyValue bucket. Useful when the monitored
//     processes already share a NATS deployment and a common directory is
//     unavailable (containers, remote hosts).
//
// Both backends implement types.HeartbeatStore and are interchangeable.
// Consistency is best-effort by design: a reader may observe a record a
// tick late, but never a half-written one.
package store
