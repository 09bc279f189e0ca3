// Package heartbeat provides periodic liveness writes for one monitored
// process.
//
// Each process publishes a timestamped record to the shared heartbeat store
// at a regular interval. Peer processes scan those records to detect crashes:
// a record whose timestamp stops advancing beyond the staleness threshold
// marks its owner as crashed.
//
// # Emitter Lifecycle
//
//  1. Create emitter with New(store, sessionID, interval)
//  2. Start publishing with Start(ctx) — the first heartbeat fires
//     immediately so a just-started instance is visible to peers without
//     waiting a full interval
//  3. Stop publishing with Stop() — the instance's record is removed, which
//     is how a graceful exit is distinguished from a crash (a crashed
//     instance leaves a stale record; a graceful one leaves none)
//
// Heartbeat write failures are logged and swallowed: a missed heartbeat is
// self-correcting on the next interval, and nothing in this path may
// terminate the hosting process.
package heartbeat
