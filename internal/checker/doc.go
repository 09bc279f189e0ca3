// Package checker scans the shared heartbeat store for crashed peers.
//
// Every monitored process runs a checker on the same cadence as its
// heartbeat emitter. On each tick the checker decides whether it is the
// primary for that tick via a soft, non-blocking election: the store holds a
// shared last-check timestamp, and an instance scans only when no peer has
// checked within the grace window, claiming the tick by advancing the
// timestamp first. This is a heuristic, not mutual exclusion — duplicate
// scans are tolerated because only the first remover of a record can report
// its crash, and reports are additionally deduplicated by session ID.
//
// A scan classifies any record whose heartbeat age exceeds the staleness
// threshold as crashed, emits one crash report, and removes the record on
// the crashed owner's behalf. Scans are suppressed entirely while the
// time-lag guard flags a probable sleep/wake gap, since every record looks
// ancient right after the host resumes.
package checker
