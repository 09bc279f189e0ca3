// Package vigil detects ungraceful termination of peer processes through a
// shared durable store, with no IPC channel, lock server or shared memory.
//
// Each monitored process runs one Monitor. The monitor heartbeats a
// timestamped record into the store on a fixed cadence and scans its peers'
// records for staleness: a record whose heartbeat stops advancing beyond
// the staleness threshold marks its owner as crashed. The discovering
// instance emits one structured crash report on the crashed owner's behalf
// and prunes its record. A graceful shutdown removes the process's own
// record, which is the only signal peers have that the exit was
// intentional.
//
// # Quick Start
//
//	cfg := vigil.DefaultConfig()
//
//	st, err := store.NewFileStore(stateDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	check := bootcheck.New(stateDir)
//	mon, err := vigil.NewMonitor(&cfg, st,
//	    vigil.WithReporter(telemetrySink),
//	    vigil.WithStalePredicate(check.Predicate()),
//	    vigil.WithStaleCommit(check.Commit),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := mon.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mon.Stop(context.Background())
//
// # Key Design Points
//
//   - Soft primary election: on each tick an instance scans only when no
//     peer checked within the grace window, recorded via a shared last-check
//     timestamp in the store. Races are tolerated; reports are deduplicated
//     by session ID.
//   - Time-lag suppression: after an OS sleep/wake every heartbeat looks
//     ancient, so ticks arriving far off cadence suppress detection until
//     the cadence normalizes.
//   - Staleness reset: at startup a boot-epoch check clears records left by
//     a previous boot session, preventing a burst of phantom crash reports
//     after a clean reboot.
//   - Best-effort everywhere: store I/O failures are logged and retried on
//     the next tick; nothing in the monitoring path may terminate the
//     hosting process.
package vigil
