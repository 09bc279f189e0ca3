// Package testing provides helpers for testing vigil components.
//
// It includes an embedded NATS server with JetStream for exercising the KV
// store backend without external dependencies, a logger that writes through
// testing.T, a crash-report capture sink, and a settable fake clock for
// deterministic staleness arithmetic.
package testing
