// Package host is the boundary between the deterministic core and the
// outside world. A Node owns one dispatcher and one command log: it
// applies submitted commands on a single logical thread, persists every
// accepted command with its events and state digest, and rebuilds state
// from the log on startup.
//
// Replay is structural, not a special mode: rebuilding state runs the
// same dispatcher code path as live application, and the recorded
// checkpoints make any divergence detectable at the exact log position
// where it happened.
package host
