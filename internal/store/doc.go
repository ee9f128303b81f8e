// Package store persists the accepted command log and its emitted events
// in SQLite. The log is append-only: rejected commands are never written,
// so the log is exactly the history every replica must agree on. Replay
// streams the log back through a fresh dispatcher and checks the state
// digest recorded at each position.
package store
