// Package ledger implements the deterministic state-transition core of the
// group membership module.
//
// The package owns three pieces of replicated state: the group registry
// (per-group records), the membership store (per group/account status), and
// the creation nonce used to derive group identifiers. All mutation is
// routed through the Dispatcher, which applies one authenticated command at
// a time: every precondition is checked before the first write, so a
// command either fully applies (mutations plus emitted events) or is fully
// rejected with exactly one error code.
//
// The core performs no I/O, holds no locks, and never consults a wall
// clock or random source. Replicas that apply the same command sequence
// reach bit-identical state, which StateDigest makes checkable.
//
// Persistence, command ordering, and event propagation belong to the host
// (see the host package); the indexer that powers group browsing consumes
// the emitted events and is never read back.
package ledger
