// Package state implements a generic observable state container.
//
// A Store owns exactly one value of type S. Readers call GetState for the
// most recently committed value; writers call SetState or Update; observers
// register a Listener with Subscribe and are called once per commit.
//
// ARCHITECTURE:
//
// Commit Queue:
// Every write is appended to a FIFO of pending commits. Whichever caller finds
// the store idle becomes the drainer and applies pending commits one at a
// time: compute next value, publish it, then notify listeners. Writes made
// by a listener (re-entrant) are queued behind the current commit, so:
// - every listener observes every commit exactly once
// - listeners observe commits in commit order
// - a listener never sees a value that was superseded mid-notification
//
// Reads:
// GetState is a single atomic pointer load. It never blocks and never
// returns a partially applied value.
//
// Listener Isolation:
// A panicking listener is recovered and logged; delivery continues with the
// remaining listeners. The writer never observes a listener failure.
//
// Logical Clock
// Each commit is stamped with a monotonic sequence number from Clock.
package state
