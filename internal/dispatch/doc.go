// Package dispatch feeds graph events from many producers into one store.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// Producers call Enqueue from any goroutine. Exactly one goroutine runs
// Run (or Drain), which dequeues in FIFO order and reduces each event into
// the graph store. Reduction order therefore equals enqueue order.
//
// Event Processing Flow:
// 1. Enqueue stamps the event with a seq (logical clock) and an ID
// 2. Run dequeues one envelope at a time
// 3. When a journal is attached the envelope is appended first
// 4. The event is reduced into the store; subscribers run on this goroutine
//
// Errors are logged and processing continues. A failed journal append never
// blocks reduction and a bad event never stops the loop.
package dispatch
