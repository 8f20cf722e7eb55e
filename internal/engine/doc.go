// Package engine serializes every inbound event through one dispatch function.
//
// Proximity reports and player commands arrive as Event values. Each event
// is handled to completion before the next one starts: no two handlers ever
// interleave, so a machine's inventory and activation flags are only mutated
// by one goroutine at a time.
//
// Two entry points share the same Dispatch:
//
//   - Dispatch(ctx, ev) runs an event synchronously on the caller's goroutine.
//     The harness and CLI script runner use this.
//   - Enqueue(ev) + Run(ctx) push events onto an unbounded FIFO drained by a
//     single Run goroutine. The websocket bridge uses this and receives the
//     Result on ev.Reply.
//
// Dispatch must not be called concurrently with Run.
//
// Every event is stamped with a seq from a monotonic logical clock, never a
// wall-clock timestamp. When a journal is configured the event and every
// transaction it triggered are appended under that seq. Journal failures are
// logged and never fail the dispatch.
//
// Error handling in Run is "log and continue": a failed event is logged with
// its full context and the loop moves on. Cancelling Run's context stops it
// without dispatching what is still queued; those events get a STOPPED
// error on their Reply, and Done() closes once Run has returned.
package engine
