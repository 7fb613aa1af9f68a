// Package ripple is a fine-grained reactive dependency-tracking runtime:
// mutable signals, lazily cached computeds and side-effecting effects wired
// into one dependency graph that re-evaluates exactly what a write touched.
//
// Staleness is tri-state (clean / check / dirty). A write marks its direct
// dependents dirty and everything further downstream check; a check node
// polls its sources' version stamps before deciding to recompute, so a
// diamond-shaped graph recomputes its tip at most once per write and a
// recomputation that lands on an equal value stops propagation cold.
//
// Effects never run mid-write. They queue, and the queue drains when the
// outermost write or Batch ends; every effect in a flush sees the batch's
// final values.
//
// The engine assumes a single logical thread of evaluation and takes no
// locks. Asynchronous work belongs outside the graph: do it on another
// goroutine, then hand the result back as an ordinary signal write on the
// evaluation thread.
package ripple
