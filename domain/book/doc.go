// Package book maintains the live state of a limit order book driven by
// a sequential stream of order lifecycle events: submissions, partial
// cancellations, deletions, and visible or hidden executions.
//
// Each side is indexed by an unbalanced binary search tree of price
// levels; each level owns a doubly linked FIFO of resting orders and
// keeps aggregate volume and order count consistent with its queue. The
// book tracks no matching logic — it reconstructs state from a tape, it
// does not cross orders.
//
// The package is strictly single-writer. Embedding services must
// serialize HandleEvent and the query methods behind one exclusion
// discipline; see the service package.
package book
