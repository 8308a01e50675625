// Package runtime is the workflow scheduler.
//
// Engine walks a validated graph either one node at a time in plan order or
// wave by wave with a bounded worker pool. Each node moves
// pending -> running -> success | error | cache, and every transition is
// emitted before the engine moves on. A node whose predecessor ended in error
// goes straight from pending to error and is never invoked; the skip reaches
// every transitive dependent while sibling branches keep running.
package runtime
