// Package graph checks a workflow graph before it runs and computes the
// execution plan the scheduler consumes.
//
// A graph is runnable when node ids are unique, every edge and input_from
// reference resolves, and the edges form no cycle. Validate reports every
// violation it finds and, on success, returns a Plan whose Levels group
// nodes into waves: a node's level is one more than the highest level of its
// predecessors, and roots are level 0.
package graph
