// Package events delivers engine events to consumers.
//
// A Stream belongs to a single run: it keeps every event in emission order and
// never blocks the emitting worker, however slowly it is read. A Hub fans the
// events of many runs out to live subscribers keyed by workflow id, and drops
// events for subscribers that fall behind.
package events
