package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeStatus        EventType = "node_status"
	EventWorkflowCompleted EventType = "workflow_completed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent reports one status transition of a node.
type NodeEvent struct {
	EventBase
	NodeID  string `json:"node_id"`
	Plugin  string `json:"plugin"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	Attempt int    `json:"attempt"`

	// Progress is the fraction of nodes in a terminal state, in [0, 1].
	Progress float64 `json:"progress"`
}

// WorkflowEvent is emitted once, after every node reached a terminal state.
type WorkflowEvent struct {
	EventBase
	Success bool     `json:"success"`
	Failed  []string `json:"failed,omitempty"`
}

// InvokeEvent describes a single plugin call made by the engine.
type InvokeEvent struct {
	RunID    string
	NodeID   string
	Plugin   string
	Attempt  int
	Duration time.Duration
	Cached   bool
	Err      error
}

// Event is the envelope delivered to subscribers. Exactly one of Node or
// Workflow is set, matching Type.
type Event struct {
	Type     EventType      `json:"type"`
	Node     *NodeEvent     `json:"node,omitempty"`
	Workflow *WorkflowEvent `json:"workflow,omitempty"`
}

// NewNodeEvent wraps a node transition in an Event envelope.
func NewNodeEvent(e *NodeEvent) Event {
	e.Type = EventNodeStatus
	return Event{Type: EventNodeStatus, Node: e}
}

// NewWorkflowEvent wraps a completion in an Event envelope.
func NewWorkflowEvent(e *WorkflowEvent) Event {
	e.Type = EventWorkflowCompleted
	return Event{Type: EventWorkflowCompleted, Workflow: e}
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks may be called from several workers at once.
type LifecycleHooks struct {
	OnNodeStatus   func(context.Context, *NodeEvent)
	OnInvoke       func(context.Context, *InvokeEvent)
	OnWorkflowDone func(context.Context, *WorkflowEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeStatus:   chain(h.OnNodeStatus, other.OnNodeStatus),
		OnInvoke:       chain(h.OnInvoke, other.OnInvoke),
		OnWorkflowDone: chain(h.OnWorkflowDone, other.OnWorkflowDone),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
