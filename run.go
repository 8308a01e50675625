package lao

import (
	"context"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/events"
)

// Run is a handle on one in-progress or completed workflow run.
type Run struct {
	ID string

	stream *events.Stream
	done   chan struct{}
	result domain.WorkflowResult
	cancel context.CancelFunc
}

// Events delivers every node transition followed by one workflow-completed
// event, then closes. Callers that do not read it must call Discard.
func (r *Run) Events() <-chan domain.Event { return r.stream.C() }

// Discard drops undelivered events and releases the delivery goroutine.
// The run itself continues.
func (r *Run) Discard() { r.stream.Cancel() }

// Cancel stops nodes that have not started yet. They end in error.
func (r *Run) Cancel() { r.cancel() }

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes or ctx is done.
func (r *Run) Wait(ctx context.Context) (domain.WorkflowResult, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return domain.WorkflowResult{}, ctx.Err()
	}
}

// Graph returns the run's final graph, or nil while the run is in progress.
func (r *Run) Graph() *domain.WorkflowGraph {
	select {
	case <-r.done:
		return r.result.Graph
	default:
		return nil
	}
}
