package ports

import (
	"context"

	"github.com/aretw0/lao/pkg/domain"
)

// WorkflowService is the surface transport adapters (HTTP, MCP) drive.
type WorkflowService interface {
	// Plugins lists the loaded plugin descriptors.
	Plugins() []domain.PluginDescriptor

	// Validate checks a graph without running it.
	Validate(g *domain.WorkflowGraph) error

	// Start validates g and launches a run of workflowID in the background.
	// It returns domain.ErrRunInProgress if that workflow is already running.
	Start(ctx context.Context, workflowID string, g *domain.WorkflowGraph, parallel bool) (runID string, err error)

	// Result returns the last completed result of workflowID.
	Result(ctx context.Context, workflowID string) (*domain.WorkflowResult, error)

	// List returns the ids of known workflows, sorted.
	List(ctx context.Context) ([]string, error)

	// Subscribe streams live events of workflowID until unsubscribed.
	Subscribe(workflowID string) (<-chan domain.Event, func())
}
