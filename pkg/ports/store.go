package ports

import (
	"context"

	"github.com/aretw0/lao/pkg/domain"
)

// ResultStore keeps the last completed result of each workflow.
// It is a read model for collaborators, not a durable execution log.
type ResultStore interface {
	// Save replaces the stored result for workflowID.
	Save(ctx context.Context, workflowID string, res *domain.WorkflowResult) error

	// Load returns domain.ErrWorkflowNotFound if nothing is stored.
	Load(ctx context.Context, workflowID string) (*domain.WorkflowResult, error)

	// Delete removes the stored result for workflowID.
	Delete(ctx context.Context, workflowID string) error

	// List returns the ids of all stored workflows.
	List(ctx context.Context) ([]string, error)
}
