package session

import (
	"context"
	"testing"

	"github.com/aretw0/lao/pkg/adapters/memory"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowSave_SkippedAfterDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	res := &domain.WorkflowResult{RunID: "r1", Success: true, Graph: &domain.WorkflowGraph{Name: "g"}}

	w := &workflow{}
	saved, err := w.save(ctx, store, "wf", res)
	require.NoError(t, err)
	assert.True(t, saved)

	require.NoError(t, store.Delete(ctx, "wf"))
	w.deleted = true

	saved, err = w.save(ctx, store, "wf", res)
	require.NoError(t, err)
	assert.False(t, saved)
	_, err = store.Load(ctx, "wf")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}
