package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore
// implementation adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	workflowID := "contract-test-workflow-" + time.Now().Format("20060102150405")

	sample := func(runID string) *domain.WorkflowResult {
		return &domain.WorkflowResult{
			RunID:   runID,
			Success: false,
			Graph: &domain.WorkflowGraph{
				Name: "contract",
				Nodes: []domain.GraphNode{
					{ID: "a", Run: "Echo", Status: domain.StatusSuccess, Output: "hi"},
					{ID: "b", Run: "Echo", Status: domain.StatusError, Error: "boom", Attempt: 3},
				},
				Edges: []domain.GraphEdge{{From: "a", To: "b"}},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, workflowID, sample("run-1"))
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "run-1", loaded.RunID)
		assert.False(t, loaded.Success)
		require.NotNil(t, loaded.Graph)
		assert.Equal(t, "hi", loaded.Graph.Node("a").Output)
		assert.Equal(t, 3, loaded.Graph.Node("b").Attempt)
		assert.Equal(t, []domain.GraphEdge{{From: "a", To: "b"}}, loaded.Graph.Edges)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, workflowID, sample("run-2")))
		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, "run-2", loaded.RunID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+workflowID)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, workflowID, sample("run-3")))

		err := store.Delete(ctx, workflowID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, workflowID)
		assert.ErrorIs(t, err, domain.ErrWorkflowNotFound, "Load after Delete should return ErrWorkflowNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := workflowID + "-1"
		id2 := workflowID + "-2"
		_ = store.Save(ctx, id1, sample("r1"))
		_ = store.Save(ctx, id2, sample("r2"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunRunLockerContract verifies the TryLock semantics of a RunLocker.
func RunRunLockerContract(t *testing.T, locker RunLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	unlock, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.TryLock(ctx, key, time.Minute)
	assert.True(t, errors.Is(err, ErrLockHeld), "second TryLock should report ErrLockHeld, got %v", err)

	other, err := locker.TryLock(ctx, key+"-other", time.Minute)
	require.NoError(t, err, "different keys do not contend")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))

	again, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err, "lock is free after unlock")
	require.NoError(t, again(ctx))
}
