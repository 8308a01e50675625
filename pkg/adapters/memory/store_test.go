package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/lao/pkg/adapters/memory"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunResultStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	res := &domain.WorkflowResult{
		RunID: "r",
		Graph: &domain.WorkflowGraph{Nodes: []domain.GraphNode{{ID: "a", Output: "original"}}},
	}
	require.NoError(t, store.Save(ctx, "wf", res))

	res.Graph.Nodes[0].Output = "mutated after save"

	loaded, err := store.Load(ctx, "wf")
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.Graph.Nodes[0].Output)

	loaded.Graph.Nodes[0].Output = "mutated after load"
	again, _ := store.Load(ctx, "wf")
	assert.Equal(t, "original", again.Graph.Nodes[0].Output)
}
