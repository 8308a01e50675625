package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lao/pkg/adapters/redis"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunResultStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	res := &domain.WorkflowResult{RunID: "r", Success: true, Graph: &domain.WorkflowGraph{}}

	require.NoError(t, store.Save(ctx, "wf-ttl", res))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "wf-ttl")

	// Key expiration is driven by miniredis' clock
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "wf-ttl")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestNewClient(t *testing.T) {
	mr, _ := newClient(t)

	client, err := redis.NewClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	_, err = redis.NewClient("not a url")
	assert.Error(t, err)
}
