package lao_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lao"
	redisadapter "github.com/aretw0/lao/pkg/adapters/redis"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/dsl"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/registry"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper() *plugin.Func {
	return plugin.NewFunc("Upper", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	})
}

// gate blocks every call until release is closed.
func gate(release <-chan struct{}, started chan<- struct{}) *plugin.Func {
	var once sync.Once
	return plugin.NewFunc("Gate", func(_ context.Context, in string) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return in, nil
	})
}

func pipeline() *domain.WorkflowGraph {
	b := dsl.New("pipeline")
	b.Add("a").Run("Upper").Input("hello").Then("b").Run("Upper")
	return b.MustBuild()
}

func drain(t *testing.T, r *lao.Run) []domain.Event {
	t.Helper()
	var evs []domain.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-r.Events():
			if !ok {
				return evs
			}
			evs = append(evs, e)
		case <-timeout:
			t.Fatal("timed out waiting for run events")
		}
	}
}

func TestRun_Completes(t *testing.T) {
	orch := lao.New(registry.MustNew(upper()))

	r, err := orch.Run(context.Background(), pipeline(), false)
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)

	evs := drain(t, r)
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, domain.EventWorkflowCompleted, last.Type)
	assert.True(t, last.Workflow.Success)

	res, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, r.ID, res.RunID)
	assert.Equal(t, "HELLO", r.Graph().Node("b").Output)

	assert.False(t, orch.Running())
	assert.Equal(t, "HELLO", orch.Graph().Node("a").Output)
	assert.Equal(t, r.ID, orch.LastResult().RunID)
}

func TestRun_ValidationErrorBeforeAnyEvent(t *testing.T) {
	orch := lao.New(registry.MustNew(upper()))

	g := pipeline()
	g.Edges = append(g.Edges, domain.GraphEdge{From: "b", To: "a"})

	r, err := orch.Run(context.Background(), g, true)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, graph.ErrCycle)
	assert.False(t, orch.Running())
	assert.Nil(t, orch.LastResult())
}

func TestRun_RejectsSecondRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	orch := lao.New(registry.MustNew(gate(release, started)))

	b := dsl.New("slow")
	b.Add("only").Run("Gate").Input("x")
	g := b.MustBuild()

	r, err := orch.Run(context.Background(), g, false)
	require.NoError(t, err)
	defer r.Discard()
	<-started

	assert.True(t, orch.Running())
	_, err = orch.Run(context.Background(), g, false)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(release)
	_, err = r.Wait(context.Background())
	require.NoError(t, err)

	// The guard is clear once completion has been observed.
	r2, err := orch.Run(context.Background(), g, false)
	require.NoError(t, err)
	r2.Discard()
	_, err = r2.Wait(context.Background())
	require.NoError(t, err)
}

func TestRun_NextRunFromCompletionEvent(t *testing.T) {
	orch := lao.New(registry.MustNew(upper()))

	r, err := orch.Run(context.Background(), pipeline(), false)
	require.NoError(t, err)

	for e := range r.Events() {
		if e.Type != domain.EventWorkflowCompleted {
			continue
		}
		next, err := orch.Run(context.Background(), pipeline(), true)
		require.NoError(t, err)
		next.Discard()
		_, err = next.Wait(context.Background())
		require.NoError(t, err)
	}
}

func TestRun_WorkingCopyIsolation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	orch := lao.New(registry.MustNew(gate(release, started), upper()))

	b := dsl.New("iso")
	b.Add("a").Run("Gate").Input("original").Then("b").Run("Upper")
	g := b.MustBuild()

	r, err := orch.Run(context.Background(), g, false)
	require.NoError(t, err)
	defer r.Discard()
	<-started

	g.Node("b").Run = "Missing"
	g.Nodes[0].Status = domain.StatusError
	close(release)

	res, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ORIGINAL", res.Graph.Node("b").Output)
	assert.Equal(t, domain.StatusError, g.Nodes[0].Status, "caller graph is never written by the run")
	assert.Empty(t, g.Node("b").Output)
}

func TestRun_CancelStopsPendingNodes(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	orch := lao.New(registry.MustNew(gate(release, started), upper()))

	b := dsl.New("cancel")
	b.Add("a").Run("Gate").Input("x").Then("b").Run("Upper")

	r, err := orch.Run(context.Background(), b.MustBuild(), false)
	require.NoError(t, err)
	defer r.Discard()
	<-started

	r.Cancel()
	close(release)

	res, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, domain.StatusSuccess, res.Graph.Node("a").Status)
	assert.Equal(t, domain.StatusError, res.Graph.Node("b").Status)
}

func TestRun_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := redisadapter.NewLocker(client, "")
	release := make(chan struct{})
	started := make(chan struct{})

	first := lao.New(registry.MustNew(gate(release, started)), lao.WithName("shared"), lao.WithRunLocker(locker, time.Minute))
	second := lao.New(registry.MustNew(upper()), lao.WithName("shared"), lao.WithRunLocker(locker, time.Minute))

	b := dsl.New("locked")
	b.Add("only").Run("Gate").Input("x")

	r, err := first.Run(context.Background(), b.MustBuild(), false)
	require.NoError(t, err)
	defer r.Discard()
	<-started

	_, err = second.Run(context.Background(), pipeline(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRunInProgress))
	assert.False(t, second.Running())

	close(release)
	_, err = r.Wait(context.Background())
	require.NoError(t, err)

	r2, err := second.Run(context.Background(), pipeline(), false)
	require.NoError(t, err)
	r2.Discard()
	res, err := r2.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestOpen_MissingDirectory(t *testing.T) {
	orch, errs := lao.Open(context.Background(), t.TempDir()+"/missing",
		lao.WithRegistryOptions(registry.WithPlugins(upper())))
	require.NotNil(t, orch)
	assert.Empty(t, errs)
	assert.Equal(t, 1, orch.Registry().Len())
	assert.Equal(t, "Upper", orch.Plugins()[0].Name)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(lao.Version))
}
