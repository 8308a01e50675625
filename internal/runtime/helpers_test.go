package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/lao/internal/runtime"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/dsl"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/registry"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("temporary failure")

// counted wraps fn and counts its invocations.
type counted struct {
	calls atomic.Int32
	fn    plugin.RunFunc
}

func (c *counted) plugin(name string) *plugin.Func {
	return plugin.NewFunc(name, func(ctx context.Context, in string) (string, error) {
		c.calls.Add(1)
		return c.fn(ctx, in)
	})
}

func upper() *counted {
	return &counted{fn: func(_ context.Context, in string) (string, error) { return strings.ToUpper(in), nil }}
}

func echo() *counted {
	return &counted{fn: func(_ context.Context, in string) (string, error) { return in, nil }}
}

// failing fails the first n calls and then echoes.
func failing(n int32) *counted {
	c := &counted{}
	c.fn = func(_ context.Context, in string) (string, error) {
		if c.calls.Load() <= n {
			return "", errFlaky
		}
		return in + "!", nil
	}
	return c
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) emit(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// statuses returns the statuses node id went through, in order.
func (r *recorder) statuses(id string) []domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Status
	for _, e := range r.events {
		if e.Node != nil && e.Node.NodeID == id {
			out = append(out, e.Node.Status)
		}
	}
	return out
}

// position returns the index of the first event for id with status s, or -1.
func (r *recorder) position(id string, s domain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e.Node != nil && e.Node.NodeID == id && e.Node.Status == s {
			return i
		}
	}
	return -1
}

// first returns the index of the first event for id, or -1.
func (r *recorder) first(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e.Node != nil && e.Node.NodeID == id {
			return i
		}
	}
	return -1
}

// terminal returns the index of the terminal event for id, or -1.
func (r *recorder) terminal(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e.Node != nil && e.Node.NodeID == id && e.Node.Status.Terminal() {
			return i
		}
	}
	return -1
}

func (r *recorder) last() domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newEngine(t *testing.T, plugins map[string]*counted, opts ...runtime.Option) *runtime.Engine {
	t.Helper()
	var ps []plugin.Plugin
	for name, c := range plugins {
		ps = append(ps, c.plugin(name))
	}
	reg, errs := registry.New(ps...)
	require.Empty(t, errs)

	opts = append([]runtime.Option{runtime.WithRetryPolicy(runtime.RetryPolicy{Limit: 2})}, opts...)
	return runtime.NewEngine(reg, opts...)
}

func execute(t *testing.T, e *runtime.Engine, b *dsl.Builder, parallel bool) (domain.WorkflowResult, *recorder) {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	plan, err := graph.Validate(g)
	require.NoError(t, err)

	rec := &recorder{}
	res := e.Execute(context.Background(), g, plan, parallel, rec.emit)
	return res, rec
}
