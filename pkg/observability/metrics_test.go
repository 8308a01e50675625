package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/lao"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/dsl"
	"github.com/aretw0/lao/pkg/observability"
	"github.com/aretw0/lao/pkg/plugin"
	"github.com/aretw0/lao/pkg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics(nil)
	h := m.Hooks()
	ctx := context.Background()

	h.OnNodeStatus(ctx, &domain.NodeEvent{Status: domain.StatusRunning})
	h.OnNodeStatus(ctx, &domain.NodeEvent{Status: domain.StatusSuccess})
	h.OnNodeStatus(ctx, &domain.NodeEvent{Status: domain.StatusRunning})
	h.OnInvoke(ctx, &domain.InvokeEvent{Plugin: "Echo", Duration: time.Millisecond})
	h.OnInvoke(ctx, &domain.InvokeEvent{Plugin: "Echo", Err: errors.New("boom")})
	h.OnInvoke(ctx, &domain.InvokeEvent{Plugin: "Echo", Cached: true})
	h.OnWorkflowDone(ctx, &domain.WorkflowEvent{Success: false})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeTransitions.WithLabelValues("running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodeTransitions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("Echo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("Echo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("Echo", "cached")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InvokeDuration))
}

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)

	assert.Panics(t, func() { observability.NewMetrics(reg) }, "collectors register once")
}

func TestHooks_DuringRun(t *testing.T) {
	m := observability.NewMetrics(nil)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := registry.MustNew(plugin.NewFunc("Upper", func(_ context.Context, in string) (string, error) {
		return strings.ToUpper(in), nil
	}))
	orch := lao.New(reg,
		lao.WithLifecycleHooks(m.Hooks()),
		lao.WithLifecycleHooks(observability.LogHooks(logger)),
	)

	b := dsl.New("metrics")
	b.Add("a").Run("Upper").Input("x")
	b.Add("b").Run("Upper").Input("x")

	run, err := orch.Run(context.Background(), b.MustBuild(), true)
	require.NoError(t, err)
	run.Discard()
	res, err := run.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("Upper", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("Upper", "cached")))
	assert.Contains(t, buf.String(), "Run finished")
	assert.Contains(t, buf.String(), "node_id=a")
}
