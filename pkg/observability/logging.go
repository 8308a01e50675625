package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lao/pkg/domain"
)

// LogHooks logs node transitions and plugin calls at debug level and run
// completion at info level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStatus: func(ctx context.Context, e *domain.NodeEvent) {
			level := slog.LevelDebug
			if e.Status == domain.StatusError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "Node status",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"plugin", e.Plugin,
				"status", e.Status,
				"attempt", e.Attempt,
				"progress", e.Progress,
			)
		},
		OnInvoke: func(ctx context.Context, e *domain.InvokeEvent) {
			attrs := []any{
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"plugin", e.Plugin,
				"attempt", e.Attempt,
				"duration", e.Duration,
				"cached", e.Cached,
			}
			if e.Err != nil {
				logger.DebugContext(ctx, "Plugin call failed", append(attrs, "err", e.Err)...)
				return
			}
			logger.DebugContext(ctx, "Plugin call", attrs...)
		},
		OnWorkflowDone: func(ctx context.Context, e *domain.WorkflowEvent) {
			logger.InfoContext(ctx, "Run finished",
				"run_id", e.RunID,
				"success", e.Success,
				"failed", e.Failed,
			)
		},
	}
}
