package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/registry"
	"golang.org/x/sync/errgroup"
)

// Registry is the part of the plugin registry the engine uses.
type Registry interface {
	Get(name string) (*registry.Handle, bool)
	Admit(h *registry.Handle, input string) error
	Call(ctx context.Context, h *registry.Handle, input string) (string, error)
}

// Emitter receives every event of a run, in emission order per node.
// It is called from worker goroutines and must not block.
type Emitter func(domain.Event)

// MessageCanceled is the error recorded on nodes that never started because
// the run was canceled.
const MessageCanceled = "run canceled"

// Engine executes validated workflow graphs against a plugin registry.
// It holds no per-run state and may run several graphs at once.
type Engine struct {
	reg     Registry
	retry   RetryPolicy
	workers int
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetryPolicy sets the retry policy for failed invocations.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) {
		e.retry = p
	}
}

// WithWorkers bounds the number of concurrent invocations in parallel mode.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine bound to reg.
func NewEngine(reg Registry, opts ...Option) *Engine {
	e := &Engine{
		reg:     reg,
		retry:   DefaultRetryPolicy(),
		workers: goruntime.GOMAXPROCS(0),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the parallel pool size.
func (e *Engine) Workers() int { return e.workers }

// Execute runs g to completion and returns the aggregate result. g is the
// run's private working copy: Execute resets it and records every node's
// final status, output and error on it. plan must come from graph.Validate(g).
//
// Canceling ctx stops nodes that have not started yet; they end in error.
// Calls already in flight run to completion.
func (e *Engine) Execute(ctx context.Context, g *domain.WorkflowGraph, plan *graph.Plan, parallel bool, emit Emitter) domain.WorkflowResult {
	runID, ok := RunIDFromContext(ctx)
	if !ok {
		runID = NewRunID()
	}
	if emit == nil {
		emit = func(domain.Event) {}
	}

	g.Reset()
	r := &run{
		engine: e,
		id:     runID,
		g:      g,
		plan:   plan,
		emit:   emit,
		index:  make(map[string]int, len(g.Nodes)),
		cache:  newMemo(),
		logger: e.logger.With("run_id", runID),
	}
	for i, n := range g.Nodes {
		r.index[n.ID] = i
	}

	mode := "sequential"
	if parallel {
		mode = "parallel"
	}
	r.logger.Info("Run started", "workflow", g.Name, "nodes", len(g.Nodes), "mode", mode)
	start := time.Now()

	if parallel {
		r.runWaves(ctx)
	} else {
		for _, id := range plan.Order() {
			r.executeNode(ctx, id)
		}
	}

	failed := g.Failed()
	result := domain.WorkflowResult{RunID: runID, Success: len(failed) == 0, Graph: g}

	ev := &domain.WorkflowEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), RunID: runID},
		Success:   result.Success,
		Failed:    failed,
	}
	emit(domain.NewWorkflowEvent(ev))
	if e.hooks.OnWorkflowDone != nil {
		e.hooks.OnWorkflowDone(ctx, ev)
	}

	r.logger.Info("Run finished", "success", result.Success, "failed", len(failed), "duration", time.Since(start))
	return result
}

// run is the state of one Execute call.
type run struct {
	engine *Engine
	id     string
	g      *domain.WorkflowGraph
	plan   *graph.Plan
	emit   Emitter
	cache  *memo
	logger *slog.Logger

	// mu guards node fields, the terminal counter and event emission.
	mu       sync.Mutex
	index    map[string]int
	terminal int
}

// runWaves executes the plan's levels one after another. Every node of a
// wave reaches a terminal state before the next wave starts.
func (r *run) runWaves(ctx context.Context) {
	for level, wave := range r.plan.Levels {
		r.logger.Debug("Wave started", "level", level, "nodes", len(wave))

		var g errgroup.Group
		g.SetLimit(r.engine.workers)
		for _, id := range wave {
			g.Go(func() error {
				r.executeNode(ctx, id)
				return nil
			})
		}
		_ = g.Wait()
	}
}

// snapshot returns a copy of node id under the run lock.
func (r *run) snapshot(id string) domain.GraphNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.g.Nodes[r.index[id]]
}

// transition mutates node id, then emits the resulting event before
// returning. Hooks run after the lock is released.
func (r *run) transition(ctx context.Context, id string, mutate func(n *domain.GraphNode)) {
	r.mu.Lock()
	n := &r.g.Nodes[r.index[id]]
	wasTerminal := n.Status.Terminal()
	mutate(n)
	if n.Status.Terminal() && !wasTerminal {
		r.terminal++
	}

	ev := &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), RunID: r.id},
		NodeID:    n.ID,
		Plugin:    n.Run,
		Status:    n.Status,
		Message:   n.Message,
		Output:    n.Output,
		Error:     n.Error,
		Attempt:   n.Attempt,
	}
	if total := len(r.g.Nodes); total > 0 {
		ev.Progress = float64(r.terminal) / float64(total)
	}
	r.emit(domain.NewNodeEvent(ev))
	r.mu.Unlock()

	if hook := r.engine.hooks.OnNodeStatus; hook != nil {
		hook(ctx, ev)
	}
}

func (r *run) fail(ctx context.Context, id, msg string) {
	r.transition(ctx, id, func(n *domain.GraphNode) {
		n.Status = domain.StatusError
		n.Message = msg
		n.Error = msg
	})
}

// executeNode drives one node from pending to a terminal state.
func (r *run) executeNode(ctx context.Context, id string) {
	if ctx.Err() != nil {
		r.fail(ctx, id, MessageCanceled)
		return
	}

	for _, p := range r.plan.Predecessors(id) {
		if r.snapshot(p).Status == domain.StatusError {
			r.logger.Warn("Skipping node due to upstream failure", "node_id", id, "dependency", p)
			r.fail(ctx, id, fmt.Sprintf("skipped due to upstream failure of '%s'", p))
			return
		}
	}

	node := r.snapshot(id)
	input := node.Input
	if src, ok := r.plan.PrimaryInput(id); ok {
		if up := r.snapshot(src); up.Status.Succeeded() {
			input = up.Output
		}
	}

	h, ok := r.engine.reg.Get(node.Run)
	if !ok {
		r.fail(ctx, id, fmt.Sprintf("%v: %q", domain.ErrPluginNotFound, node.Run))
		return
	}

	key := cacheKey{plugin: node.Run, input: input}
	out, hit, err := r.cache.claim(ctx, key)
	if err != nil {
		r.fail(ctx, id, MessageCanceled)
		return
	}
	if hit {
		r.invoked(ctx, id, node.Run, 0, 0, true, nil)
		r.transition(ctx, id, func(n *domain.GraphNode) {
			n.Status = domain.StatusCache
			n.Output = out
			n.Message = "reused output of an identical call"
		})
		return
	}

	// Rejected input never reaches running.
	if err := r.engine.reg.Admit(h, input); err != nil {
		r.logger.Warn("Node input rejected", "node_id", id, "plugin", h.Name(), "err", err)
		r.transition(ctx, id, func(n *domain.GraphNode) {
			n.Status = domain.StatusError
			n.Attempt = 1
			n.Message = "failed"
			n.Error = err.Error()
		})
		r.cache.settle(key, "", false)
		return
	}

	out, err = r.invoke(ctx, id, h, input)
	r.cache.settle(key, out, err == nil)
}

// invoke runs the plugin with retries and records the outcome on the node.
func (r *run) invoke(ctx context.Context, id string, h *registry.Handle, input string) (string, error) {
	policy := r.engine.retry
	// In-flight calls are atomic: cancellation only stops later attempts.
	callCtx := context.WithoutCancel(ctx)

	attempt := 0
	for {
		r.transition(ctx, id, func(n *domain.GraphNode) {
			n.Status = domain.StatusRunning
			n.Attempt = attempt
			n.Message = "running"
			if attempt > 0 {
				n.Message = fmt.Sprintf("retry %d of %d", attempt, policy.Limit)
			}
		})

		start := time.Now()
		out, err := r.engine.reg.Call(callCtx, h, input)
		r.invoked(ctx, id, h.Name(), attempt, time.Since(start), false, err)

		if err == nil {
			r.transition(ctx, id, func(n *domain.GraphNode) {
				n.Status = domain.StatusSuccess
				n.Output = out
				n.Message = "completed"
			})
			return out, nil
		}

		attempt++
		msg := err.Error()
		if msg == "" {
			msg = "invocation failed"
		}

		if !retryable(err) || attempt > policy.Limit {
			r.logger.Warn("Node failed", "node_id", id, "plugin", h.Name(), "attempt", attempt, "err", err)
			r.transition(ctx, id, func(n *domain.GraphNode) {
				n.Status = domain.StatusError
				n.Attempt = attempt
				n.Message = "failed"
				n.Error = msg
			})
			return "", err
		}

		r.logger.Debug("Retrying node", "node_id", id, "attempt", attempt, "err", err)
		if werr := sleep(ctx, policy.Delay(attempt)); werr != nil {
			r.transition(ctx, id, func(n *domain.GraphNode) {
				n.Status = domain.StatusError
				n.Attempt = attempt
				n.Message = MessageCanceled
				n.Error = errors.Join(err, errors.New(MessageCanceled)).Error()
			})
			return "", werr
		}
	}
}

func (r *run) invoked(ctx context.Context, id, plugin string, attempt int, d time.Duration, cached bool, err error) {
	hook := r.engine.hooks.OnInvoke
	if hook == nil {
		return
	}
	hook(ctx, &domain.InvokeEvent{
		RunID:    r.id,
		NodeID:   id,
		Plugin:   plugin,
		Attempt:  attempt,
		Duration: d,
		Cached:   cached,
		Err:      err,
	})
}
