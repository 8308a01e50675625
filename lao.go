package lao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/internal/runtime"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/events"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/aretw0/lao/pkg/registry"
)

// DefaultLockTTL bounds how long a distributed run lock survives a crashed owner.
const DefaultLockTTL = 10 * time.Minute

// Orchestrator runs workflows against an immutable plugin registry.
// Each Orchestrator is one workflow instance: at most one run is active at a
// time, and a request for a second run is rejected with domain.ErrRunInProgress.
type Orchestrator struct {
	reg    *registry.Registry
	engine *runtime.Engine
	logger *slog.Logger
	Name   string

	runtimeOpts  []runtime.Option
	registryOpts []registry.Option

	locker  ports.RunLocker
	lockTTL time.Duration

	mu      sync.Mutex
	running bool
	last    *domain.WorkflowResult
}

// Option defines a functional option for configuring the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithRetryPolicy sets how failed plugin calls are retried.
func WithRetryPolicy(p runtime.RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithRetryPolicy(p))
	}
}

// WithWorkers bounds concurrent plugin calls in parallel runs.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithWorkers(n))
	}
}

// WithName sets the workflow instance name, used as the distributed lock key.
func WithName(name string) Option {
	return func(o *Orchestrator) {
		o.Name = name
	}
}

// WithRunLocker extends the run guard across processes sharing a locker.
func WithRunLocker(l ports.RunLocker, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.locker = l
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// WithRegistryOptions configures the registry built by Open.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(o *Orchestrator) {
		o.registryOpts = append(o.registryOpts, opts...)
	}
}

// New creates an Orchestrator over an already loaded registry.
func New(reg *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reg:     reg,
		Name:    "default",
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.init()
	return o
}

// Open loads the plugins in pluginDir and returns an Orchestrator over them.
// Plugins that fail to load are reported and skipped; Open itself never fails.
func Open(ctx context.Context, pluginDir string, opts ...Option) (*Orchestrator, []error) {
	o := &Orchestrator{Name: "default", lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	regOpts := append([]registry.Option{registry.WithLogger(o.logger)}, o.registryOpts...)
	reg, errs := registry.LoadAll(ctx, pluginDir, regOpts...)
	o.reg = reg
	o.init()
	return o, errs
}

func (o *Orchestrator) init() {
	if o.reg == nil {
		o.reg, _ = registry.New()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	o.logger = o.logger.With("workflow", o.Name)

	opts := append([]runtime.Option{runtime.WithLogger(o.logger)}, o.runtimeOpts...)
	o.engine = runtime.NewEngine(o.reg, opts...)
}

// Registry returns the plugin registry.
func (o *Orchestrator) Registry() *registry.Registry { return o.reg }

// Plugins lists the descriptors of every loaded plugin, sorted by name.
func (o *Orchestrator) Plugins() []domain.PluginDescriptor { return o.reg.List() }

// Validate checks g without running it.
func (o *Orchestrator) Validate(g *domain.WorkflowGraph) error {
	_, err := graph.Validate(g)
	return err
}

// Running reports whether a run is in progress.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Graph returns a copy of the graph of the last completed run, or nil.
func (o *Orchestrator) Graph() *domain.WorkflowGraph {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	return o.last.Graph.Clone()
}

// LastResult returns a copy of the last completed result, or nil.
func (o *Orchestrator) LastResult() *domain.WorkflowResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	res := *o.last
	res.Graph = o.last.Graph.Clone()
	return &res
}

// Run validates g and starts executing a private copy of it. Validation
// errors are returned before any event is emitted. Later edits to g do not
// affect the run.
//
// Canceling ctx stops nodes that have not started yet.
func (o *Orchestrator) Run(ctx context.Context, g *domain.WorkflowGraph, parallel bool) (*Run, error) {
	plan, err := graph.Validate(g)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, domain.ErrRunInProgress
	}
	o.running = true
	o.mu.Unlock()

	unlock, err := o.lock(ctx)
	if err != nil {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
		return nil, err
	}

	work := g.Clone()
	work.Reset()

	runID := runtime.NewRunID()
	runCtx, cancel := context.WithCancel(runtime.ContextWithRunID(ctx, runID))
	r := &Run{
		ID:     runID,
		stream: events.NewStream(),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	emit := func(e domain.Event) {
		// The guard clears before completion is announced, so a consumer
		// reacting to the workflow event can start the next run.
		if e.Type == domain.EventWorkflowCompleted {
			o.finish(&domain.WorkflowResult{RunID: runID, Success: e.Workflow.Success, Graph: work}, unlock)
		}
		r.stream.Publish(e)
	}

	go func() {
		defer cancel()
		res := o.engine.Execute(runCtx, work, plan, parallel, emit)
		r.result = res
		close(r.done)
		r.stream.Close()
	}()

	return r, nil
}

func (o *Orchestrator) lock(ctx context.Context) (ports.UnlockFunc, error) {
	if o.locker == nil {
		return nil, nil
	}
	unlock, err := o.locker.TryLock(ctx, o.Name, o.lockTTL)
	if err != nil {
		if errors.Is(err, ports.ErrLockHeld) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRunInProgress, err)
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return unlock, nil
}

func (o *Orchestrator) finish(res *domain.WorkflowResult, unlock ports.UnlockFunc) {
	snapshot := *res
	snapshot.Graph = res.Graph.Clone()

	o.mu.Lock()
	o.last = &snapshot
	o.running = false
	o.mu.Unlock()

	if unlock != nil {
		if err := unlock(context.Background()); err != nil {
			o.logger.Warn("Failed to release run lock", "err", err)
		}
	}
}
