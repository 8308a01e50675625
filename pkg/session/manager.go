package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/lao"
	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/pkg/adapters/memory"
	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/events"
	"github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/ports"
	"github.com/aretw0/lao/pkg/registry"
)

// Manager implements ports.WorkflowService over a shared registry.
type Manager struct {
	reg   *registry.Registry
	store ports.ResultStore
	hub   *events.Hub

	locker  ports.RunLocker // Optional distributed run guard
	lockTTL time.Duration
	logger  *slog.Logger

	orchOpts []lao.Option

	mu        sync.Mutex
	workflows map[string]*workflow
	pending   sync.WaitGroup
}

// workflow is one live workflow id. saveMu orders result saves against Delete.
type workflow struct {
	orch *lao.Orchestrator

	saveMu  sync.Mutex
	deleted bool
}

// save stores res unless the workflow was deleted after the run finished.
func (w *workflow) save(ctx context.Context, store ports.ResultStore, id string, res *domain.WorkflowResult) (bool, error) {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	if w.deleted {
		return false, nil
	}
	return true, store.Save(ctx, id, res)
}

var _ ports.WorkflowService = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithStore sets where completed results are saved. Defaults to memory.
func WithStore(store ports.ResultStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithLocker extends each workflow's run guard across replicas.
func WithLocker(locker ports.RunLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
	}
}

// WithHub shares an existing event hub.
func WithHub(hub *events.Hub) Option {
	return func(m *Manager) {
		m.hub = hub
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithOrchestratorOptions are applied to every orchestrator the Manager creates.
func WithOrchestratorOptions(opts ...lao.Option) Option {
	return func(m *Manager) {
		m.orchOpts = append(m.orchOpts, opts...)
	}
}

// NewManager creates a Manager serving the plugins of reg.
func NewManager(reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		reg:       reg,
		workflows: make(map[string]*workflow),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = memory.NewStore()
	}
	if m.hub == nil {
		m.hub = events.NewHub(events.WithLogger(m.logger))
	}
	return m
}

// workflow gets or creates the entry of workflowID.
func (m *Manager) workflow(workflowID string) *workflow {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.workflows[workflowID]; ok {
		return w
	}
	opts := append([]lao.Option{
		lao.WithName(workflowID),
		lao.WithLogger(m.logger),
	}, m.orchOpts...)
	if m.locker != nil {
		opts = append(opts, lao.WithRunLocker(m.locker, m.lockTTL))
	}
	w := &workflow{orch: lao.New(m.reg, opts...)}
	m.workflows[workflowID] = w
	return w
}

// Plugins lists the loaded plugin descriptors.
func (m *Manager) Plugins() []domain.PluginDescriptor {
	return m.reg.List()
}

// Validate checks a graph without running it.
func (m *Manager) Validate(g *domain.WorkflowGraph) error {
	_, err := graph.Validate(g)
	return err
}

// Start launches a run of workflowID. Events go to the hub; the completed
// result is saved to the store.
func (m *Manager) Start(ctx context.Context, workflowID string, g *domain.WorkflowGraph, parallel bool) (string, error) {
	if workflowID == "" {
		return "", errors.New("workflow id is required")
	}
	w := m.workflow(workflowID)

	// The run outlives the request that started it.
	run, err := w.orch.Run(context.WithoutCancel(ctx), g, parallel)
	if err != nil {
		return "", err
	}
	m.logger.Info("Run started", "workflow", workflowID, "run_id", run.ID)

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		m.hub.Forward(workflowID, run.Events())

		res, _ := run.Wait(context.Background())
		saved, err := w.save(context.Background(), m.store, workflowID, &res)
		switch {
		case err != nil:
			m.logger.Error("Failed to save result", "workflow", workflowID, "run_id", run.ID, "err", err)
		case !saved:
			m.logger.Debug("Result dropped for deleted workflow", "workflow", workflowID, "run_id", run.ID)
		}
	}()
	return run.ID, nil
}

// Result returns the last completed result of workflowID, preferring the live
// orchestrator over the store.
func (m *Manager) Result(ctx context.Context, workflowID string) (*domain.WorkflowResult, error) {
	m.mu.Lock()
	w, ok := m.workflows[workflowID]
	m.mu.Unlock()
	if ok {
		if res := w.orch.LastResult(); res != nil {
			return res, nil
		}
	}
	res, err := m.store.Load(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("result of %q: %w", workflowID, err)
	}
	return res, nil
}

// Running reports whether workflowID has a run in progress.
func (m *Manager) Running(workflowID string) bool {
	m.mu.Lock()
	w, ok := m.workflows[workflowID]
	m.mu.Unlock()
	return ok && w.orch.Running()
}

// Subscribe streams live events of workflowID.
func (m *Manager) Subscribe(workflowID string) (<-chan domain.Event, func()) {
	return m.hub.Subscribe(workflowID)
}

// List returns the ids of workflows with a live orchestrator or a stored result.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(stored))
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		seen[id] = true
		ids = append(ids, id)
	}

	m.mu.Lock()
	for id := range m.workflows {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	sort.Strings(ids)
	return ids, nil
}

// Delete forgets workflowID. It fails with domain.ErrRunInProgress while the
// workflow is running. A result still being saved is dropped, not written back.
func (m *Manager) Delete(ctx context.Context, workflowID string) error {
	m.mu.Lock()
	w, ok := m.workflows[workflowID]
	if ok {
		if w.orch.Running() {
			m.mu.Unlock()
			return domain.ErrRunInProgress
		}
		delete(m.workflows, workflowID)
	}
	m.mu.Unlock()

	if !ok {
		return m.store.Delete(ctx, workflowID)
	}
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	w.deleted = true
	return m.store.Delete(ctx, workflowID)
}

// Wait blocks until every started run has been saved.
func (m *Manager) Wait() {
	m.pending.Wait()
}
