package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/lao/pkg/domain"
)

// Store implements ports.ResultStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.WorkflowResult
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.WorkflowResult),
	}
}

// Save keeps a deep copy of res.
func (s *Store) Save(ctx context.Context, workflowID string, res *domain.WorkflowResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[workflowID] = clone(res)
	return nil
}

// Load returns a copy so callers cannot mutate the stored graph.
func (s *Store) Load(ctx context.Context, workflowID string) (*domain.WorkflowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.data[workflowID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return clone(res), nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workflowID)
	return nil
}

// List returns the stored workflow ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func clone(res *domain.WorkflowResult) *domain.WorkflowResult {
	c := *res
	c.Graph = res.Graph.Clone()
	return &c
}
