package events

import (
	"log/slog"
	"sync"

	"github.com/aretw0/lao/internal/logging"
	"github.com/aretw0/lao/pkg/domain"
)

// DefaultSubscriberBuffer is the channel capacity of each Hub subscriber.
const DefaultSubscriberBuffer = 64

// Hub handles live subscriptions per workflow id.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Event]struct{} // WorkflowID -> Set of Channels
	buffer      int
	logger      *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithLogger sets the logger used to report dropped events.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[chan domain.Event]struct{}),
		buffer:      DefaultSubscriberBuffer,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber for workflowID. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(workflowID string) (<-chan domain.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.Event, h.buffer)
	if _, ok := h.subscribers[workflowID]; !ok {
		h.subscribers[workflowID] = make(map[chan domain.Event]struct{})
	}
	h.subscribers[workflowID][ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subscribers[workflowID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(h.subscribers, workflowID)
			}
		}
	}
}

// Broadcast delivers e to every subscriber of workflowID without blocking.
func (h *Hub) Broadcast(workflowID string, e domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[workflowID] {
		select {
		case ch <- e:
		default:
			// Drop message if channel is full (slow client)
			h.logger.Warn("Hub: dropping event for slow subscriber", "workflow_id", workflowID, "type", e.Type)
		}
	}
}

// Subscribers returns the number of live subscribers for workflowID.
func (h *Hub) Subscribers(workflowID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[workflowID])
}

// Forward copies every event of src to the hub until src is closed.
func (h *Hub) Forward(workflowID string, src <-chan domain.Event) {
	for e := range src {
		h.Broadcast(workflowID, e)
	}
}
