package runtime

import (
	"context"
	"sync"
)

// cacheKey identifies identical invocations within one run.
type cacheKey struct {
	plugin string
	input  string
}

// memo is the per-run result cache. Only successful outputs are kept.
// While a key is being computed, other nodes with the same key wait for it
// instead of invoking the plugin a second time.
type memo struct {
	mu       sync.Mutex
	results  map[cacheKey]string
	inflight map[cacheKey]chan struct{}
}

func newMemo() *memo {
	return &memo{
		results:  make(map[cacheKey]string),
		inflight: make(map[cacheKey]chan struct{}),
	}
}

// claim returns the recorded output on a hit. On a miss the caller becomes
// the key's leader and must call settle exactly once. If a leader fails, one
// of its waiters becomes the next leader.
func (m *memo) claim(ctx context.Context, key cacheKey) (string, bool, error) {
	for {
		m.mu.Lock()
		if out, ok := m.results[key]; ok {
			m.mu.Unlock()
			return out, true, nil
		}
		done, busy := m.inflight[key]
		if !busy {
			m.inflight[key] = make(chan struct{})
			m.mu.Unlock()
			return "", false, nil
		}
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

func (m *memo) settle(key cacheKey, output string, ok bool) {
	m.mu.Lock()
	if ok {
		m.results[key] = output
	}
	done := m.inflight[key]
	delete(m.inflight, key)
	m.mu.Unlock()

	if done != nil {
		close(done)
	}
}
