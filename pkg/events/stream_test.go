package events_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeEvent(id string, status domain.Status) domain.Event {
	return domain.NewNodeEvent(&domain.NodeEvent{NodeID: id, Status: status})
}

func TestStream_DeliversInOrderAfterClose(t *testing.T) {
	s := events.NewStream()

	for i := 0; i < 1000; i++ {
		require.True(t, s.Publish(nodeEvent(fmt.Sprint(i), domain.StatusRunning)))
	}
	s.Close()
	assert.False(t, s.Publish(nodeEvent("late", domain.StatusRunning)), "publish after close is refused")

	var got []string
	for e := range s.C() {
		got = append(got, e.Node.NodeID)
	}
	require.Len(t, got, 1000)
	for i, id := range got {
		assert.Equal(t, fmt.Sprint(i), id)
	}
}

func TestStream_PerProducerOrderWithConcurrentPublishers(t *testing.T) {
	s := events.NewStream()
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				s.Publish(domain.NewNodeEvent(&domain.NodeEvent{NodeID: fmt.Sprint(p), Attempt: i}))
			}
		}(p)
	}

	done := make(chan map[string][]int)
	go func() {
		seen := make(map[string][]int)
		for e := range s.C() {
			seen[e.Node.NodeID] = append(seen[e.Node.NodeID], e.Node.Attempt)
		}
		done <- seen
	}()

	wg.Wait()
	s.Close()

	seen := <-done
	require.Len(t, seen, producers)
	for id, attempts := range seen {
		require.Len(t, attempts, perProducer, "producer %s", id)
		for i, a := range attempts {
			assert.Equal(t, i, a, "producer %s out of order", id)
		}
	}
}

func TestStream_PublishNeverBlocks(t *testing.T) {
	s := events.NewStream()
	defer s.Cancel()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			s.Publish(nodeEvent("n", domain.StatusRunning))
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a reader")
	}
}

func TestStream_Cancel(t *testing.T) {
	s := events.NewStream()
	s.Publish(nodeEvent("a", domain.StatusRunning))
	s.Cancel()
	s.Cancel()

	assert.False(t, s.Publish(nodeEvent("b", domain.StatusRunning)))

	select {
	case _, ok := <-waitClosed(s):
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Cancel")
	}
}

// waitClosed drains s and returns a channel that closes with it.
func waitClosed(s *events.Stream) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		for range s.C() {
		}
		close(ch)
	}()
	return ch
}
