package events

import (
	"sync"

	"github.com/aretw0/lao/pkg/domain"
)

// Stream is an ordered, unbounded event mailbox for one run.
type Stream struct {
	mu       sync.Mutex
	queue    []domain.Event
	closed   bool
	canceled bool

	notify     chan struct{}
	done       chan struct{}
	cancelOnce sync.Once
	out        chan domain.Event
}

// NewStream creates a stream and starts its delivery goroutine. The goroutine
// exits after Close once every queued event has been read, or on Cancel.
func NewStream() *Stream {
	s := &Stream{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		out:    make(chan domain.Event),
	}
	go s.pump()
	return s
}

// C returns the delivery channel. It is closed after the last event.
func (s *Stream) C() <-chan domain.Event { return s.out }

// Publish enqueues e without blocking. It returns false once the stream is
// closed or canceled.
func (s *Stream) Publish(e domain.Event) bool {
	s.mu.Lock()
	if s.closed || s.canceled {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	s.wake()
	return true
}

// Close marks the end of the run. Queued events are still delivered.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

// Cancel stops delivery and discards queued events. Consumers that stop
// reading early must call it to release the delivery goroutine.
func (s *Stream) Cancel() {
	s.mu.Lock()
	s.canceled = true
	s.queue = nil
	s.mu.Unlock()
	s.cancelOnce.Do(func() { close(s.done) })
}

func (s *Stream) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Stream) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if s.canceled {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			select {
			case <-s.notify:
			case <-s.done:
			}
			continue
		}
		e := s.queue[0]
		s.queue[0] = domain.Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- e:
		case <-s.done:
			return
		}
	}
}
