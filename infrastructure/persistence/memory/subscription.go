package memory

import (
	"context"
	"sync"

	"ideapardaz/application/ports"
)

// subscription queues changes for one subscriber. push never blocks the
// committing connection.
type subscription struct {
	connID uint64

	mu    sync.Mutex
	queue []ports.Change

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription(connID uint64) *subscription {
	return &subscription{
		connID: connID,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscription) push(change ports.Change) {
	s.mu.Lock()
	s.queue = append(s.queue, change)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) pop() (ports.Change, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ports.Change{}, false
	}
	change := s.queue[0]
	s.queue = s.queue[1:]
	return change, true
}

func (s *subscription) run(ctx context.Context, onChange func(ports.Change)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			change, ok := s.pop()
			if !ok {
				break
			}
			onChange(change)
		}
	}
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
