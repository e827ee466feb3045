package store

import (
	"sync"

	"socialite/internal/core"
)

// SnapshotSub is the subscription handle shared by the backends: a
// buffered latest-wins snapshot channel with an idempotent Unsubscribe
// that never lets a delivery slip out afterwards.
type SnapshotSub struct {
	ch   chan []core.Document
	stop func()

	mu     sync.Mutex
	closed bool
}

// NewSnapshotSub builds a handle; stop is invoked once, after the channel
// is closed, to detach the backend side (registry removal, watcher stop).
func NewSnapshotSub(stop func()) *SnapshotSub {
	return &SnapshotSub{
		ch:   make(chan []core.Document, 1),
		stop: stop,
	}
}

func (s *SnapshotSub) C() <-chan []core.Document {
	return s.ch
}

// Publish delivers a snapshot without blocking: an undelivered older
// snapshot is replaced, subscribers only ever need the latest state.
// Publishing after Unsubscribe is a no-op.
func (s *SnapshotSub) Publish(snapshot []core.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}

func (s *SnapshotSub) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
	s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
}
