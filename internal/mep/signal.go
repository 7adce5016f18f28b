package mep

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"
)

// signalBuffer is the per-subscriber channel depth. Emissions beyond it
// are dropped for that subscriber rather than blocking the editor loop.
const signalBuffer = 16

// Signal is a typed broadcast to any number of subscribers. Emit never
// blocks; slow subscribers lose events once their buffer fills.
type Signal[T any] struct {
	mu          sync.Mutex
	subscribers map[string]chan T
	closed      bool
}

// NewSignal creates an empty signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{subscribers: make(map[string]chan T)}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel for receiving events. The returned ID
// identifies the channel when unsubscribing.
func (s *Signal[T]) Subscribe() (string, chan T) {
	id := randomID()
	ch := make(chan T, signalBuffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return id, ch
	}
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Signal[T]) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Emit delivers v to every subscriber whose buffer has room.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- v:
		default:
			// full subscriber, skip so the editor loop never blocks
		}
	}
}

// Close closes all subscriber channels. Further Subscribe calls return
// an already-closed channel and further Emits are dropped.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

// SubscriberCount returns the number of live subscribers.
func (s *Signal[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}
