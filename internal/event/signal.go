package event

import "sync"

// Signal is a time-varying value with a synchronous current-value read.
type Signal[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{v: initial}
}

// Value returns the signal's current value.
func (s *Signal[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// Set replaces the signal's current value.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	s.v = v
	s.mu.Unlock()
}

// Hold derives a signal that starts at initial and thereafter tracks
// the latest occurrence of st.
func Hold[T any](st *Stream[T], initial T) *Signal[T] {
	sig := NewSignal(initial)
	st.Tap(sig.Set)
	return sig
}
