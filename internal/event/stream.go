// Package event provides the reactive substrate the behavior-tree
// engine consumes: discrete occurrence streams, synchronously readable
// signals, and a timer-backed delay provider. Delivery is push-based
// and synchronous; the only source of time passing is whoever calls
// Fire (the simulation pump, a timer, or a test).
package event

import "sync"

// Stream is a discrete occurrence stream with a payload of type T.
type Stream[T any] struct {
	mu   sync.Mutex
	once []func(T) // one-shot subscribers, cleared on delivery
	taps []func(T) // persistent observers (derived streams, logging)
}

// NewStream creates a stream with no subscribers.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{}
}

// Once registers h for the next occurrence only. The subscription is
// consumed by that occurrence; there is nothing to release afterwards.
func (s *Stream[T]) Once(h func(T)) {
	s.mu.Lock()
	s.once = append(s.once, h)
	s.mu.Unlock()
}

// Tap registers a persistent observer that sees every subsequent
// occurrence.
func (s *Stream[T]) Tap(h func(T)) {
	s.mu.Lock()
	s.taps = append(s.taps, h)
	s.mu.Unlock()
}

// Fire delivers one occurrence with payload v. One-shot subscribers
// registered at the time of the call are invoked synchronously and then
// dropped; persistent observers are invoked after them. A handler may
// register new subscriptions during delivery; those see only later
// occurrences.
func (s *Stream[T]) Fire(v T) {
	s.mu.Lock()
	once := s.once
	s.once = nil
	taps := make([]func(T), len(s.taps))
	copy(taps, s.taps)
	s.mu.Unlock()

	for _, h := range once {
		h(v)
	}
	for _, h := range taps {
		h(v)
	}
}

// Stamp derives a stream that fires the fixed payload v for every
// occurrence of s.
func Stamp[T, U any](s *Stream[T], v U) *Stream[U] {
	out := NewStream[U]()
	s.Tap(func(T) {
		out.Fire(v)
	})
	return out
}
