// Package future provides a minimal write-once asynchronous result
// container with a small combinator algebra. A Future is resolved at
// most once; handlers registered before resolution run synchronously
// inside the resolving call, and handlers registered after resolution
// run immediately on the caller's stack. There is no cancellation and
// no deferred dispatch.
package future

import (
	"fmt"
	"sync"
)

// Future is a write-once container for a value of type T.
// The zero value is not usable; create futures with New or Resolved.
type Future[T any] struct {
	mu       sync.Mutex
	resolved bool
	value    T
	handlers []func(T)
}

// New creates an unresolved future together with its resolve capability.
// The returned function must be called exactly once; calling it a second
// time is a programming error and panics.
func New[T any]() (*Future[T], func(T)) {
	f := &Future[T]{}
	return f, f.resolve
}

// Resolved returns a future that is already resolved to v.
func Resolved[T any](v T) *Future[T] {
	return &Future[T]{resolved: true, value: v}
}

func (f *Future[T]) resolve(v T) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		panic(fmt.Sprintf("future: resolved twice (value %v)", v))
	}
	f.resolved = true
	f.value = v
	handlers := f.handlers
	f.handlers = nil
	f.mu.Unlock()

	// Handlers run outside the lock so they may subscribe to or resolve
	// other futures, including re-subscribing to this one.
	for _, h := range handlers {
		h(v)
	}
}

// Subscribe registers h to run when f resolves. If f is already
// resolved, h runs immediately and synchronously with the stored value.
// Each handler runs exactly once; dispatch order among multiple
// handlers on the same future is unspecified.
func (f *Future[T]) Subscribe(h func(T)) {
	f.mu.Lock()
	if f.resolved {
		v := f.value
		f.mu.Unlock()
		h(v)
		return
	}
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
}

// IsResolved reports whether f has been resolved.
func (f *Future[T]) IsResolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolved
}

// Peek returns the resolved value and true, or the zero value and false
// if f is still pending.
func (f *Future[T]) Peek() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.resolved
}
