package future

import "sync"

// Match is the result of Filter: the first value that satisfied the
// predicate (OK true), or no value at all (OK false).
type Match[T any] struct {
	Value T
	OK    bool
}

// Bind chains an asynchronous computation: when f resolves to x, fn(x)
// is called to obtain a second future, whose eventual resolution is
// forwarded to the returned future.
func Bind[T, U any](f *Future[T], fn func(T) *Future[U]) *Future[U] {
	out, resolve := New[U]()
	f.Subscribe(func(v T) {
		fn(v).Subscribe(resolve)
	})
	return out
}

// Map resolves the returned future to fn(x) when f resolves to x.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out, resolve := New[U]()
	f.Subscribe(func(v T) {
		resolve(fn(v))
	})
	return out
}

// First resolves to the value of whichever input resolves earliest.
// Already-resolved inputs are checked first, in list order. Later
// resolutions are ignored. An empty input list never resolves.
func First[T any](fs []*Future[T]) *Future[T] {
	for _, f := range fs {
		if v, ok := f.Peek(); ok {
			return Resolved(v)
		}
	}

	out, resolve := New[T]()
	var once sync.Once
	for _, f := range fs {
		f.Subscribe(func(v T) {
			once.Do(func() { resolve(v) })
		})
	}
	return out
}

// Last resolves to the value of the final input to resolve: it counts
// down the outstanding inputs and resolves with that last payload when
// the count reaches zero. An empty input list never resolves.
func Last[T any](fs []*Future[T]) *Future[T] {
	out, resolve := New[T]()

	var mu sync.Mutex
	remaining := len(fs)
	for _, f := range fs {
		f.Subscribe(func(v T) {
			mu.Lock()
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				resolve(v)
			}
		})
	}
	return out
}

// Filter resolves to the first input value satisfying pred (OK true),
// or to a zero Match (OK false) once every input has resolved without
// satisfying it. Inputs may resolve in any interleaving; the result
// fires exactly once. An empty input list resolves immediately to no
// match.
func Filter[T any](fs []*Future[T], pred func(T) bool) *Future[Match[T]] {
	out, resolve := New[Match[T]]()
	if len(fs) == 0 {
		resolve(Match[T]{})
		return out
	}

	var mu sync.Mutex
	decided := false
	remaining := len(fs)
	for _, f := range fs {
		f.Subscribe(func(v T) {
			mu.Lock()
			if decided {
				mu.Unlock()
				return
			}
			if pred(v) {
				decided = true
				mu.Unlock()
				resolve(Match[T]{Value: v, OK: true})
				return
			}
			remaining--
			exhausted := remaining == 0
			if exhausted {
				decided = true
			}
			mu.Unlock()
			if exhausted {
				resolve(Match[T]{})
			}
		})
	}
	return out
}

// Join2 resolves to fn(x, y) once both a and b have resolved, in
// whichever order they arrive.
func Join2[T, U, V any](a *Future[T], b *Future[U], fn func(T, U) V) *Future[V] {
	return Bind(a, func(x T) *Future[V] {
		return Map(b, func(y U) V {
			return fn(x, y)
		})
	})
}
