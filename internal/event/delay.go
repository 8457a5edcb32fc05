package event

import "time"

// After returns a stream that fires exactly once, with an empty
// payload, after d has elapsed. It is the standard delay provider for
// interpreter timeouts. The underlying timer is one-shot, so the
// subscription costs nothing once it has fired.
func After(d time.Duration) *Stream[struct{}] {
	s := NewStream[struct{}]()
	time.AfterFunc(d, func() {
		s.Fire(struct{}{})
	})
	return s
}
