package sim

import (
	"sync"
	"time"

	"github.com/aristath/behave/internal/event"
)

// Timers is a delay provider whose streams fire on the goroutine that
// pumps the world, not on timer goroutines. The world and the trees
// acting on it are single-goroutine; delivering timeout resolutions
// straight from time.AfterFunc would let tree handlers mutate world
// state concurrently with Tick.
type Timers struct {
	fired chan func()
	done  chan struct{}
	once  sync.Once
}

// NewTimers creates a delay provider. Close it when the run is over so
// timers that have not delivered yet can let go of their goroutines.
func NewTimers() *Timers {
	return &Timers{
		fired: make(chan func(), 16),
		done:  make(chan struct{}),
	}
}

// Delay returns a one-shot stream for d. The underlying timer hands
// the delivery to whoever drains the timers (Pump); the stream is
// fired there.
func (t *Timers) Delay(d time.Duration) *event.Stream[struct{}] {
	s := event.NewStream[struct{}]()
	time.AfterFunc(d, func() {
		select {
		case t.fired <- func() { s.Fire(struct{}{}) }:
		case <-t.done:
		}
	})
	return s
}

// Close releases pending timers without delivering them. Idempotent.
func (t *Timers) Close() {
	t.once.Do(func() { close(t.done) })
}
