package sim

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/behave/internal/btree"
)

// ErrTickBudget is returned by Pump when the tick budget runs out
// before the stop condition is met.
var ErrTickBudget = errors.New("sim: tick budget exhausted")

// Pump advances the world at a fixed interval until stop reports true,
// the context is cancelled, or ticks have elapsed. Pending deliveries
// from timers are drained between ticks, so every event the trees see
// arrives on this goroutine; timers may be nil when the trees use no
// Timeout nodes. A fatal tree fault raised inside any delivery is
// recovered and returned as an error. Timer deliveries do not consume
// the tick budget.
func Pump(ctx context.Context, w *World, timers *Timers, ticks int, interval time.Duration, stop func() bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*btree.FatalError)
			if !ok {
				panic(r)
			}
			err = fe
		}
	}()

	var fired <-chan func()
	if timers != nil {
		fired = timers.fired
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	remaining := ticks
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fire := <-fired:
			fire()
			if stop != nil && stop() {
				return nil
			}
			continue
		case <-ticker.C:
		}

		if stop != nil && stop() {
			return nil
		}
		w.Tick()
		if stop != nil && stop() {
			return nil
		}
		remaining--
	}
	return ErrTickBudget
}
