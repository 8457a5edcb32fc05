package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/behave/internal/btree"
)

// TestPumpStopsWhenConditionMet verifies that the pump halts as soon
// as the stop condition reports true.
func TestPumpStopsWhenConditionMet(t *testing.T) {
	w := New(1, nil)

	err := Pump(context.Background(), w, nil, 1000, time.Millisecond, func() bool {
		return w.Ticks() >= 5
	})
	if err != nil {
		t.Fatalf("Pump failed: %v", err)
	}
	if w.Ticks() != 5 {
		t.Errorf("ticks = %d, want 5", w.Ticks())
	}
}

// TestPumpExhaustsTickBudget verifies the budget sentinel.
func TestPumpExhaustsTickBudget(t *testing.T) {
	w := New(1, nil)

	err := Pump(context.Background(), w, nil, 3, time.Millisecond, func() bool { return false })
	if !errors.Is(err, ErrTickBudget) {
		t.Fatalf("err = %v, want ErrTickBudget", err)
	}
	if w.Ticks() != 3 {
		t.Errorf("ticks = %d, want 3", w.Ticks())
	}
}

// TestPumpHonorsContext verifies that cancellation stops the pump.
func TestPumpHonorsContext(t *testing.T) {
	w := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Pump(ctx, w, nil, 1000, time.Millisecond, func() bool { return false })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// TestPumpRecoversFatalTreeFault verifies that a fatal fault raised
// during a tick's event delivery comes back as an error instead of
// killing the pump goroutine.
func TestPumpRecoversFatalTreeFault(t *testing.T) {
	w := New(1, nil)
	reg := w.Registry()

	tree := btree.Sequence(false,
		btree.Wait(reg.Stream("tick")),
		btree.Do(func() (bool, error) { return false, errors.New("sensor torn off") }),
	)
	if _, err := btree.Run(tree, btree.Config{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	err := Pump(context.Background(), w, nil, 10, time.Millisecond, func() bool { return false })
	var fe *btree.FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want a *btree.FatalError", err)
	}
}

// TestPumpSerializesTimerDeliveries runs a looping tree whose Timeout
// nodes keep failing over into a world-mutating action. With the
// timers drained by the pump, every delivery shares the pump
// goroutine with Tick, so the world's unguarded state stays
// consistent (the race detector flags any regression here).
func TestPumpSerializesTimerDeliveries(t *testing.T) {
	w := New(1, nil)
	reg := w.Registry()
	timers := NewTimers()
	defer timers.Close()

	tree := btree.Sequence(true,
		btree.Wait(reg.Stream("tick")),
		btree.Select(btree.InOrder(),
			btree.Timeout(time.Millisecond),
			btree.Do(w.stepPatrol),
		),
	)
	f, err := btree.Run(tree, btree.Config{Delay: timers.Delay})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	err = Pump(context.Background(), w, timers, 40, time.Millisecond, f.IsResolved)
	if !errors.Is(err, ErrTickBudget) {
		t.Fatalf("err = %v, want ErrTickBudget", err)
	}
	if w.Position() == 0 {
		t.Error("timeout fallthrough never reached the patrol action")
	}
	if _, ok := f.Peek(); ok {
		t.Error("looping tree resolved unexpectedly")
	}
}

// TestPumpRecoversFatalFromTimerDelivery verifies that a fatal action
// error reached through a timeout's resolution is recovered by the
// pump rather than escaping on a timer goroutine.
func TestPumpRecoversFatalFromTimerDelivery(t *testing.T) {
	w := New(1, nil)
	reg := w.Registry()
	timers := NewTimers()
	defer timers.Close()

	tree := btree.Sequence(false,
		btree.Wait(reg.Stream("tick")),
		btree.Select(btree.InOrder(),
			btree.Timeout(time.Millisecond),
			btree.Do(func() (bool, error) { return false, errors.New("radio dead") }),
		),
	)
	if _, err := btree.Run(tree, btree.Config{Delay: timers.Delay}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	err := Pump(context.Background(), w, timers, 40, time.Millisecond, func() bool { return false })
	var fe *btree.FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want a *btree.FatalError", err)
	}
}
