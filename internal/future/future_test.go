package future

import (
	"sync"
	"testing"
	"time"
)

// TestSubscribeBeforeResolve verifies that a handler registered before
// resolution runs synchronously inside the resolving call.
func TestSubscribeBeforeResolve(t *testing.T) {
	f, resolve := New[int]()

	var got []int
	f.Subscribe(func(v int) { got = append(got, v) })

	if f.IsResolved() {
		t.Fatal("future should not be resolved before resolve is called")
	}
	if len(got) != 0 {
		t.Fatalf("handler ran before resolution: %v", got)
	}

	resolve(42)

	if len(got) != 1 || got[0] != 42 {
		t.Errorf("expected handler to run once with 42, got %v", got)
	}
	if !f.IsResolved() {
		t.Error("future should be resolved after resolve is called")
	}
}

// TestSubscribeAfterResolve verifies that a handler registered after
// resolution runs immediately, synchronously, and exactly once.
func TestSubscribeAfterResolve(t *testing.T) {
	f, resolve := New[string]()
	resolve("done")

	calls := 0
	f.Subscribe(func(v string) {
		calls++
		if v != "done" {
			t.Errorf("expected %q, got %q", "done", v)
		}
	})

	if calls != 1 {
		t.Errorf("expected handler to run exactly once, ran %d times", calls)
	}
}

// TestResolveTwicePanics verifies that resolving a future twice is
// rejected as a contract violation.
func TestResolveTwicePanics(t *testing.T) {
	f, resolve := New[int]()
	resolve(1)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on second resolve")
		}
	}()
	resolve(2)
	_ = f
}

// TestResolvedConstructor verifies the already-resolved convenience
// constructor.
func TestResolvedConstructor(t *testing.T) {
	f := Resolved(true)

	if !f.IsResolved() {
		t.Fatal("Resolved future should report resolved")
	}
	v, ok := f.Peek()
	if !ok || !v {
		t.Errorf("Peek = (%v, %v), want (true, true)", v, ok)
	}
}

// TestMultipleHandlers verifies that every pending handler runs exactly
// once on resolution.
func TestMultipleHandlers(t *testing.T) {
	f, resolve := New[int]()

	ran := make(map[int]int)
	for i := 0; i < 5; i++ {
		i := i
		f.Subscribe(func(int) { ran[i]++ })
	}

	resolve(7)

	for i := 0; i < 5; i++ {
		if ran[i] != 1 {
			t.Errorf("handler %d ran %d times, want 1", i, ran[i])
		}
	}
}

// TestHandlerMaySubscribeDuringDispatch verifies that a handler can
// re-subscribe to the future it is observing without deadlocking.
func TestHandlerMaySubscribeDuringDispatch(t *testing.T) {
	f, resolve := New[int]()

	inner := 0
	f.Subscribe(func(v int) {
		f.Subscribe(func(w int) {
			inner = w
		})
	})

	resolve(9)

	if inner != 9 {
		t.Errorf("nested subscription got %d, want 9", inner)
	}
}

// TestConcurrentResolution verifies exactly-once handler dispatch when
// resolution happens on another goroutine.
func TestConcurrentResolution(t *testing.T) {
	f, resolve := New[int]()

	done := make(chan int, 1)
	f.Subscribe(func(v int) { done <- v })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resolve(3)
	}()

	select {
	case v := <-done:
		if v != 3 {
			t.Errorf("expected 3, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for resolution")
	}
	wg.Wait()
}
