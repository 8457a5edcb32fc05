package event

import "testing"

// TestSignalValueAndSet verifies synchronous reads of the current value.
func TestSignalValueAndSet(t *testing.T) {
	sig := NewSignal(false)

	if sig.Value() {
		t.Error("expected initial value false")
	}

	sig.Set(true)
	if !sig.Value() {
		t.Error("expected value true after Set")
	}
}

// TestHoldTracksLatestOccurrence verifies that a held signal starts at
// the initial value and follows the stream.
func TestHoldTracksLatestOccurrence(t *testing.T) {
	s := NewStream[int]()
	sig := Hold(s, 0)

	if got := sig.Value(); got != 0 {
		t.Errorf("initial value = %d, want 0", got)
	}

	s.Fire(5)
	if got := sig.Value(); got != 5 {
		t.Errorf("value after fire = %d, want 5", got)
	}

	s.Fire(9)
	if got := sig.Value(); got != 9 {
		t.Errorf("value after second fire = %d, want 9", got)
	}
}
