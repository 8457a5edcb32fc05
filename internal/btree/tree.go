// Package btree implements a behavior tree: a hierarchical composition
// of test, action, and control nodes that is driven to a single
// success/failure outcome by externally supplied events and signals.
// Trees are pure data built with the constructors in this file; all
// behavior lives in the interpreter (Run).
package btree

import (
	"time"

	"github.com/aristath/behave/internal/event"
)

// Kind identifies a tree node's variant.
type Kind int

const (
	KindTest Kind = iota
	KindTestSignal
	KindWait
	KindTimeout
	KindDo
	KindIf
	KindSequence
	KindSelect
	KindParallel
	KindClosure
	KindSucceed
	KindFail
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindTestSignal:
		return "test_signal"
	case KindWait:
		return "wait"
	case KindTimeout:
		return "timeout"
	case KindDo:
		return "do"
	case KindIf:
		return "if"
	case KindSequence:
		return "sequence"
	case KindSelect:
		return "select"
	case KindParallel:
		return "parallel"
	case KindClosure:
		return "closure"
	case KindSucceed:
		return "succeed"
	case KindFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Action is the payload of a Do node. The boolean is the action's
// domain success or failure; a non-nil error is a fatal fault that
// aborts the whole evaluation (it is never retried or converted into a
// domain failure by the interpreter).
type Action func() (bool, error)

// Policy governs how Parallel combines its children's outcomes.
type Policy int

const (
	// Forall succeeds iff every child succeeds and fails as soon as any
	// child fails.
	Forall Policy = iota
	// Exists succeeds as soon as any child succeeds and fails only once
	// every child has failed.
	Exists
)

// String returns the lowercase policy name.
func (p Policy) String() string {
	if p == Exists {
		return "exists"
	}
	return "forall"
}

// Tree is an immutable behavior-tree node. The same value may be
// evaluated any number of times; every evaluation is independent.
type Tree struct {
	kind  Kind
	label string

	onNext   func(func(bool)) // Test, Wait: one-shot boolean occurrence
	read     func() bool      // TestSignal, If: synchronous signal read
	delay    time.Duration    // Timeout
	action   Action           // Do
	thenTree *Tree            // If
	elseTree *Tree            // If
	loop     bool             // Sequence
	strategy Strategy         // Select
	policy   Policy           // Parallel
	children []*Tree          // Sequence, Select, Parallel
	expand   func() *Tree     // Closure
}

// Kind returns the node's variant.
func (t *Tree) Kind() Kind { return t.kind }

// Label returns the display label attached with Named, or "".
func (t *Tree) Label() string { return t.label }

// Named returns a copy of t carrying a display label. Labels are for
// monitoring and tree files only; they have no semantic effect.
func (t *Tree) Named(label string) *Tree {
	cp := *t
	cp.label = label
	return &cp
}

// Test succeeds or fails on the next occurrence of e, according to the
// occurrence's boolean payload.
func Test(e *event.Stream[bool]) *Tree {
	return &Tree{kind: KindTest, onNext: e.Once}
}

// TestSignal succeeds or fails synchronously on the signal's current
// value at the moment of evaluation.
func TestSignal(s *event.Signal[bool]) *Tree {
	return &Tree{kind: KindTestSignal, read: s.Value}
}

// Wait succeeds on the next occurrence of e; the payload is ignored.
// The payload is forced to true by stamping the stream, so Wait is
// Test over the stamped view of e.
func Wait[T any](e *event.Stream[T]) *Tree {
	return &Tree{kind: KindWait, onNext: event.Stamp(e, true).Once}
}

// Timeout resolves to failure once d has elapsed. Evaluating a Timeout
// node requires a delay provider in the run configuration.
func Timeout(d time.Duration) *Tree {
	return &Tree{kind: KindTimeout, delay: d}
}

// Do runs the action synchronously once; the action's boolean result is
// the node's outcome.
func Do(a Action) *Tree {
	return &Tree{kind: KindDo, action: a}
}

// If reads the signal's current value at evaluation time and evaluates
// exactly one branch. The choice is made once; the untaken branch is
// never instantiated, and later signal changes have no effect.
func If(s *event.Signal[bool], then, els *Tree) *Tree {
	return &Tree{kind: KindIf, read: s.Value, thenTree: then, elseTree: els}
}

// Sequence runs children strictly in order; all must succeed. The first
// failure fails the sequence immediately. With loop set, a fully
// successful pass restarts from the first child instead of resolving,
// so a looping sequence only ever resolves on a failure.
// Panics if children is empty.
func Sequence(loop bool, children ...*Tree) *Tree {
	requireChildren("Sequence", children)
	return &Tree{kind: KindSequence, loop: loop, children: children}
}

// Select tries children one at a time, in the order produced by a fresh
// chooser from strategy, until one succeeds or the chooser is
// exhausted. Panics if children is empty.
func Select(strategy Strategy, children ...*Tree) *Tree {
	requireChildren("Select", children)
	return &Tree{kind: KindSelect, strategy: strategy, children: children}
}

// Parallel starts every child at once, in list order, and combines
// their outcomes per the policy. Panics if children is empty.
func Parallel(policy Policy, children ...*Tree) *Tree {
	requireChildren("Parallel", children)
	return &Tree{kind: KindParallel, policy: policy, children: children}
}

// Closure defers tree construction: f is called once per evaluation
// visit, never memoized, so recursive and dynamically shaped trees can
// be expressed without building an infinite structure up front.
func Closure(f func() *Tree) *Tree {
	return &Tree{kind: KindClosure, expand: f}
}

// Succeed resolves immediately to true.
func Succeed() *Tree {
	return &Tree{kind: KindSucceed}
}

// Fail resolves immediately to false.
func Fail() *Tree {
	return &Tree{kind: KindFail}
}

// Empty child lists are a construction-time contract violation,
// reported immediately rather than at run time.
func requireChildren(ctor string, children []*Tree) {
	if len(children) == 0 {
		panic("btree: " + ctor + " requires a non-empty child list")
	}
}
