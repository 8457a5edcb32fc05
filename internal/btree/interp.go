package btree

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/behave/internal/event"
	"github.com/aristath/behave/internal/future"
)

// DelayFunc maps a duration to a one-shot stream that fires once after
// the duration elapses. event.After is the standard implementation;
// tests substitute manually fired streams.
type DelayFunc func(time.Duration) *event.Stream[struct{}]

// NodeEvent describes one step of an evaluation, delivered to the
// configured Monitor: once when a node's evaluation starts (Done
// false) and once when its future resolves (Done true, Result valid).
type NodeEvent struct {
	Path   string // evaluation path, e.g. "/0/2"; Select candidates are numbered by attempt
	Label  string
	Kind   Kind
	Done   bool
	Result bool
	Time   time.Time
}

// Config carries the evaluation environment for Run.
type Config struct {
	// Delay supplies one-shot timer streams for Timeout nodes. Leaving
	// it nil is a configuration error if a Timeout node is ever
	// evaluated.
	Delay DelayFunc

	// Monitor, when non-nil, observes every node evaluation. It is
	// called synchronously on the evaluating/resolving stack and must
	// not block.
	Monitor func(NodeEvent)
}

// FatalError is an evaluation-aborting fault: a contract or
// configuration violation, or an error returned by a Do action. It is
// distinct from a domain failure, which is just the tree resolving
// false.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("btree: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Run evaluates the tree and returns a future that resolves to the
// tree's eventual success or failure. Evaluating the same tree again
// produces an independent future each time.
//
// Fatal faults reached on the synchronous part of evaluation are
// returned as a *FatalError. A fault reached only after Run has
// returned (behind a Test, Wait, or Timeout suspension) has no caller
// left to report to and panics out of the event delivery call instead.
func Run(t *Tree, cfg Config) (f *future.Future[bool], err error) {
	if t == nil {
		return nil, errors.New("btree: cannot run a nil tree")
	}

	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*FatalError)
			if !ok {
				panic(r)
			}
			f, err = nil, fe
		}
	}()

	e := &engine{cfg: cfg}
	return e.eval(t, "/"), nil
}

type engine struct {
	cfg Config
}

// eval builds the future for one node instance, wrapping it with
// monitor notifications.
func (e *engine) eval(t *Tree, path string) *future.Future[bool] {
	if e.cfg.Monitor != nil {
		e.cfg.Monitor(NodeEvent{Path: path, Label: t.label, Kind: t.kind, Time: time.Now()})
	}

	f := e.evalNode(t, path)

	if e.cfg.Monitor != nil {
		f.Subscribe(func(v bool) {
			e.cfg.Monitor(NodeEvent{Path: path, Label: t.label, Kind: t.kind, Done: true, Result: v, Time: time.Now()})
		})
	}
	return f
}

func (e *engine) evalNode(t *Tree, path string) *future.Future[bool] {
	switch t.kind {
	case KindSucceed:
		return future.Resolved(true)

	case KindFail:
		return future.Resolved(false)

	case KindTestSignal:
		return future.Resolved(t.read())

	case KindDo:
		ok, err := t.action()
		if err != nil {
			e.fatal("action "+labelOrPath(t, path), err)
		}
		return future.Resolved(ok)

	case KindTest, KindWait:
		out, resolve := future.New[bool]()
		t.onNext(resolve)
		return out

	case KindTimeout:
		if e.cfg.Delay == nil {
			e.fatal("timeout "+labelOrPath(t, path), errors.New("no delay provider configured"))
		}
		out, resolve := future.New[bool]()
		event.Stamp(e.cfg.Delay(t.delay), false).Once(resolve)
		return out

	case KindIf:
		if t.read() {
			return e.eval(t.thenTree, path+"/then")
		}
		return e.eval(t.elseTree, path+"/else")

	case KindClosure:
		return e.eval(t.expand(), childPath(path, 0))

	case KindSequence:
		return e.evalSequence(t, path)

	case KindSelect:
		return e.evalSelect(t, path)

	case KindParallel:
		return e.evalParallel(t, path)

	default:
		e.fatal("eval", fmt.Errorf("unknown node kind %d", int(t.kind)))
		return nil
	}
}

// evalSequence drives children strictly in order. Synchronous child
// resolutions are consumed in the for loop rather than by recursion, so
// long (or looping) chains of synchronous children do not grow the
// stack.
func (e *engine) evalSequence(t *Tree, path string) *future.Future[bool] {
	out, resolve := future.New[bool]()
	n := len(t.children)

	var advance func(start int)
	advance = func(start int) {
		i := start
		for {
			f := e.eval(t.children[i], childPath(path, i))
			if v, ok := f.Peek(); ok {
				if !v {
					resolve(false)
					return
				}
				i++
				if i == n {
					if t.loop {
						i = 0
						continue
					}
					resolve(true)
					return
				}
				continue
			}

			next := i + 1
			f.Subscribe(func(v bool) {
				if !v {
					resolve(false)
					return
				}
				if next == n {
					if t.loop {
						advance(0)
						return
					}
					resolve(true)
					return
				}
				advance(next)
			})
			return
		}
	}
	advance(0)
	return out
}

// evalSelect tries one candidate at a time from a chooser created
// fresh for this evaluation. A candidate is always driven to
// resolution before the chooser is consulted again.
func (e *engine) evalSelect(t *Tree, path string) *future.Future[bool] {
	out, resolve := future.New[bool]()
	choose := t.strategy(t.children)
	attempt := 0

	var next func()
	next = func() {
		for {
			candidate := choose()
			if candidate == nil {
				resolve(false)
				return
			}
			f := e.eval(candidate, childPath(path, attempt))
			attempt++

			if v, ok := f.Peek(); ok {
				if v {
					resolve(true)
					return
				}
				continue
			}

			f.Subscribe(func(v bool) {
				if v {
					resolve(true)
					return
				}
				next()
			})
			return
		}
	}
	next()
	return out
}

// evalParallel starts every child in list order, then reduces the
// children's futures with the filter combinator: Exists looks for the
// first success, Forall for the first failure (inverted). Children
// that resolve after the outcome is decided still run to completion
// but no longer matter; nothing is cancelled.
func (e *engine) evalParallel(t *Tree, path string) *future.Future[bool] {
	fs := make([]*future.Future[bool], len(t.children))
	for i, c := range t.children {
		fs[i] = e.eval(c, childPath(path, i))
	}

	if t.policy == Exists {
		anyTrue := future.Filter(fs, func(v bool) bool { return v })
		return future.Map(anyTrue, func(m future.Match[bool]) bool { return m.OK })
	}
	anyFalse := future.Filter(fs, func(v bool) bool { return !v })
	return future.Map(anyFalse, func(m future.Match[bool]) bool { return !m.OK })
}

func (e *engine) fatal(op string, err error) {
	panic(&FatalError{Op: op, Err: err})
}

func childPath(path string, i int) string {
	if path == "/" {
		return "/" + strconv.Itoa(i)
	}
	return path + "/" + strconv.Itoa(i)
}

func labelOrPath(t *Tree, path string) string {
	if t.label != "" {
		return t.label
	}
	return path
}
