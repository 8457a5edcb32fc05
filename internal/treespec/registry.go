package treespec

import (
	"github.com/aristath/behave/internal/btree"
	"github.com/aristath/behave/internal/event"
)

// Registry binds the names used in tree definitions to live runtime
// primitives: event streams, signals, and actions. A registry is
// typically populated by the world the trees act on.
type Registry struct {
	streams map[string]*event.Stream[bool]
	signals map[string]*event.Signal[bool]
	actions map[string]btree.Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		streams: make(map[string]*event.Stream[bool]),
		signals: make(map[string]*event.Signal[bool]),
		actions: make(map[string]btree.Action),
	}
}

// Stream registers and returns a named event stream. Registering the
// same name twice returns the existing stream.
func (r *Registry) Stream(name string) *event.Stream[bool] {
	if s, ok := r.streams[name]; ok {
		return s
	}
	s := event.NewStream[bool]()
	r.streams[name] = s
	return s
}

// Signal registers and returns a named signal. The initial value only
// applies on first registration.
func (r *Registry) Signal(name string, initial bool) *event.Signal[bool] {
	if s, ok := r.signals[name]; ok {
		return s
	}
	s := event.NewSignal(initial)
	r.signals[name] = s
	return s
}

// BindSignal registers an existing signal, typically one derived from
// a stream with event.Hold, replacing any previous binding.
func (r *Registry) BindSignal(name string, s *event.Signal[bool]) {
	r.signals[name] = s
}

// Action registers a named action, replacing any previous binding.
func (r *Registry) Action(name string, a btree.Action) {
	r.actions[name] = a
}

func (r *Registry) stream(name string) (*event.Stream[bool], bool) {
	s, ok := r.streams[name]
	return s, ok
}

func (r *Registry) signal(name string) (*event.Signal[bool], bool) {
	s, ok := r.signals[name]
	return s, ok
}

func (r *Registry) action(name string) (btree.Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}
