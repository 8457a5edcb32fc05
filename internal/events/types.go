package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Run() string
}

// Topic constants
const (
	TopicNode = "node"
	TopicRun  = "run"
	TopicSim  = "sim"
)

// Event type constants
const (
	EventTypeNodeStarted  = "node.started"
	EventTypeNodeResolved = "node.resolved"
	EventTypeRunStarted   = "run.started"
	EventTypeRunFinished  = "run.finished"
	EventTypeSimLog       = "sim.log"
)

// NodeStartedEvent is published when a tree node begins evaluation.
type NodeStartedEvent struct {
	RunID     string
	Path      string
	Label     string
	Kind      string
	Timestamp time.Time
}

func (e NodeStartedEvent) EventType() string { return EventTypeNodeStarted }
func (e NodeStartedEvent) Run() string       { return e.RunID }

// NodeResolvedEvent is published when a node's future resolves.
type NodeResolvedEvent struct {
	RunID     string
	Path      string
	Label     string
	Kind      string
	Result    bool
	Timestamp time.Time
}

func (e NodeResolvedEvent) EventType() string { return EventTypeNodeResolved }
func (e NodeResolvedEvent) Run() string       { return e.RunID }

// RunStartedEvent is published when a tree evaluation starts.
type RunStartedEvent struct {
	RunID     string
	Scenario  string
	Tree      string
	Seed      int64
	Timestamp time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) Run() string       { return e.RunID }

// RunFinishedEvent is published when a run's root future resolves or
// the run is aborted.
type RunFinishedEvent struct {
	RunID     string
	Result    bool
	Aborted   bool
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) Run() string       { return e.RunID }

// SimLogEvent is published when the simulated world has something to
// report (state transitions, action effects).
type SimLogEvent struct {
	RunID     string
	Line      string
	Timestamp time.Time
}

func (e SimLogEvent) EventType() string { return EventTypeSimLog }
func (e SimLogEvent) Run() string       { return e.RunID }
