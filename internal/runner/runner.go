// Package runner executes configured scenarios as independent tree
// evaluations with bounded concurrency.
package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/behave/internal/btree"
	"github.com/aristath/behave/internal/config"
	"github.com/aristath/behave/internal/events"
	"github.com/aristath/behave/internal/sim"
	"github.com/aristath/behave/internal/treespec"
)

const (
	defaultTicks    = 200
	defaultTickMS   = 10
	defaultTimeout  = 30 * time.Second
	defaultParallel = 4
)

// Result represents the outcome of one scenario run.
type Result struct {
	RunID    string
	Scenario string
	Success  bool
	Aborted  bool // never resolved: budget, timeout, or fatal fault
	Ticks    int
	Err      error
}

// Runner executes scenarios concurrently, publishing run and node
// events to the bus as each evaluation progresses.
type Runner struct {
	cfg   config.RunnerConfig
	trace config.TraceConfig
	trees *treespec.File
	bus   *events.Bus

	mu      sync.Mutex
	results []Result
}

// New creates a runner for the given tree definitions.
func New(cfg config.RunnerConfig, trace config.TraceConfig, trees *treespec.File, bus *events.Bus) *Runner {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallel
	}
	if cfg.RunTimeoutMS <= 0 {
		cfg.RunTimeoutMS = int(defaultTimeout / time.Millisecond)
	}
	return &Runner{cfg: cfg, trace: trace, trees: trees, bus: bus}
}

// Run executes all given scenarios with bounded concurrency and
// returns their results. A scenario that fails or aborts is a result,
// not a group error; Run itself only errors on context cancellation.
func (r *Runner) Run(ctx context.Context, scenarios map[string]config.ScenarioConfig) ([]Result, error) {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallelism)

	for _, name := range names {
		name := name
		sc := scenarios[name]
		g.Go(func() error {
			res := r.runScenario(gctx, name, sc)
			r.mu.Lock()
			r.results = append(r.results, res)
			r.mu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Scenario < out[j].Scenario })

	if err != nil {
		return out, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	return out, nil
}

func (r *Runner) runScenario(ctx context.Context, name string, sc config.ScenarioConfig) Result {
	runID := fmt.Sprintf("%s-%d", name, time.Now().UnixNano())

	seed := sc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := sim.New(seed, func(line string) {
		r.bus.Publish(events.TopicSim, events.SimLogEvent{
			RunID:     runID,
			Line:      line,
			Timestamp: time.Now(),
		})
	})

	start := time.Now()
	r.bus.Publish(events.TopicRun, events.RunStartedEvent{
		RunID:     runID,
		Scenario:  name,
		Tree:      sc.Tree,
		Seed:      seed,
		Timestamp: start,
	})

	tree, err := treespec.Build(r.trees, sc.Tree, w.Registry())
	if err != nil {
		return r.abort(runID, name, sc, start, 0, fmt.Errorf("building tree: %w", err))
	}

	// Timer deliveries go through the pump so they never touch the
	// world from a timer goroutine.
	timers := sim.NewTimers()
	defer timers.Close()

	f, err := btree.Run(tree, btree.Config{
		Delay:   timers.Delay,
		Monitor: r.monitor(runID),
	})
	if err != nil {
		return r.abort(runID, name, sc, start, 0, err)
	}

	ticks := sc.Ticks
	if ticks <= 0 {
		ticks = defaultTicks
	}
	interval := time.Duration(sc.TickMS) * time.Millisecond
	if interval <= 0 {
		interval = defaultTickMS * time.Millisecond
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.RunTimeoutMS)*time.Millisecond)
	defer cancel()

	var pumpErr error
	if !f.IsResolved() {
		pumpErr = sim.Pump(runCtx, w, timers, ticks, interval, f.IsResolved)
	}

	result, resolved := f.Peek()
	res := Result{
		RunID:    runID,
		Scenario: name,
		Success:  resolved && result,
		Aborted:  !resolved,
		Ticks:    w.Ticks(),
		Err:      pumpErr,
	}

	r.bus.Publish(events.TopicRun, events.RunFinishedEvent{
		RunID:     runID,
		Result:    res.Success,
		Aborted:   res.Aborted,
		Err:       pumpErr,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	return res
}

func (r *Runner) abort(runID, name string, sc config.ScenarioConfig, start time.Time, ticks int, err error) Result {
	r.bus.Publish(events.TopicRun, events.RunFinishedEvent{
		RunID:     runID,
		Aborted:   true,
		Err:       err,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	return Result{
		RunID:    runID,
		Scenario: name,
		Aborted:  true,
		Ticks:    ticks,
		Err:      err,
	}
}

// monitor bridges engine node events onto the bus when tracing is
// enabled.
func (r *Runner) monitor(runID string) func(btree.NodeEvent) {
	if !r.trace.Enabled {
		return nil
	}
	return func(e btree.NodeEvent) {
		if e.Done {
			r.bus.Publish(events.TopicNode, events.NodeResolvedEvent{
				RunID:     runID,
				Path:      e.Path,
				Label:     e.Label,
				Kind:      e.Kind.String(),
				Result:    e.Result,
				Timestamp: e.Time,
			})
			return
		}
		r.bus.Publish(events.TopicNode, events.NodeStartedEvent{
			RunID:     runID,
			Path:      e.Path,
			Label:     e.Label,
			Kind:      e.Kind.String(),
			Timestamp: e.Time,
		})
	}
}
