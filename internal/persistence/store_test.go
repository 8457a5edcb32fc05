package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aristath/behave/internal/events"
)

// testStore creates an in-memory store for testing and registers cleanup.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestSaveAndGetRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run := &RunRecord{
		ID:       "run-1",
		Scenario: "patrol",
		Tree:     "guard",
		Seed:     42,
	}

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	retrieved, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}

	if retrieved.ID != run.ID {
		t.Errorf("ID mismatch: got %s, want %s", retrieved.ID, run.ID)
	}
	if retrieved.Scenario != run.Scenario {
		t.Errorf("Scenario mismatch: got %s, want %s", retrieved.Scenario, run.Scenario)
	}
	if retrieved.Tree != run.Tree {
		t.Errorf("Tree mismatch: got %s, want %s", retrieved.Tree, run.Tree)
	}
	if retrieved.Seed != run.Seed {
		t.Errorf("Seed mismatch: got %d, want %d", retrieved.Seed, run.Seed)
	}
	if retrieved.Finished {
		t.Error("fresh run reported as finished")
	}
	if retrieved.StartedAt.IsZero() {
		t.Error("StartedAt was not set")
	}
}

func TestSaveRunIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	run := &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard", Seed: 1}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	run.Scenario = "ambush"
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	retrieved, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if retrieved.Scenario != "ambush" {
		t.Errorf("Scenario = %s, want ambush", retrieved.Scenario)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs, want 1", len(runs))
	}
}

func TestFinishRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard"}); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	if err := store.FinishRun(ctx, "run-1", true, false, nil, time.Time{}); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	retrieved, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if !retrieved.Finished || !retrieved.Result || retrieved.Aborted {
		t.Errorf("run state = (finished %v, result %v, aborted %v), want (true, true, false)",
			retrieved.Finished, retrieved.Result, retrieved.Aborted)
	}
	if retrieved.FinishedAt.IsZero() {
		t.Error("FinishedAt was not set")
	}
}

func TestFinishRunStoresError(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard"}); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", false, true, fmt.Errorf("timeout without delay provider"), time.Time{}); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	retrieved, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if !retrieved.Aborted {
		t.Error("run not marked aborted")
	}
	if retrieved.Error == "" {
		t.Error("run error was not stored")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := testStore(t)
	if err := store.FinishRun(context.Background(), "ghost", true, false, nil, time.Time{}); err == nil {
		t.Fatal("expected an error for an unknown run")
	}
}

func TestGetUnknownRun(t *testing.T) {
	store := testStore(t)
	if _, err := store.GetRun(context.Background(), "ghost"); err == nil {
		t.Fatal("expected an error for an unknown run")
	}
}

func TestNodeEventTrail(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard"}); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	trail := []*NodeRecord{
		{RunID: "run-1", Path: "/", Kind: "sequence"},
		{RunID: "run-1", Path: "/0", Label: "step", Kind: "do"},
		{RunID: "run-1", Path: "/0", Label: "step", Kind: "do", Resolved: true, Result: true},
		{RunID: "run-1", Path: "/", Kind: "sequence", Resolved: true, Result: true},
	}
	for _, rec := range trail {
		if err := store.AppendNodeEvent(ctx, rec); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	got, err := store.GetNodeEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(got) != len(trail) {
		t.Fatalf("got %d events, want %d", len(got), len(trail))
	}
	for i, rec := range trail {
		if got[i].Path != rec.Path || got[i].Resolved != rec.Resolved || got[i].Result != rec.Result {
			t.Errorf("event %d = %+v, want %+v", i, got[i], rec)
		}
		if got[i].Label != rec.Label {
			t.Errorf("event %d label = %q, want %q", i, got[i].Label, rec.Label)
		}
	}
}

func TestSimLog(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard"}); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	lines := []string{"guard wakes up", "enemy spotted", "guard flees"}
	for _, line := range lines {
		if err := store.AppendLog(ctx, "run-1", line, time.Time{}); err != nil {
			t.Fatalf("failed to append log: %v", err)
		}
	}

	got, err := store.GetLog(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get log: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i, line := range lines {
		if got[i] != line {
			t.Errorf("line %d = %q, want %q", i, got[i], line)
		}
	}
}

func TestListRunsOrdered(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := &RunRecord{ID: fmt.Sprintf("run-%d", i), Scenario: "patrol", Tree: "guard"}
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	for i, run := range runs {
		want := fmt.Sprintf("run-%d", i)
		if run.ID != want {
			t.Errorf("run %d ID = %s, want %s", i, run.ID, want)
		}
	}
}

// TestStoreKeepsObservedTimes verifies that rows carry the times the
// events were observed, not the time the rows were written; a
// recorder lagging behind a buffered bus must not shift run history.
func TestStoreKeepsObservedTimes(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Hour).Truncate(time.Second)
	finished := started.Add(2 * time.Second)

	if err := store.SaveRun(ctx, &RunRecord{ID: "run-1", Scenario: "patrol", Tree: "guard", StartedAt: started}); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if err := store.AppendNodeEvent(ctx, &NodeRecord{RunID: "run-1", Path: "/", Kind: "sequence", Timestamp: started}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", true, false, nil, finished); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.StartedAt.Unix() != started.Unix() {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, started)
	}
	if run.FinishedAt.Unix() != finished.Unix() {
		t.Errorf("FinishedAt = %v, want %v", run.FinishedAt, finished)
	}

	recs, err := store.GetNodeEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get node events: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d node events, want 1", len(recs))
	}
	if recs[0].Timestamp.Unix() != started.Unix() {
		t.Errorf("node event time = %v, want %v", recs[0].Timestamp, started)
	}
}

// TestRecorderPersistsBusEvents drives the recorder with a closed
// channel of events and checks the resulting records.
func TestRecorderPersistsBusEvents(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	bus := events.NewBus()
	ch := bus.SubscribeAll(32)

	bus.Publish(events.TopicRun, events.RunStartedEvent{RunID: "run-1", Scenario: "patrol", Tree: "guard", Seed: 9, Timestamp: time.Now()})
	bus.Publish(events.TopicNode, events.NodeStartedEvent{RunID: "run-1", Path: "/", Kind: "sequence", Timestamp: time.Now()})
	bus.Publish(events.TopicSim, events.SimLogEvent{RunID: "run-1", Line: "guard wakes up", Timestamp: time.Now()})
	bus.Publish(events.TopicNode, events.NodeResolvedEvent{RunID: "run-1", Path: "/", Kind: "sequence", Result: true, Timestamp: time.Now()})
	bus.Publish(events.TopicRun, events.RunFinishedEvent{RunID: "run-1", Result: true, Timestamp: time.Now()})
	bus.Close()

	// Channel is closed, so Record drains it and returns.
	Record(ctx, store, ch)

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if !run.Finished || !run.Result {
		t.Errorf("run state = (finished %v, result %v), want (true, true)", run.Finished, run.Result)
	}

	nodeEvents, err := store.GetNodeEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get node events: %v", err)
	}
	if len(nodeEvents) != 2 {
		t.Errorf("got %d node events, want 2", len(nodeEvents))
	}

	logLines, err := store.GetLog(ctx, "run-1")
	if err != nil {
		t.Fatalf("failed to get log: %v", err)
	}
	if len(logLines) != 1 || logLines[0] != "guard wakes up" {
		t.Errorf("log = %v, want [guard wakes up]", logLines)
	}
}
