package persistence

import (
	"context"
	"log"

	"github.com/aristath/behave/internal/events"
)

// Record consumes bus events from ch and persists them until the
// channel closes or the context is cancelled. Storage errors are
// logged and skipped so a failing disk never stalls a run.
func Record(ctx context.Context, store Store, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := record(ctx, store, e); err != nil && ctx.Err() == nil {
				log.Printf("persistence: dropping %s event: %v", e.EventType(), err)
			}
		}
	}
}

func record(ctx context.Context, store Store, e events.Event) error {
	switch ev := e.(type) {
	case events.RunStartedEvent:
		return store.SaveRun(ctx, &RunRecord{
			ID:        ev.RunID,
			Scenario:  ev.Scenario,
			Tree:      ev.Tree,
			Seed:      ev.Seed,
			StartedAt: ev.Timestamp,
		})

	case events.RunFinishedEvent:
		return store.FinishRun(ctx, ev.RunID, ev.Result, ev.Aborted, ev.Err, ev.Timestamp)

	case events.NodeStartedEvent:
		return store.AppendNodeEvent(ctx, &NodeRecord{
			RunID:     ev.RunID,
			Path:      ev.Path,
			Label:     ev.Label,
			Kind:      ev.Kind,
			Timestamp: ev.Timestamp,
		})

	case events.NodeResolvedEvent:
		return store.AppendNodeEvent(ctx, &NodeRecord{
			RunID:     ev.RunID,
			Path:      ev.Path,
			Label:     ev.Label,
			Kind:      ev.Kind,
			Resolved:  true,
			Result:    ev.Result,
			Timestamp: ev.Timestamp,
		})

	case events.SimLogEvent:
		return store.AppendLog(ctx, ev.RunID, ev.Line, ev.Timestamp)
	}
	return nil
}
