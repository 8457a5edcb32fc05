package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/behave/internal/config"
	"github.com/aristath/behave/internal/events"
	"github.com/aristath/behave/internal/persistence"
	"github.com/aristath/behave/internal/runner"
	"github.com/aristath/behave/internal/treespec"
	"github.com/aristath/behave/internal/tui"
)

// defaultTreesJSON is written to the trees file on first run so there
// is always something to execute and edit. The guard patrols until it
// has defeated enough enemies to finish the shift, falling back to
// resting or fleeing when things go badly.
const defaultTreesJSON = `{
  "root": "guard",
  "trees": {
    "guard": {
      "type": "parallel",
      "policy": "exists",
      "label": "guard",
      "children": [
        {"type": "wait", "event": "mission", "label": "shift-complete"},
        {"type": "ref", "ref": "duty"}
      ]
    },
    "duty": {
      "type": "sequence",
      "loop": true,
      "label": "duty",
      "children": [
        {"type": "wait", "event": "tick"},
        {"type": "select", "label": "choose", "children": [
          {"type": "sequence", "children": [
            {"type": "condition", "signal": "enemy_visible"},
            {"type": "ref", "ref": "engage"}
          ]},
          {"type": "sequence", "children": [
            {"type": "condition", "signal": "low_health"},
            {"type": "do", "action": "rest", "label": "rest"}
          ]},
          {"type": "do", "action": "step_patrol", "label": "patrol"}
        ]}
      ]
    },
    "engage": {
      "type": "select",
      "label": "engage",
      "children": [
        {"type": "do", "action": "attack", "label": "attack"},
        {"type": "do", "action": "flee", "label": "flee"}
      ]
    }
  }
}
`

func main() {
	headless := flag.Bool("headless", false, "run scenarios without the TUI and print results")
	scenario := flag.String("scenario", "", "run only the named scenario")
	flag.Parse()

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Determine config paths
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
		os.Exit(1)
	}
	globalPath := filepath.Join(homeDir, ".behave", "config.json")
	projectPath := filepath.Join(".behave", "config.json")

	scenarios := cfg.Scenarios
	if *scenario != "" {
		sc, ok := scenarios[*scenario]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown scenario %q\n", *scenario)
			os.Exit(1)
		}
		scenarios = map[string]config.ScenarioConfig{*scenario: sc}
	}

	trees, err := loadTrees(cfg.Runner.TreesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tree definitions: %v\n", err)
		os.Exit(1)
	}

	// Create event bus
	bus := events.NewBus()
	defer bus.Close()

	// Record run history to SQLite off the bus
	store, err := persistence.NewSQLiteStore(ctx, cfg.Runner.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	go persistence.Record(ctx, store, bus.SubscribeAll(cfg.Trace.BufferSize))

	r := runner.New(cfg.Runner, cfg.Trace, trees, bus)

	if *headless {
		runHeadless(ctx, r, scenarios)
		return
	}

	// Create TUI model
	model := tui.New(bus, cfg, globalPath, projectPath)

	// Start Bubble Tea program in a goroutine so main can handle shutdown
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	// Kick off the scenario batch; the TUI follows along on the bus.
	go func() {
		if _, err := r.Run(ctx, scenarios); err != nil && ctx.Err() == nil {
			log.Printf("Runner error: %v", err)
		}
	}()

	// Handle shutdown
	select {
	case err := <-errChan:
		// Normal TUI exit (user pressed 'q' or TUI finished)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		// Signal received (Ctrl+C or SIGTERM)
		// Call stop() to restore default signal handling (double Ctrl+C = force exit)
		stop()

		log.Println("Shutdown signal received, cleaning up...")

		// Quit the TUI
		p.Quit()

		// Wait for TUI to exit with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			if err != nil {
				log.Printf("TUI exit error: %v", err)
			}
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing exit")
		}
	}
}

// loadTrees reads the tree definitions file, seeding it with the
// built-in guard trees when it does not exist yet.
func loadTrees(path string) (*treespec.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create trees directory: %w", err)
			}
		}
		if err := os.WriteFile(path, []byte(defaultTreesJSON), 0644); err != nil {
			return nil, fmt.Errorf("failed to write default trees: %w", err)
		}
	}
	return treespec.LoadFile(path)
}

func runHeadless(ctx context.Context, r *runner.Runner, scenarios map[string]config.ScenarioConfig) {
	results, err := r.Run(ctx, scenarios)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runner error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		status := "ok"
		switch {
		case res.Aborted:
			status = "aborted"
			failed++
		case !res.Success:
			status = "failed"
			failed++
		}
		if res.Err != nil {
			fmt.Printf("%-12s %-8s %4d ticks  (%v)\n", res.Scenario, status, res.Ticks, res.Err)
		} else {
			fmt.Printf("%-12s %-8s %4d ticks\n", res.Scenario, status, res.Ticks)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
