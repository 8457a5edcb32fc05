package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name            string
		global          string
		project         string
		expectScenarios int
		checkScenario   string
		expectTree      string
		expectSeed      int64
		expectParallel  int
	}{
		{
			name:            "No config files - returns defaults",
			expectScenarios: 2,
			checkScenario:   "patrol",
			expectTree:      "guard",
			expectSeed:      1,
			expectParallel:  4,
		},
		{
			name:            "Global only - adds new scenario",
			global:          `{"scenarios": {"night-watch": {"tree": "guard", "seed": 13, "ticks": 100}}}`,
			expectScenarios: 3,
			checkScenario:   "night-watch",
			expectTree:      "guard",
			expectSeed:      13,
			expectParallel:  4,
		},
		{
			name:            "Project only - overrides scenario and runner",
			project:         `{"scenarios": {"patrol": {"tree": "scout", "seed": 99}}, "runner": {"parallelism": 8}}`,
			expectScenarios: 2,
			checkScenario:   "patrol",
			expectTree:      "scout",
			expectSeed:      99,
			expectParallel:  8,
		},
		{
			name:            "Both - project wins over global",
			global:          `{"scenarios": {"patrol": {"tree": "sentry", "seed": 5}}, "runner": {"parallelism": 2}}`,
			project:         `{"scenarios": {"patrol": {"tree": "scout", "seed": 99}}}`,
			expectScenarios: 2,
			checkScenario:   "patrol",
			expectTree:      "scout",
			expectSeed:      99,
			expectParallel:  2, // global runner override not touched by project
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.global != "" {
				globalPath = writeConfig(t, tmpDir, "global.json", tt.global)
			}
			projectPath := ""
			if tt.project != "" {
				projectPath = writeConfig(t, tmpDir, "project.json", tt.project)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if len(cfg.Scenarios) != tt.expectScenarios {
				t.Errorf("got %d scenarios, want %d", len(cfg.Scenarios), tt.expectScenarios)
			}
			scenario, ok := cfg.Scenarios[tt.checkScenario]
			if !ok {
				t.Fatalf("scenario %q missing", tt.checkScenario)
			}
			if scenario.Tree != tt.expectTree {
				t.Errorf("scenario tree = %q, want %q", scenario.Tree, tt.expectTree)
			}
			if scenario.Seed != tt.expectSeed {
				t.Errorf("scenario seed = %d, want %d", scenario.Seed, tt.expectSeed)
			}
			if cfg.Runner.Parallelism != tt.expectParallel {
				t.Errorf("parallelism = %d, want %d", cfg.Runner.Parallelism, tt.expectParallel)
			}
		})
	}
}

func TestLoadMissingFilesIsNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("Load failed on missing files: %v", err)
	}
	if len(cfg.Scenarios) == 0 {
		t.Error("defaults were not applied")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "config.json", `{not json`)

	if _, err := Load(path, ""); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestPartialRunnerOverride(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "config.json", `{"runner": {"db_path": "/tmp/custom.db"}}`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Runner.DBPath != "/tmp/custom.db" {
		t.Errorf("db path = %q, want /tmp/custom.db", cfg.Runner.DBPath)
	}
	// Unmentioned fields keep their defaults
	if cfg.Runner.Parallelism != 4 {
		t.Errorf("parallelism = %d, want default 4", cfg.Runner.Parallelism)
	}
	if cfg.Runner.TreesFile != ".behave/trees.json" {
		t.Errorf("trees file = %q, want default", cfg.Runner.TreesFile)
	}
}

func TestTraceSectionOverride(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "config.json", `{"trace": {"enabled": false, "buffer_size": 64}}`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trace.Enabled {
		t.Error("trace still enabled after override")
	}
	if cfg.Trace.BufferSize != 64 {
		t.Errorf("buffer size = %d, want 64", cfg.Trace.BufferSize)
	}
}
