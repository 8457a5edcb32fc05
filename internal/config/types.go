package config

// ScenarioConfig defines one simulated run: which tree drives the
// guard and how the world is ticked.
type ScenarioConfig struct {
	Tree   string `json:"tree"`              // Named tree in the definitions file
	Seed   int64  `json:"seed,omitempty"`    // World randomness seed (0 picks one per run)
	Ticks  int    `json:"ticks,omitempty"`   // World ticks before the run is abandoned
	TickMS int    `json:"tick_ms,omitempty"` // Wall-clock interval between ticks
}

// RunnerConfig controls batch execution of scenarios.
type RunnerConfig struct {
	Parallelism  int    `json:"parallelism,omitempty"`    // Concurrent runs (default 4)
	RunTimeoutMS int    `json:"run_timeout_ms,omitempty"` // Per-run wall-clock budget
	DBPath       string `json:"db_path,omitempty"`        // SQLite file for run records
	TreesFile    string `json:"trees_file,omitempty"`     // Tree definitions file
}

// TraceConfig controls node-level event tracing.
type TraceConfig struct {
	Enabled    bool `json:"enabled"`
	BufferSize int  `json:"buffer_size,omitempty"` // Bus subscriber buffer
}

// BehaveConfig is the top-level configuration.
type BehaveConfig struct {
	Scenarios map[string]ScenarioConfig `json:"scenarios"`
	Runner    RunnerConfig              `json:"runner"`
	Trace     TraceConfig               `json:"trace"`
}
