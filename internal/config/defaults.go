package config

// DefaultConfig returns the default configuration with built-in scenarios.
func DefaultConfig() *BehaveConfig {
	return &BehaveConfig{
		Scenarios: map[string]ScenarioConfig{
			"patrol": {
				Tree:   "guard",
				Seed:   1,
				Ticks:  200,
				TickMS: 25,
			},
			"ambush": {
				Tree:   "guard",
				Seed:   7,
				Ticks:  400,
				TickMS: 25,
			},
		},
		Runner: RunnerConfig{
			Parallelism:  4,
			RunTimeoutMS: 30000,
			DBPath:       ".behave/behave.db",
			TreesFile:    ".behave/trees.json",
		},
		Trace: TraceConfig{
			Enabled:    true,
			BufferSize: 256,
		},
	}
}
