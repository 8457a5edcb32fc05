package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fileConfig mirrors BehaveConfig with optional sections, so a config
// file only overrides what it mentions.
type fileConfig struct {
	Scenarios map[string]ScenarioConfig `json:"scenarios"`
	Runner    *RunnerConfig             `json:"runner"`
	Trace     *TraceConfig              `json:"trace"`
}

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*BehaveConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.behave/config.json
// Project: .behave/config.json (relative to cwd)
func LoadDefault() (*BehaveConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".behave", "config.json")
	projectPath := filepath.Join(".behave", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *BehaveConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded fileConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	for key, scenario := range loaded.Scenarios {
		base.Scenarios[key] = scenario
	}

	if loaded.Runner != nil {
		mergeRunner(&base.Runner, loaded.Runner)
	}

	if loaded.Trace != nil {
		base.Trace = *loaded.Trace
	}

	return nil
}

// mergeRunner applies the non-zero fields of an overlay onto base.
func mergeRunner(base, overlay *RunnerConfig) {
	if overlay.Parallelism != 0 {
		base.Parallelism = overlay.Parallelism
	}
	if overlay.RunTimeoutMS != 0 {
		base.RunTimeoutMS = overlay.RunTimeoutMS
	}
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}
	if overlay.TreesFile != "" {
		base.TreesFile = overlay.TreesFile
	}
}
