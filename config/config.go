// Package config provides JSON-loadable simulation configuration, with a
// load/save/validate/clone shape matching how this codebase's other
// configuration surfaces behave.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds simulation-level knobs. Every pipeline stage latency in
// APEX is fixed at one cycle by definition, so there is no per-opcode
// latency table to tune; what varies between runs is how long to simulate
// and how much to report.
type Config struct {
	// CycleBudget caps how many cycles cmd/apexsim simulates when no
	// explicit "simulate <n>" count is given. Zero means unbounded.
	// Core.Run and Pipeline.Run do not consult it.
	CycleBudget uint64 `json:"cycle_budget"`

	// DebugTrace enables a per-cycle state dump to stdout while running.
	DebugTrace bool `json:"debug_trace"`

	// BTBCapacity is reported for diagnostics only; it is not honored as
	// a knob because the branch target buffer's 4-entry table is a fixed
	// array type, not a runtime-sized one (see btb.Capacity). A nonzero
	// value that disagrees with btb.Capacity is a validation error; zero
	// is accepted.
	BTBCapacity int `json:"btb_capacity"`
}

// DefaultConfig returns the default simulation configuration.
func DefaultConfig() *Config {
	return &Config{
		CycleBudget: 1_000_000,
		DebugTrace:  false,
		BTBCapacity: 4,
	}
}

// LoadConfig loads a Config from a JSON file, starting from defaults for
// any field the file omits.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := DefaultConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// SaveConfig writes c to path as indented JSON.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that c is internally consistent.
func (c *Config) Validate() error {
	if c.BTBCapacity != 0 && c.BTBCapacity != 4 {
		return fmt.Errorf("btb_capacity must be 4 (the table is a fixed-size array), got %d", c.BTBCapacity)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
