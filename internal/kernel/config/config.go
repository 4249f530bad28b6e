// Package config loads boot parameters for the kernel from YAML: process
// table size, CPU count, initial scheduling mode, and MLFQ tuning.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oscore/teachkernel/internal/kernel/proc"
)

// Config holds the boot-time parameters that are policy knobs rather than
// fixed constants.
type Config struct {
	NPROC int `yaml:"nproc"`
	NCPU  int `yaml:"ncpu"`

	// Mode is the scheduler's initial scheduling_mode: "fcfs" or "mlfq".
	Mode string `yaml:"mode"`

	// Quantum holds the per-level tick allowance (index 0..2) MLFQ demotes
	// a slot after.
	Quantum [3]int `yaml:"quantum"`

	// BoostPeriod is the tick interval between priority-boost sweeps.
	BoostPeriod int `yaml:"boost_period"`
}

// Default returns the documented boot defaults.
func Default() *Config {
	return &Config{
		NPROC:       64,
		NCPU:        4,
		Mode:        "fcfs",
		Quantum:     [3]int{1, 2, 4},
		BoostPeriod: 64,
	}
}

// Load reads a YAML config file, starting from Default and overriding only
// the fields present in the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects a config that would make the process table or scheduler
// incoherent.
func (c *Config) Validate() error {
	if c.NPROC <= 0 {
		return fmt.Errorf("config: nproc must be positive, got %d", c.NPROC)
	}
	if c.NCPU <= 0 {
		return fmt.Errorf("config: ncpu must be positive, got %d", c.NCPU)
	}
	switch c.Mode {
	case "fcfs", "mlfq":
	default:
		return fmt.Errorf("config: mode must be \"fcfs\" or \"mlfq\", got %q", c.Mode)
	}
	for i, q := range c.Quantum {
		if q <= 0 {
			return fmt.Errorf("config: quantum[%d] must be positive, got %d", i, q)
		}
	}
	return nil
}

// SchedulingMode translates the YAML mode string into proc.SchedulingMode.
func (c *Config) SchedulingMode() proc.SchedulingMode {
	if c.Mode == "mlfq" {
		return proc.ModeMLFQ
	}
	return proc.ModeFCFS
}
