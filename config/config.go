// Package config provides a default configuration for the simulator,
// loadable from a YAML file or built programmatically.
package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// SimulatorConfig holds the host-side knobs the engine itself never
// needs: the core's fixed-point convergence loop and clocked step never
// time out on their own (§5), so a configured cycle bound is this
// collaborator's responsibility, not the engine's.
type SimulatorConfig struct {
	MaxCycles     uint64 `yaml:"max_cycles"`
	DumpRegisters bool   `yaml:"dump_registers"`
	LogLevel      string `yaml:"log_level"`
}

// Builder assembles a SimulatorConfig the way DeviceBuilder used to
// assemble a CGRA device: chained value-receiver WithX methods, then
// Build.
type Builder struct {
	cfg SimulatorConfig
}

// MakeBuilder returns a Builder seeded with defaults: an unbounded cycle
// count (0 means "no host-side bound"), registers included in dumps, and
// info-level logging.
func MakeBuilder() Builder {
	return Builder{cfg: SimulatorConfig{
		MaxCycles:     0,
		DumpRegisters: true,
		LogLevel:      "info",
	}}
}

// WithMaxCycles sets the host-side cycle bound; 0 means unbounded.
func (b Builder) WithMaxCycles(n uint64) Builder {
	b.cfg.MaxCycles = n
	return b
}

// WithDumpRegisters sets whether register cells are included in a dump,
// in addition to memories.
func (b Builder) WithDumpRegisters(dump bool) Builder {
	b.cfg.DumpRegisters = dump
	return b
}

// WithLogLevel sets the slog level name ("debug", "info", "warn", "error").
func (b Builder) WithLogLevel(level string) Builder {
	b.cfg.LogLevel = level
	return b
}

// Build returns the assembled SimulatorConfig.
func (b Builder) Build() SimulatorConfig {
	return b.cfg
}

// Load reads a SimulatorConfig from a YAML file, falling back to
// MakeBuilder's defaults for any field the file omits.
func Load(path string) (SimulatorConfig, error) {
	cfg := MakeBuilder().Build()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SlogLevel translates LogLevel into an slog.Level, defaulting to Info
// for an unrecognized name.
func (c SimulatorConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
