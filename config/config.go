// Package config loads the halosnap TOML configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"halosnap/engine"
	"halosnap/memory"
)

type Config struct {
	Target    TargetConfig     `toml:"target"`
	Addresses engine.Addresses `toml:"addresses"`
	Sampler   SamplerConfig    `toml:"sampler"`
	Output    OutputConfig     `toml:"output"`
}

type TargetConfig struct {
	PID            int    `toml:"pid"`
	VirtualAddress uint64 `toml:"virtual_address"` // host address of guest physical 0 (xemu: gpa2hva 0x0)
	WindowSize     uint64 `toml:"window_size"`
}

type SamplerConfig struct {
	Interval time.Duration `toml:"interval"`
}

type OutputConfig struct {
	Format string `toml:"format"` // "table" or "yaml"
}

var ErrInvalidConfig = errors.New("invalid config")

// Load reads path on top of Defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that an empty path yields Defaults
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Defaults(), nil
	}
	return Load(path)
}

func Defaults() *Config {
	return &Config{
		Target: TargetConfig{
			WindowSize: memory.DefaultWindowSize,
		},
		Addresses: engine.DefaultAddresses(),
		Sampler: SamplerConfig{
			Interval: 16 * time.Millisecond,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

func (c *Config) Validate() error {
	if c.Target.WindowSize == 0 {
		return fmt.Errorf("%w: target.window_size must be positive", ErrInvalidConfig)
	}
	if c.Sampler.Interval <= 0 {
		return fmt.Errorf("%w: sampler.interval must be positive", ErrInvalidConfig)
	}
	switch c.Output.Format {
	case "table", "yaml":
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalidConfig, c.Output.Format)
	}
	return nil
}
