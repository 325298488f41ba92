package sim

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/queue-sim/sim/trace"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid simulator configuration")

// Config is the flat simulator configuration.
// The requests/buffer/sources/devices keys are the same as the JSON files
// the desktop tool reads; JSON parses as YAML, so both load through LoadConfig.
type Config struct {
	TargetRequests     int64   `yaml:"requests"`
	BufferCapacity     int     `yaml:"buffer"`
	SourcePeriods      []int64 `yaml:"sources"`
	DeviceCoefficients []int64 `yaml:"devices"`

	Law          string `yaml:"law"`           // "deterministic" (default) or "stochastic"
	BufferPolicy string `yaml:"buffer_policy"` // "priority" (default) or "round-robin"
	DevicePolicy string `yaml:"device_policy"` // "first-free" (default) or "round-robin"
	Seed         int64  `yaml:"seed"`
	Trace        string `yaml:"trace"` // "none" (default) or "decisions"
}

// LoadConfig reads a YAML or JSON configuration file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading simulator config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing simulator config: %w", err)
	}
	return cfg, nil
}

// Validate checks counts, ranges and policy names.
func (c Config) Validate() error {
	if len(c.SourcePeriods) == 0 {
		return fmt.Errorf("%w: at least one source required", ErrInvalidConfig)
	}
	if len(c.DeviceCoefficients) == 0 {
		return fmt.Errorf("%w: at least one device required", ErrInvalidConfig)
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("%w: buffer capacity must be positive, got %d", ErrInvalidConfig, c.BufferCapacity)
	}
	if c.TargetRequests <= 0 {
		return fmt.Errorf("%w: target requests must be positive, got %d", ErrInvalidConfig, c.TargetRequests)
	}
	for i, p := range c.SourcePeriods {
		if p <= 0 {
			return fmt.Errorf("%w: source[%d]: period must be positive, got %d", ErrInvalidConfig, i, p)
		}
	}
	for i, k := range c.DeviceCoefficients {
		if k <= 0 {
			return fmt.Errorf("%w: device[%d]: coefficient must be positive, got %d", ErrInvalidConfig, i, k)
		}
	}
	if !IsValidLaw(c.Law) {
		return fmt.Errorf("%w: unknown law %q; valid: deterministic, stochastic", ErrInvalidConfig, c.Law)
	}
	if !IsValidBufferPolicy(c.BufferPolicy) {
		return fmt.Errorf("%w: unknown buffer policy %q; valid: priority, round-robin", ErrInvalidConfig, c.BufferPolicy)
	}
	if !IsValidDevicePolicy(c.DevicePolicy) {
		return fmt.Errorf("%w: unknown device policy %q; valid: first-free, round-robin", ErrInvalidConfig, c.DevicePolicy)
	}
	if !trace.IsValidTraceLevel(c.Trace) {
		return fmt.Errorf("%w: unknown trace level %q; valid: none, decisions", ErrInvalidConfig, c.Trace)
	}
	return nil
}

// clone returns a Config whose slices are not shared with c.
func (c Config) clone() Config {
	c.SourcePeriods = append([]int64(nil), c.SourcePeriods...)
	c.DeviceCoefficients = append([]int64(nil), c.DeviceCoefficients...)
	return c
}
