// Package config loads and validates run.yml, the run configuration for
// the tissue CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scossar/tissue-sort/pkg/arena"
)

// RunConfig represents the top-level run.yml configuration.
// Interval fields are Go duration strings (e.g. "10ms", "1s"); they are
// parsed and defaulted during Validate.
type RunConfig struct {
	Version      string         `yaml:"version"`
	Values       []float64      `yaml:"values"`
	Stubborn     []int          `yaml:"stubborn,omitempty"`      // Indices marked stubborn before the run
	StubbornMode string         `yaml:"stubborn_mode,omitempty"` // "refuse_initiate" (default) or "immovable"
	StepInterval string         `yaml:"step_interval,omitempty"` // Worker per-iteration sleep (default 10ms)
	PollInterval string         `yaml:"poll_interval,omitempty"` // Coordinator poll interval (default 100ms)
	MaxPolls     int            `yaml:"max_polls,omitempty"`     // Poll budget (default 500)
	Seed         uint64         `yaml:"seed,omitempty"`          // Non-zero makes direction choices reproducible
	Journal      *JournalConfig `yaml:"journal,omitempty"`

	stepInterval time.Duration
	pollInterval time.Duration
}

// JournalConfig enables the optional Redis-backed run-event stream.
type JournalConfig struct {
	RedisURL string `yaml:"redis_url"`
}

// Mode returns the configured stubborn mode as its typed enum.
func (c *RunConfig) Mode() arena.StubbornMode {
	if c.StubbornMode == "" {
		return arena.StubbornRefusesInitiate
	}
	return arena.StubbornMode(c.StubbornMode)
}

// StepDuration returns the parsed step interval. Valid after Validate.
func (c *RunConfig) StepDuration() time.Duration {
	return c.stepInterval
}

// PollDuration returns the parsed poll interval. Valid after Validate.
func (c *RunConfig) PollDuration() time.Duration {
	return c.pollInterval
}

// Validate performs strict validation on the configuration and applies
// defaults for optional fields.
func (c *RunConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: at least one value
	if len(c.Values) == 0 {
		return fmt.Errorf("no values defined")
	}

	if err := c.Mode().Validate(); err != nil {
		return fmt.Errorf("invalid stubborn_mode: %w", err)
	}

	// Stubborn indices must address actual slots
	for _, i := range c.Stubborn {
		if i < 0 || i >= len(c.Values) {
			return fmt.Errorf("stubborn index %d out of range (length %d)", i, len(c.Values))
		}
	}

	var err error
	if c.stepInterval, err = parseInterval("step_interval", c.StepInterval, 10*time.Millisecond); err != nil {
		return err
	}
	if c.pollInterval, err = parseInterval("poll_interval", c.PollInterval, 100*time.Millisecond); err != nil {
		return err
	}

	if c.MaxPolls == 0 {
		c.MaxPolls = 500
	}
	if c.MaxPolls < 0 {
		return fmt.Errorf("max_polls must be positive, got %d", c.MaxPolls)
	}

	if c.Journal != nil && c.Journal.RedisURL == "" {
		return fmt.Errorf("journal section requires redis_url")
	}

	return nil
}

// parseInterval parses a duration string, applying the default when empty
// and rejecting non-positive values.
func parseInterval(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", field, d)
	}
	return d, nil
}

// Load reads and validates run.yml from the specified path.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config RunConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
