package sweep

import (
	"fmt"

	"github.com/sweepline/sweep/service/scheduler"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, TOML, environment variables, etc. The
// zero-value is useful, all nested fields inherit their package defaults.

type Config struct {
	Runner    RunnerConfig    `json:"runner" yaml:"runner"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
}

type RunnerConfig struct {
	WorkerCount int `json:"workers" yaml:"workers"`
}

type SchedulerConfig struct {
	MaxParallelTrials int `json:"maxParallelTrials" yaml:"maxParallelTrials"`
	MaxTrialFailures  int `json:"maxTrialFailures" yaml:"maxTrialFailures"`
	TotalTrials       int `json:"totalTrials" yaml:"totalTrials"`
}

// DefaultConfig returns a Config populated with the same default values the
// constructors use. Callers may modify the returned struct before passing it
// to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			WorkerCount: 5,
		},
		Scheduler: SchedulerConfig{
			MaxParallelTrials: 3,
			MaxTrialFailures:  3,
			TotalTrials:       20,
		},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Runner.WorkerCount <= 0 {
		return fmt.Errorf("runner.workerCount must be > 0")
	}
	if c.Scheduler.MaxParallelTrials <= 0 {
		return fmt.Errorf("scheduler.maxParallelTrials must be > 0")
	}
	return nil
}

// NewFromConfig builds a service from the declarative configuration; extra
// options are applied after the config-derived ones and therefore win.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	schedulerConfig := scheduler.DefaultConfig()
	schedulerConfig.MaxParallelTrials = config.Scheduler.MaxParallelTrials
	schedulerConfig.MaxTrialFailures = config.Scheduler.MaxTrialFailures
	if config.Scheduler.TotalTrials > 0 {
		schedulerConfig.DefaultTotalTrials = config.Scheduler.TotalTrials
	}
	base := []Option{
		WithRunnerWorkers(config.Runner.WorkerCount),
		WithSchedulerConfig(schedulerConfig),
	}
	return New(append(base, options...)...), nil
}
