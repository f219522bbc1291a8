package model

import (
	"fmt"
)

// Source provides information about where an experiment definition was
// loaded from.
type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Evaluation binds an experiment to the evaluator service executing its
// trials. Input carries service specific configuration (command templates,
// function name, timeouts, ...) and is expanded per trial.
type Evaluation struct {
	Service string      `json:"service,omitempty" yaml:"service,omitempty"`
	Method  string      `json:"method,omitempty" yaml:"method,omitempty"`
	Input   interface{} `json:"input,omitempty" yaml:"input,omitempty"`
}

// GenerationStep assigns a number of trials to a generation model.
// Trials of -1 marks an unbounded terminal step.
type GenerationStep struct {
	Model  string `json:"model" yaml:"model"`
	Trials int    `json:"trials,omitempty" yaml:"trials,omitempty"`
}

// Generation configures how candidate arms are produced.
type Generation struct {
	Steps []*GenerationStep `json:"steps,omitempty" yaml:"steps,omitempty"`

	// TotalTrials caps the number of trials for a run; 0 means the engine
	// default applies.
	TotalTrials int `json:"totalTrials,omitempty" yaml:"totalTrials,omitempty"`

	// Seed makes quasi-random and random generators deterministic.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// NumCandidates is the per-iteration candidate pool size for
	// surrogate-driven models; 0 means the model default.
	NumCandidates int `json:"numCandidates,omitempty" yaml:"numCandidates,omitempty"`

	// Deduplicate rejects arms whose signature was already generated.
	Deduplicate bool `json:"deduplicate,omitempty" yaml:"deduplicate,omitempty"`
}

// Retry controls how failed trial evaluations are retried.
type Retry struct {
	Type       string  `json:"type,omitempty" yaml:"type,omitempty"` // fixed, exponential, none
	MaxRetries int     `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	Delay      string  `json:"delay,omitempty" yaml:"delay,omitempty"`           // base delay (duration string)
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"` // exponential multiplier (>1)
	MaxDelay   string  `json:"maxDelay,omitempty" yaml:"maxDelay,omitempty"`
}

// Experiment is a complete experiment definition: the search space to
// explore, what to optimize, how to evaluate a trial and how to generate
// candidates.
type Experiment struct {
	// Source provides information about the origin of the experiment
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Name is the unique identifier for the experiment
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description of the experiment
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Version specifies the definition version
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Imports resolve short type names used by evaluation inputs.
	Imports Imports `json:"imports,omitempty" yaml:"imports,omitempty"`

	// SearchSpace serializes through the tagged envelope in searchspace.go;
	// YAML definitions build it from their parameter blocks instead.
	SearchSpace *SearchSpace `json:"searchSpace,omitempty" yaml:"-"`

	OptimizationConfig *OptimizationConfig `json:"optimization,omitempty" yaml:"optimization,omitempty"`

	// StatusQuo is the baseline arm relative outcome constraints refer to.
	StatusQuo *Arm `json:"statusQuo,omitempty" yaml:"statusQuo,omitempty"`

	Evaluation *Evaluation `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`

	Generation *Generation `json:"generation,omitempty" yaml:"generation,omitempty"`

	Retry *Retry `json:"retry,omitempty" yaml:"retry,omitempty"`

	// Labels carry free-form experiment metadata.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ObjectiveName returns the name of the objective metric.
func (e *Experiment) ObjectiveName() string {
	return e.OptimizationConfig.ObjectiveName()
}

// Validate performs a best-effort structural validation of the experiment.
// The returned slice is empty when the definition is sound; otherwise it
// contains human-readable error descriptions.
func (e *Experiment) Validate() []error {
	var issues []error
	if e.Name == "" {
		issues = append(issues, fmt.Errorf("experiment name is empty"))
	}
	if e.SearchSpace == nil || len(e.SearchSpace.Parameters) == 0 {
		issues = append(issues, fmt.Errorf("experiment has no parameters"))
		return issues
	}

	if e.StatusQuo != nil {
		if err := e.SearchSpace.Validate(e.StatusQuo.Parameters); err != nil {
			issues = append(issues, fmt.Errorf("status quo arm: %w", err))
		}
	}

	if e.OptimizationConfig != nil {
		for _, constraint := range e.OptimizationConfig.OutcomeConstraints {
			if constraint.Relative && e.StatusQuo == nil {
				issues = append(issues, fmt.Errorf("relative outcome constraint %q requires a status quo arm", constraint))
			}
		}
	}

	if e.Generation != nil {
		for i, step := range e.Generation.Steps {
			if step.Model == "" {
				issues = append(issues, fmt.Errorf("generation step %d has no model", i))
			}
			if step.Trials == 0 && i < len(e.Generation.Steps)-1 {
				issues = append(issues, fmt.Errorf("generation step %d (%s) has no trial budget but is not terminal", i, step.Model))
			}
			if step.Trials < -1 {
				issues = append(issues, fmt.Errorf("generation step %d (%s) has invalid trial budget %d", i, step.Model, step.Trials))
			}
		}
	}

	if e.Evaluation != nil && e.Evaluation.Service != "" && e.Evaluation.Method == "" {
		issues = append(issues, fmt.Errorf("evaluation declares service %q but no method", e.Evaluation.Service))
	}
	return issues
}
