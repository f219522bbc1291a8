package experiment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sweepline/sweep/internal/yml"
	"github.com/sweepline/sweep/model"
	"github.com/sweepline/sweep/service/dao/experiment/constraints"
	"github.com/sweepline/sweep/service/meta"
	"github.com/viant/afs"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

type Service struct {
	metaService       *meta.Service
	parametersNodeKey string

	mu    sync.RWMutex
	cache map[string]*model.Experiment
}

// DecodeYAML decodes an experiment from YAML
func (s *Service) DecodeYAML(encoded []byte) (*model.Experiment, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.ParseExperiment("", &node)
}

// Load loads an experiment from YAML at the specified URL.  Parsed
// definitions are cached; use Refresh or Upsert to invalidate or replace a
// cached copy.
func (s *Service) Load(ctx context.Context, URL string) (*model.Experiment, error) {
	ext := filepath.Ext(URL)
	if ext == "" {
		URL += ".yaml"
	}
	s.mu.RLock()
	cached, ok := s.cache[URL]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load experiment from %s: %w", URL, err)
	}
	experiment, err := s.ParseExperiment(URL, &node)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[URL] = experiment
	s.mu.Unlock()
	return experiment, nil
}

// Refresh discards the cached definition at location; the next Load reloads
// the asset from its source.
func (s *Service) Refresh(location string) {
	if filepath.Ext(location) == "" {
		location += ".yaml"
	}
	s.mu.Lock()
	delete(s.cache, location)
	s.mu.Unlock()
}

// Upsert stores the experiment in the cache under location, making it
// immediately available to Load.
func (s *Service) Upsert(location string, experiment *model.Experiment) {
	if filepath.Ext(location) == "" {
		location += ".yaml"
	}
	s.mu.Lock()
	s.cache[location] = experiment
	s.mu.Unlock()
}

func (s *Service) ParseExperiment(URL string, node *yaml.Node) (*model.Experiment, error) {
	experiment := &model.Experiment{
		Source: &model.Source{URL: URL},
		Name:   experimentNameFromURL(URL),
	}

	if err := s.parseExperiment((*yml.Node)(node), experiment); err != nil {
		return nil, fmt.Errorf("failed to parse experiment from %s: %w", URL, err)
	}

	if experiment.Name == "" {
		experiment.Name = generateAnonymousName()
	}

	assignArmName(experiment)

	if issues := experiment.Validate(); len(issues) > 0 {
		return nil, issues[0]
	}
	return experiment, nil
}

// experimentNameFromURL extracts the experiment name from URL (file name
// without extension)
func experimentNameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// assignArmName names the status quo arm when the definition left it blank
func assignArmName(experiment *model.Experiment) {
	if experiment.StatusQuo != nil && experiment.StatusQuo.Name == "" {
		experiment.StatusQuo.Name = "status_quo"
	}
}

// parseExperiment converts a YAML node to the experiment model
func (s *Service) parseExperiment(node *yml.Node, experiment *model.Experiment) error {
	rootNode := node
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		rootNode = (*yml.Node)(node.Content[0])
	}
	parametersKey := strings.ToLower(s.parametersNodeKey)

	var parameters []model.Parameter
	var parameterConstraints []model.Constraint

	err := rootNode.Pairs(func(key string, valueNode *yml.Node) error {
		lowerKey := strings.ToLower(key)
		switch lowerKey {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				experiment.Name = valueNode.Value
			}
		case "description":
			if valueNode.Kind == yaml.ScalarNode {
				experiment.Description = valueNode.Value
			}
		case "version":
			if valueNode.Kind == yaml.ScalarNode {
				experiment.Version = valueNode.Value
			}
		case "import":
			if valueNode.Kind == yaml.MappingNode {
				var imports model.Imports
				if err := valueNode.Pairs(func(importKey string, importValue *yml.Node) error {
					imports = append(imports, &model.Import{
						Package: importKey,
						PkgPath: importValue.Value,
					})
					return nil
				}); err != nil {
					return fmt.Errorf("failed to parse import: %w", err)
				}
				experiment.Imports = imports
			}
		case parametersKey:
			parsed, err := parseParameters(valueNode)
			if err != nil {
				return fmt.Errorf("failed to parse parameters: %w", err)
			}
			parameters = parsed
		case "constraints":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("constraints should be a sequence")
			}
			for _, item := range valueNode.Content {
				constraint, err := constraints.Parse([]byte(item.Value))
				if err != nil {
					return fmt.Errorf("failed to parse constraint %q: %w", item.Value, err)
				}
				parameterConstraints = append(parameterConstraints, constraint)
			}
		case "objective":
			objective, outcomeConstraints, err := parseOptimization(valueNode)
			if err != nil {
				return err
			}
			experiment.OptimizationConfig = &model.OptimizationConfig{
				Objective:          *objective,
				OutcomeConstraints: outcomeConstraints,
			}
		case "outcomes":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("outcomes should be a sequence")
			}
			if experiment.OptimizationConfig == nil {
				experiment.OptimizationConfig = &model.OptimizationConfig{}
			}
			for _, item := range valueNode.Content {
				constraint, err := constraints.ParseOutcome([]byte(item.Value))
				if err != nil {
					return fmt.Errorf("failed to parse outcome constraint %q: %w", item.Value, err)
				}
				experiment.OptimizationConfig.OutcomeConstraints = append(experiment.OptimizationConfig.OutcomeConstraints, constraint)
			}
		case "statusquo":
			if valueNode.Kind != yaml.MappingNode {
				return fmt.Errorf("statusQuo should be a mapping")
			}
			point := model.Parameterization{}
			if err := valueNode.Pairs(func(paramKey string, paramValue *yml.Node) error {
				point[paramKey] = paramValue.Interface()
				return nil
			}); err != nil {
				return err
			}
			experiment.StatusQuo = model.NewArm(point)
		case "evaluation":
			evaluation, err := parseEvaluation(valueNode)
			if err != nil {
				return err
			}
			experiment.Evaluation = evaluation
		case "generation":
			generation, err := parseGeneration(valueNode)
			if err != nil {
				return err
			}
			experiment.Generation = generation
		case "retry":
			retry, err := parseRetry(valueNode)
			if err != nil {
				return err
			}
			experiment.Retry = retry
		case "labels":
			if valueNode.Kind == yaml.MappingNode {
				experiment.Labels = map[string]string{}
				_ = valueNode.Pairs(func(labelKey string, labelValue *yml.Node) error {
					experiment.Labels[labelKey] = labelValue.Value
					return nil
				})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(parameters) > 0 {
		searchSpace, err := model.NewSearchSpace(parameters, parameterConstraints...)
		if err != nil {
			return err
		}
		experiment.SearchSpace = searchSpace
	}

	if experiment.StatusQuo != nil && experiment.SearchSpace != nil {
		cast, err := experiment.SearchSpace.Cast(experiment.StatusQuo.Parameters)
		if err != nil {
			return fmt.Errorf("invalid status quo: %w", err)
		}
		experiment.StatusQuo.Parameters = cast
	}
	return nil
}

// parseParameters converts the parameters mapping into search space
// parameters, preserving declaration order.
func parseParameters(node *yml.Node) ([]model.Parameter, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameters node should be a mapping")
	}
	var parameters []model.Parameter
	err := node.Pairs(func(name string, paramNode *yml.Node) error {
		parameter, err := parseParameter(name, paramNode)
		if err != nil {
			return err
		}
		parameters = append(parameters, parameter)
		return nil
	})
	return parameters, err
}

func parseParameter(name string, node *yml.Node) (model.Parameter, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parameter %q should be a mapping", name)
	}

	var declaredType model.ParameterType
	var bounds []float64
	var values []interface{}
	var fixed interface{}
	var hasFixed, logScale, isFidelity, isOrdered bool

	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "type":
			declaredType = model.ParameterType(valueNode.Value)
		case "range":
			if valueNode.Kind != yaml.SequenceNode || len(valueNode.Content) != 2 {
				return fmt.Errorf("parameter %q: range should be [lower, upper]", name)
			}
			for _, item := range valueNode.Content {
				bound, err := toolbox.ToFloat((*yml.Node)(item).Interface())
				if err != nil {
					return fmt.Errorf("parameter %q: invalid bound %q", name, item.Value)
				}
				bounds = append(bounds, bound)
			}
		case "values":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("parameter %q: values should be a sequence", name)
			}
			for _, item := range valueNode.Content {
				values = append(values, (*yml.Node)(item).Interface())
			}
		case "value":
			fixed = valueNode.Interface()
			hasFixed = true
		case "log":
			flag, ok := valueNode.Interface().(bool)
			if !ok {
				return fmt.Errorf("parameter %q: log should be a boolean", name)
			}
			logScale = flag
		case "fidelity":
			flag, ok := valueNode.Interface().(bool)
			if !ok {
				return fmt.Errorf("parameter %q: fidelity should be a boolean", name)
			}
			isFidelity = flag
		case "ordered":
			flag, ok := valueNode.Interface().(bool)
			if !ok {
				return fmt.Errorf("parameter %q: ordered should be a boolean", name)
			}
			isOrdered = flag
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case len(bounds) == 2:
		if declaredType == "" {
			declaredType = model.TypeFloat
		}
		parameter, err := model.NewRangeParameter(name, declaredType, bounds[0], bounds[1])
		if err != nil {
			return nil, err
		}
		parameter.LogScale = logScale
		parameter.IsFidelity = isFidelity
		return parameter, nil
	case len(values) > 0:
		if declaredType == "" {
			inferred, err := model.InferType(values[0])
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			declaredType = inferred
		}
		parameter, err := model.NewChoiceParameter(name, declaredType, values)
		if err != nil {
			return nil, err
		}
		parameter.IsOrdered = isOrdered
		return parameter, nil
	case hasFixed:
		if declaredType == "" {
			inferred, err := model.InferType(fixed)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			declaredType = inferred
		}
		return model.NewFixedParameter(name, declaredType, fixed)
	}
	return nil, fmt.Errorf("parameter %q declares neither range, values nor value", name)
}

func parseOptimization(node *yml.Node) (*model.Objective, []*model.OutcomeConstraint, error) {
	objective := &model.Objective{}
	var outcomeConstraints []*model.OutcomeConstraint

	if node.Kind == yaml.ScalarNode {
		objective.Metric = model.Metric{Name: node.Value}
		return objective, nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("objective should be a scalar or mapping")
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "metric":
			objective.Metric = model.Metric{Name: valueNode.Value}
		case "minimize":
			flag, ok := valueNode.Interface().(bool)
			if !ok {
				return fmt.Errorf("minimize should be a boolean")
			}
			objective.Minimize = flag
			objective.Metric.LowerIsBetter = flag
		}
		return nil
	})
	return objective, outcomeConstraints, err
}

func parseEvaluation(node *yml.Node) (*model.Evaluation, error) {
	evaluation := &model.Evaluation{}
	if node.Kind == yaml.ScalarNode {
		parts := strings.Split(node.Value, ":")
		evaluation.Service = parts[0]
		if len(parts) > 1 {
			evaluation.Method = parts[1]
		}
		return evaluation, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("evaluation should be a scalar or mapping")
	}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "service":
			evaluation.Service = valueNode.Value
		case "method":
			evaluation.Method = valueNode.Value
		case "input":
			evaluation.Input = valueNode.Interface()
		}
		return nil
	})
	return evaluation, err
}

func parseGeneration(node *yml.Node) (*model.Generation, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("generation should be a mapping")
	}
	generation := &model.Generation{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "totaltrials":
			count, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("totalTrials should be an integer")
			}
			generation.TotalTrials = count
		case "seed":
			seed, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("seed should be an integer")
			}
			generation.Seed = int64(seed)
		case "numcandidates":
			count, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("numCandidates should be an integer")
			}
			generation.NumCandidates = count
		case "deduplicate":
			flag, ok := valueNode.Interface().(bool)
			if !ok {
				return fmt.Errorf("deduplicate should be a boolean")
			}
			generation.Deduplicate = flag
		case "steps":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("steps should be a sequence")
			}
			for _, item := range valueNode.Content {
				step, err := parseGenerationStep((*yml.Node)(item))
				if err != nil {
					return err
				}
				generation.Steps = append(generation.Steps, step)
			}
		}
		return nil
	})
	return generation, err
}

func parseGenerationStep(node *yml.Node) (*model.GenerationStep, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("generation step should be a mapping")
	}
	step := &model.GenerationStep{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "model":
			step.Model = valueNode.Value
		case "trials":
			count, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("trials should be an integer")
			}
			step.Trials = count
		}
		return nil
	})
	return step, err
}

func parseRetry(node *yml.Node) (*model.Retry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("retry should be a mapping")
	}
	retry := &model.Retry{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "type":
			retry.Type = valueNode.Value
		case "maxretries":
			count, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("maxRetries should be an integer")
			}
			retry.MaxRetries = count
		case "delay":
			retry.Delay = valueNode.Value
		case "multiplier":
			multiplier, err := toolbox.ToFloat(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("multiplier should be a number")
			}
			retry.Multiplier = multiplier
		case "maxdelay":
			retry.MaxDelay = valueNode.Value
		}
		return nil
	})
	return retry, err
}

// New creates a new experiment service instance
func New(opts ...Option) *Service {
	ret := &Service{
		metaService:       meta.New(afs.New(), ""),
		parametersNodeKey: "parameters",
		cache:             map[string]*model.Experiment{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
