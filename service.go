package sweep

import (
	"context"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/sweepline/sweep/extension"
	"github.com/sweepline/sweep/generator"
	"github.com/sweepline/sweep/model/types"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/approval"
	rmemory "github.com/sweepline/sweep/service/dao/run/memory"
	tmemory "github.com/sweepline/sweep/service/dao/trial/memory"
	"github.com/sweepline/sweep/service/dao/experiment"
	evalexec "github.com/sweepline/sweep/service/eval/exec"
	"github.com/sweepline/sweep/service/eval/noop"
	"github.com/sweepline/sweep/service/eval/registry"
	"github.com/sweepline/sweep/service/evaluator"
	"github.com/sweepline/sweep/service/event"
	"github.com/sweepline/sweep/service/messaging"
	mmemory "github.com/sweepline/sweep/service/messaging/memory"
	"github.com/sweepline/sweep/service/meta"
	"github.com/sweepline/sweep/service/runner"
	"github.com/sweepline/sweep/service/scheduler"

	"github.com/viant/x"
)

type Service struct {
	runtime           *Runtime
	metaService       *meta.Service
	evaluators        *extension.Evaluators
	extensionTypes    []*x.Type
	extensionServices []types.Service
	evaluator         evaluator.Service
	evaluatorOptions  []evaluator.Option
	eventService      *event.Service
	approvalService   approval.Service
	generatorFactory  *generator.Factory
	queue             messaging.Queue[trial.Trial]
	parametersNodeKey string
	metaBaseURL       string
	metaFsOptions     []storage.Option
	runnerWorkers     int
	runnerConfig      *runner.Config
	schedulerConfig   *scheduler.Config
	objectiveName     string
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.evaluators = extension.NewEvaluators(s.extensionTypes...)
	s.evaluator = evaluator.NewService(s.evaluators, s.evaluatorOptions...)

	runnerOptions := []runner.Option{
		runner.WithEvaluator(s.evaluator),
		runner.WithMessageQueue(s.queue),
		runner.WithRunDAO(s.runtime.runDAO),
		runner.WithTrialDAO(s.runtime.trialDAO),
	}
	if s.runnerConfig != nil {
		runnerOptions = append(runnerOptions, runner.WithConfig(*s.runnerConfig))
	}
	if s.runnerWorkers > 0 {
		runnerOptions = append(runnerOptions, runner.WithWorkers(s.runnerWorkers))
	}
	s.runtime.runner, _ = runner.New(runnerOptions...)

	s.evaluators.Register(noop.New())
	s.evaluators.Register(registry.New(s.objectiveName))
	s.evaluators.Register(evalexec.New(s.objectiveName))
	for _, service := range s.extensionServices {
		s.evaluators.Register(service)
	}

	schedulerConfig := scheduler.DefaultConfig()
	if s.schedulerConfig != nil {
		schedulerConfig = *s.schedulerConfig
	}
	schedulerOptions := []scheduler.Option{scheduler.WithGeneratorFactory(s.generatorFactory)}
	if s.approvalService != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithApprovalService(s.approvalService))
	}
	s.runtime.scheduler = scheduler.New(s.runtime.runDAO, s.runtime.trialDAO, s.queue, schedulerConfig, schedulerOptions...)
	s.runtime.evaluator = s.evaluator
	s.runtime.evaluators = s.evaluators
	s.runtime.eventService = s.eventService
	s.runtime.queue = s.queue
}

func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.evaluators.Types().Register(types[i])
	}
}

func (s *Service) RegisterExtensionServices(services ...types.Service) {
	for i := range services {
		s.evaluators.Register(services[i])
	}
}

func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// NewContext returns a context carrying the engine evaluators and event
// service so that ad-hoc evaluations behave like scheduled ones.
func (s *Service) NewContext(ctx context.Context) context.Context {
	return trial.NewContext(ctx, s.evaluators, s.eventService)
}

func (s *Service) ensureBaseSetup() {

	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}

	if s.runtime.experimentDAO == nil {
		if s.parametersNodeKey == "" {
			s.parametersNodeKey = "parameters"
		}
		s.runtime.experimentDAO = experiment.New(experiment.WithParametersNodeKey(s.parametersNodeKey), experiment.WithMetaService(s.metaService))
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[trial.Trial](mmemory.DefaultConfig())
	}
	if s.eventService == nil {
		s.eventService, _ = event.New("memory", event.WithNewMemoryQueueConfig(func(string) mmemory.Config {
			return mmemory.DefaultConfig()
		}))
	}
	if s.runtime.runDAO == nil {
		s.runtime.runDAO = rmemory.New()
	}
	if s.runtime.trialDAO == nil {
		s.runtime.trialDAO = tmemory.New()
	}
	if s.generatorFactory == nil {
		s.generatorFactory = generator.NewFactory()
	}
}

func (s *Service) RegisterExtensionType(aType *x.Type) {
	s.extensionTypes = append(s.extensionTypes, aType)
}

func New(options ...Option) *Service {
	ret := &Service{runtime: &Runtime{}}
	ret.init(options)
	return ret
}
