package sweep

import (
	"github.com/viant/afs/storage"
	"github.com/sweepline/sweep/generator"
	"github.com/sweepline/sweep/model/types"
	"github.com/sweepline/sweep/progress"
	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/approval"
	"github.com/sweepline/sweep/service/dao"
	"github.com/sweepline/sweep/service/event"
	"github.com/sweepline/sweep/service/messaging"
	"github.com/sweepline/sweep/service/meta"
	"github.com/sweepline/sweep/service/runner"
	"github.com/sweepline/sweep/service/scheduler"
	"github.com/sweepline/sweep/tracing"
	"github.com/viant/x"

	"github.com/sweepline/sweep/service/evaluator"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the engine service
type Option func(s *Service)

// WithApprovalService sets the approvalService service
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvalService = svc }
}

// WithExtensionTypes sets the extension types
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = types
	}
}

func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithExtensionServices sets the extension services
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = services
	}
}

// WithQueue sets the message queue
func WithQueue(queue messaging.Queue[trial.Trial]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithParametersNodeKey sets the YAML node key holding the search space
func WithParametersNodeKey(name string) Option {
	return func(s *Service) {
		s.parametersNodeKey = name
	}
}

// WithRunDAO sets the run DAO
func WithRunDAO(dao dao.Service[string, trial.Run]) Option {
	return func(s *Service) {
		s.runtime.runDAO = dao
	}
}

// WithTrialDAO sets the trial DAO
func WithTrialDAO(dao dao.Service[string, trial.Trial]) Option {
	return func(s *Service) {
		s.runtime.trialDAO = dao
	}
}

// WithRunnerWorkers sets the runner workers
func WithRunnerWorkers(count int) Option {
	return func(s *Service) {
		s.runnerWorkers = count
	}
}

// WithRunnerConfig sets the runner configuration
func WithRunnerConfig(config runner.Config) Option {
	return func(s *Service) {
		s.runnerConfig = &config
	}
}

// WithSchedulerConfig sets the scheduler configuration
func WithSchedulerConfig(config scheduler.Config) Option {
	return func(s *Service) {
		s.schedulerConfig = &config
	}
}

// WithGeneratorFactory overrides the generation model factory, allowing
// callers to register custom models.
func WithGeneratorFactory(factory *generator.Factory) Option {
	return func(s *Service) {
		s.generatorFactory = factory
	}
}

// WithObjectiveName sets the objective metric name the built-in evaluation
// services key bare measurements under.
func WithObjectiveName(name string) Option {
	return func(s *Service) {
		s.objectiveName = name
	}
}

// WithEvaluatorOptions lets the caller supply additional options passed to
// evaluator.NewService (e.g. disabling the default StdoutListener).
func WithEvaluatorOptions(opts ...evaluator.Option) Option {
	return func(s *Service) {
		s.evaluatorOptions = append(s.evaluatorOptions, opts...)
	}
}

// WithProgressListener registers a callback invoked after every trial counter
// update.
func WithProgressListener(onChange func(progress.Progress)) Option {
	return func(s *Service) {
		s.runtime.progressListener = onChange
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times, the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times, the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
