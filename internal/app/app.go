package app

import (
	"context"
	"log/slog"
	"time"

	"freshstart/internal/config"
	apperrors "freshstart/internal/errors"
	"freshstart/internal/metrics"
	"freshstart/internal/ui"
)

// Stage names, in the order DefaultStages runs them.
const (
	StageRequirements = "requirements"
	StageEnvironment  = "environment"
	StageDependencies = "dependencies"
	StageCleanup      = "cleanup"
	StageBuild        = "build"
	StageStart        = "start"
	StageHealthCheck  = "healthcheck"
	StageSummary      = "summary"
)

// DefaultStages is the bootstrap sequence.
func DefaultStages(factory *ProviderFactory) []Stage {
	return []Stage{
		NewRequirementsStage(factory),
		NewEnvironmentStage(),
		NewDependenciesStage(factory),
		NewCleanupStage(),
		NewBuildStage(),
		NewStartStage(),
		NewHealthCheckStage(),
		NewSummaryStage(),
	}
}

// Sequencer runs stages strictly in order against one RunContext, stopping at
// the first fatal failure.
type Sequencer struct {
	stages   []Stage
	handler  *apperrors.ErrorHandler
	recorder metrics.Recorder
}

// NewSequencer creates a Sequencer. handler may be nil, in which case failures
// are only printed; recorder may be nil.
func NewSequencer(stages []Stage, handler *apperrors.ErrorHandler, recorder metrics.Recorder) *Sequencer {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Sequencer{
		stages:   stages,
		handler:  handler,
		recorder: recorder,
	}
}

// Run executes the stages. A stage implementing Skipper that asks to be skipped
// is recorded and never executed. Non-fatal failures are reported as warnings
// and the run continues unless the stage halted it. A fatal failure is
// reported, the container status is printed when compose is known, and the
// error is returned. A help run does nothing.
func (s *Sequencer) Run(ctx context.Context, run *RunContext) error {
	if run.Options.Help {
		return nil
	}

	for _, stage := range s.stages {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}

		if skipper, ok := stage.(Skipper); ok {
			if skip, reason := skipper.Skip(run); skip {
				if reason != "" {
					run.Logf(ui.IconWarning, "%s", reason)
				}
				s.finish(run, StageResult{Name: stage.Name(), Status: StatusSkipped})
				continue
			}
		}

		slog.Debug("Executing stage", "runId", run.RunID, "stage", stage.Name())
		start := time.Now()
		err := stage.Execute(ctx, run)
		result := StageResult{Name: stage.Name(), Duration: time.Since(start), Err: err}

		switch {
		case err == nil:
			result.Status = StatusSucceeded
			s.finish(run, result)
		case ctx.Err() != nil:
			result.Status = StatusFailed
			s.finish(run, result)
			return interrupted(ctx.Err())
		case !stage.Fatal() && !isHalt(err):
			result.Status = StatusWarned
			s.finish(run, result)
			s.warn(run, err)
		default:
			result.Status = StatusFailed
			s.finish(run, result)
			s.fail(ctx, run, err)
			return err
		}
	}
	return nil
}

func (s *Sequencer) finish(run *RunContext, result StageResult) {
	run.record(result)
	s.recorder.ObserveStageDuration(result.Name, result.Duration)
	s.recorder.IncStageResult(result.Name, resultLabel(result.Status))
}

func (s *Sequencer) warn(run *RunContext, err error) {
	if s.handler != nil {
		s.handler.Warn(err)
		return
	}
	slog.Warn("Non-fatal stage failure", "runId", run.RunID, "error", err)
	run.Console().PrintWarning(err.Error())
}

func (s *Sequencer) fail(ctx context.Context, run *RunContext, err error) {
	reportFailure(s.handler, run, err)

	run.Logf(ui.IconError, "Setup failed: %s", err)
	run.Logf(ui.IconError, "Please check the error above and try again.")

	if run.Compose == nil {
		return
	}
	run.Println("\n📊 Current container status:")
	if psErr := run.Compose.Ps(context.WithoutCancel(ctx)); psErr != nil {
		slog.Debug("Could not show container status", "error", psErr)
	}
}

// reportFailure prints err through handler, or straight to the console when
// there is no handler.
func reportFailure(handler *apperrors.ErrorHandler, run *RunContext, err error) {
	if handler != nil {
		handler.Handle(err)
		return
	}
	slog.Error("Run failed", "runId", run.RunID, "error", err)
	run.Console().PrintError(err.Error())
}

func resultLabel(status StageStatus) metrics.ResultLabel {
	switch status {
	case StatusSucceeded:
		return metrics.ResultSucceeded
	case StatusWarned:
		return metrics.ResultWarned
	case StatusSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultFailed
	}
}

func interrupted(err error) error {
	return apperrors.NewFreshStartError(apperrors.ErrInterrupted, "Setup interrupted by user", err.Error(), "", err)
}

// Bootstrap runs the full fresh-start sequence in dir. The returned RunContext
// is valid whether or not the run failed.
func Bootstrap(ctx context.Context, opts Options, cfg *config.Config, dir string, factory *ProviderFactory, console *ui.Console) (*RunContext, error) {
	run := NewRunContext(opts, cfg, dir, console)
	if opts.Help {
		return run, nil
	}
	if factory == nil {
		factory = NewProviderFactory()
	}

	handler := newErrorHandler(run)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var exporter *metrics.PrometheusRecorder
	if run.Config.Metrics.Textfile != "" {
		exporter = metrics.NewPrometheusRecorder(nil)
		recorder = exporter
	}

	slog.Info("Starting fresh setup",
		"runId", run.RunID,
		"dir", dir,
		"skipCleanup", opts.SkipCleanup,
		"noCache", opts.NoCache)
	run.Logf(ui.IconRocket, "Starting fresh setup for Symfony Docker project...")

	err := NewSequencer(DefaultStages(factory), handler, recorder).Run(ctx, run)
	run.closeRuntime()

	if run.HealthReport != nil {
		recorder.SetHealthCheckAttempts(run.HealthReport.Attempts)
	}
	recorder.ObserveRunDuration(run.Elapsed())
	recorder.SetRunOutcome(err == nil)
	if exporter != nil {
		if writeErr := exporter.WriteTextfile(run.Config.Metrics.Textfile); writeErr != nil {
			slog.Warn("Failed to write metrics textfile", "path", run.Config.Metrics.Textfile, "error", writeErr)
		}
	}

	if err != nil {
		slog.Error("Fresh setup failed", "runId", run.RunID, "error", err)
		return run, err
	}
	slog.Info("Fresh setup completed successfully", "runId", run.RunID, "elapsed", run.Elapsed())
	return run, nil
}
