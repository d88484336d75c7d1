package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/health"
	"freshstart/internal/ui"
)

// HealthCheckStage polls the application URL until it answers 200.
type HealthCheckStage struct {
	options []health.Option
}

// NewHealthCheckStage creates the stage; opts are passed to every checker it
// builds.
func NewHealthCheckStage(opts ...health.Option) *HealthCheckStage {
	return &HealthCheckStage{options: opts}
}

func (s *HealthCheckStage) Name() string {
	return StageHealthCheck
}

func (s *HealthCheckStage) Fatal() bool {
	return true
}

func (s *HealthCheckStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconHealth, "Performing health check...")

	policy := policyFor(run)
	opts := append([]health.Option{
		health.WithAttemptHook(func(a health.Attempt) {
			if a.Err != nil {
				run.Logf(ui.IconWarning, "Health check failed, retrying...")
				slog.Debug("Health check attempt failed", "attempt", a.Number, "error", a.Err)
				return
			}
			run.Logf(ui.IconWarning, "Got HTTP %d, retrying...", a.Status)
		}),
	}, s.options...)

	report, err := health.NewChecker(policy, opts...).Wait(ctx)
	run.HealthReport = &report
	if err != nil {
		if errors.Is(err, health.ErrTimeout) {
			return apperrors.NewHealthCheckError(
				fmt.Sprintf("Health check timeout after %s", policy.Timeout),
				fmt.Sprintf("%s did not answer 200 after %d attempts", policy.URL, report.Attempts),
				"Check the application logs with: "+composeCommand(run)+" logs -f "+run.Config.Compose.Service,
				err,
			)
		}
		return err
	}

	run.Logf(ui.IconSuccess, "Application is responding at %s", policy.URL)
	slog.Info("Health check succeeded",
		"runId", run.RunID,
		"attempts", report.Attempts,
		"retries", report.Retries,
		"elapsed", report.Elapsed)
	return nil
}

func policyFor(run *RunContext) health.Policy {
	cfg := run.Config.Health
	return health.Policy{
		URL:            run.Config.App.URL,
		Timeout:        cfg.Timeout,
		Interval:       cfg.Interval,
		RequestTimeout: cfg.RequestTimeout,
		InitialDelay:   cfg.InitialDelay,
	}
}
