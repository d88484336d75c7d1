package app

import (
	"context"
	"errors"

	apperrors "freshstart/internal/errors"
	internalruntime "freshstart/internal/runtime"
	"freshstart/internal/ui"
)

var errNoCompose = errors.New("compose command was not resolved")

// BuildStage builds the service images.
type BuildStage struct{}

func NewBuildStage() *BuildStage {
	return &BuildStage{}
}

func (s *BuildStage) Name() string {
	return StageBuild
}

func (s *BuildStage) Fatal() bool {
	return true
}

func (s *BuildStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconBuild, "Building Docker containers...")
	if run.Options.NoCache {
		run.Logf(ui.IconBuild, "Building without cache")
	}

	compose, err := composeFor(run)
	if err == nil {
		err = compose.Build(ctx, run.Options.NoCache)
	}
	if err != nil {
		return apperrors.NewBuildError(
			"Container build failed",
			err.Error(),
			"Check the Dockerfile and the build output above, then retry with --no-cache.",
			err,
		)
	}

	run.Logf(ui.IconSuccess, "Container build completed")
	return nil
}

// StartStage brings the services up detached.
type StartStage struct{}

func NewStartStage() *StartStage {
	return &StartStage{}
}

func (s *StartStage) Name() string {
	return StageStart
}

func (s *StartStage) Fatal() bool {
	return true
}

func (s *StartStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconDocker, "Starting application containers...")

	compose, err := composeFor(run)
	if err == nil {
		err = compose.Up(ctx)
	}
	if err != nil {
		return apperrors.NewStartError(
			"Failed to start application containers",
			err.Error(),
			"Make sure the published ports are free, then check the logs with: "+composeCommand(run)+" logs",
			err,
		)
	}

	run.Logf(ui.IconSuccess, "Application containers started")
	return nil
}

func composeFor(run *RunContext) (*internalruntime.Compose, error) {
	if run.Compose == nil {
		return nil, errNoCompose
	}
	return run.Compose, nil
}

func composeCommand(run *RunContext) string {
	if run.Compose == nil {
		return "docker compose"
	}
	return run.Compose.Command()
}
