package app

import (
	"context"
	"log/slog"

	"freshstart/internal/deps"
	apperrors "freshstart/internal/errors"
	"freshstart/internal/ui"
)

// DependenciesStage installs Composer dependencies on the host. Without a
// local Composer it either defers to the container build or, when configured,
// installs them in a one-shot Composer container.
type DependenciesStage struct {
	factory *ProviderFactory
}

func NewDependenciesStage(factory *ProviderFactory) *DependenciesStage {
	return &DependenciesStage{factory: factory}
}

func (s *DependenciesStage) Name() string {
	return StageDependencies
}

func (s *DependenciesStage) Fatal() bool {
	return false
}

func (s *DependenciesStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconGear, "Installing Composer dependencies locally...")

	cfg := run.Config.Dependencies
	installer := deps.NewComposerInstaller(s.factory.CommandRunner(), run.Dir, cfg.Binary, cfg.VendorDir, cfg.Artifact)

	result, err := installer.Install(ctx)
	if result.Skipped {
		if cfg.ContainerFallback {
			return s.installInContainer(ctx, run)
		}
		run.Logf(ui.IconWarning, "Composer not found locally, will install dependencies in container")
		return nil
	}
	run.Logf(ui.IconSuccess, "Composer is available (%s)", result.Version)
	if result.Regenerated {
		run.Logf(ui.IconWarning, "%s was missing, recipes were reinstalled", cfg.Artifact)
	}
	if err != nil {
		run.Logf(ui.IconError, "Failed to install Composer dependencies locally: %v", err)
		run.Logf(ui.IconWarning, "Dependencies will be installed inside the container")
		return apperrors.NewDependencyError(
			"Failed to install Composer dependencies locally",
			err.Error(),
			"Dependencies will be installed inside the container",
			err,
		)
	}

	run.Logf(ui.IconSuccess, "Composer dependencies and autoload files created successfully")
	return nil
}

func (s *DependenciesStage) installInContainer(ctx context.Context, run *RunContext) error {
	cfg := run.Config.Dependencies
	run.Logf(ui.IconDocker, "Composer not found locally, installing dependencies with %s", cfg.Image)

	p, err := s.factory.GetProvisioner(run.Runtime, cfg.Image, cfg.Artifact)
	if err == nil {
		err = p.Provision(ctx, run.Dir)
	}
	if err != nil {
		slog.Warn("Container dependency install failed", "runId", run.RunID, "image", cfg.Image, "error", err)
		return apperrors.NewDependencyError(
			"Failed to install Composer dependencies in a container",
			err.Error(),
			"Dependencies will be installed inside the application container",
			err,
		)
	}

	run.Logf(ui.IconSuccess, "Composer dependencies installed in container")
	return nil
}
