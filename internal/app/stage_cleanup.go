package app

import (
	"context"
	"errors"
	"fmt"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/ui"
)

// CleanupStage tears down the project's containers and prunes unused Docker
// resources. Every action is attempted even when an earlier one fails.
type CleanupStage struct{}

func NewCleanupStage() *CleanupStage {
	return &CleanupStage{}
}

func (s *CleanupStage) Name() string {
	return StageCleanup
}

func (s *CleanupStage) Fatal() bool {
	return false
}

// Skip honours --skip-cleanup.
func (s *CleanupStage) Skip(run *RunContext) (bool, string) {
	if run.Options.SkipCleanup {
		return true, "Skipping Docker cleanup as requested"
	}
	return false, ""
}

func (s *CleanupStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconClean, "Cleaning up existing Docker resources...")

	var errs []error
	if run.Compose != nil {
		if err := run.Compose.Down(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compose down: %w", err))
		}
	} else {
		errs = append(errs, errNoCompose)
	}

	if run.Runtime != nil {
		report, err := run.Runtime.Prune(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		run.Logf(ui.IconClean, "Pruned %d containers, %d images, %d networks, %d volumes (%d bytes reclaimed)",
			report.ContainersDeleted, report.ImagesDeleted, report.NetworksDeleted, report.VolumesDeleted, report.SpaceReclaimed)
	} else {
		errs = append(errs, errors.New("container runtime is not connected"))
	}

	if err := errors.Join(errs...); err != nil {
		run.Logf(ui.IconWarning, "Some cleanup commands failed (this is often normal)")
		return apperrors.NewCleanupError(
			"Some cleanup commands failed (this is often normal)",
			err.Error(),
			"",
			err,
		)
	}

	run.Logf(ui.IconSuccess, "Docker cleanup completed")
	return nil
}
