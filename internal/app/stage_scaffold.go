package app

import (
	"context"
	"errors"
	"log/slog"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/scaffolder"
	"freshstart/internal/ui"
)

// ScaffoldStage copies the starter into the new project's directory and
// renames its manifests.
type ScaffoldStage struct{}

func NewScaffoldStage() *ScaffoldStage {
	return &ScaffoldStage{}
}

func (s *ScaffoldStage) Name() string {
	return "scaffold"
}

func (s *ScaffoldStage) Fatal() bool {
	return true
}

func (s *ScaffoldStage) Execute(_ context.Context, run *RunContext) error {
	req := run.Project
	run.Logf(ui.IconGear, "Copying %s to %s...", req.Source, req.Destination)

	if err := scaffolder.Scaffold(req, req.DryRun); err != nil {
		suggestion := "Check that the source directory is readable and the destination's parent is writable."
		if errors.Is(err, scaffolder.ErrDestinationExists) {
			run.Logf(ui.IconError, "Directory %s already exists.", req.Destination)
			suggestion = "Choose another project name or remove the existing directory."
		}
		return apperrors.NewScaffoldError("Failed to create the project files", err.Error(), suggestion, err)
	}

	if req.DryRun {
		run.Logf(ui.IconSuccess, "Scaffolding simulation completed successfully")
	} else {
		run.Logf(ui.IconSuccess, "Project files copied to: %s", req.Destination)
	}
	slog.Info("Scaffolding completed successfully", "destination", req.Destination, "dryRun", req.DryRun)
	return nil
}
