package app

import (
	"context"
	"strings"

	"freshstart/internal/envfile"
	apperrors "freshstart/internal/errors"
	"freshstart/internal/ui"
)

// EnvironmentStage makes sure the project has a local environment file.
type EnvironmentStage struct {
	// Secret overrides the generator used for a synthesised template.
	Secret func() (string, error)
}

func NewEnvironmentStage() *EnvironmentStage {
	return &EnvironmentStage{}
}

func (s *EnvironmentStage) Name() string {
	return StageEnvironment
}

func (s *EnvironmentStage) Fatal() bool {
	return false
}

func (s *EnvironmentStage) Execute(_ context.Context, run *RunContext) error {
	run.Logf(ui.IconGear, "Setting up environment files...")

	cfg := run.Config.Env
	m := envfile.NewMaterializer(run.Dir, cfg.Template, cfg.Local)
	if s.Secret != nil {
		m.Secret = s.Secret
	}

	outcome, err := m.Materialize()
	if err != nil {
		return apperrors.NewEnvironmentError(
			"Failed to set up environment files",
			err.Error(),
			"Create "+cfg.Local+" by hand from "+cfg.Template+"; defaults from the image will be used meanwhile.",
			err,
		)
	}

	if outcome.TemplateCreated {
		run.Logf(ui.IconSuccess, "Created %s", cfg.Template)
	}
	if outcome.LocalCreated {
		run.Logf(ui.IconSuccess, "Created %s from %s", cfg.Local, cfg.Template)
	} else {
		run.Logf(ui.IconSuccess, "%s already exists", cfg.Local)
	}

	empty, err := m.Inspect(envfile.SecretKey)
	if err != nil {
		run.Logf(ui.IconWarning, "Could not parse %s: %v", cfg.Local, err)
		return nil
	}
	if len(empty) > 0 {
		run.Logf(ui.IconWarning, "%s has no value for %s", cfg.Local, strings.Join(empty, ", "))
	}
	return nil
}
