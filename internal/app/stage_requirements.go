package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/parser"
	internalruntime "freshstart/internal/runtime"
	"freshstart/internal/ui"
)

// RequirementsStage checks that Docker answers, that every configured tool
// runs, that a compose command exists and that the compose file parses.
type RequirementsStage struct {
	factory *ProviderFactory
}

func NewRequirementsStage(factory *ProviderFactory) *RequirementsStage {
	return &RequirementsStage{factory: factory}
}

func (s *RequirementsStage) Name() string {
	return StageRequirements
}

func (s *RequirementsStage) Fatal() bool {
	return true
}

func (s *RequirementsStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconGear, "Checking system requirements...")
	runner := s.factory.CommandRunner()

	for _, tool := range run.Config.Requirements.Tools {
		out, err := runner.Output(ctx, run.Dir, tool.Name, tool.Args...)
		if err != nil {
			run.Logf(ui.IconError, "%s is not installed or not in PATH", tool.Name)
			return apperrors.NewRequirementError(
				fmt.Sprintf("%s is not installed or not in PATH", tool.Name),
				err.Error(),
				tool.Hint,
				err,
			)
		}
		run.Logf(ui.IconSuccess, "%s version: %s", tool.Name, firstLine(out))
	}

	rt, err := s.factory.GetContainerRuntime(ctx)
	if err != nil {
		run.Logf(ui.IconError, "Docker is not running or not installed")
		return apperrors.NewRequirementError(
			"Docker is not running or not installed",
			err.Error(),
			"Docker is required and must be running. Please start Docker Desktop or the Docker daemon.",
			err,
		)
	}
	run.Runtime = rt
	run.Logf(ui.IconSuccess, "Docker is running")

	compose, err := internalruntime.DetectCompose(ctx, runner, run.Dir, composeFileArg(run.Config.Compose.File))
	if err != nil {
		run.Logf(ui.IconError, "Docker Compose is not available")
		return apperrors.NewRequirementError(
			"Docker Compose is not available",
			err.Error(),
			"Docker Compose is required. Install the compose plugin or the docker-compose binary.",
			err,
		)
	}
	run.Compose = compose
	run.Logf(ui.IconSuccess, "Docker Compose is available (%s)", compose.Command())

	composePath := run.Config.Compose.File
	if !filepath.IsAbs(composePath) {
		composePath = filepath.Join(run.Dir, composePath)
	}
	composeFile, err := parser.Parse(composePath)
	if err != nil {
		return apperrors.NewRequirementError(
			fmt.Sprintf("Compose file %s could not be loaded", run.Config.Compose.File),
			err.Error(),
			"Run freshstart from the project root or set compose.file in the configuration.",
			err,
		)
	}
	run.ComposeFile = composeFile

	if _, err := composeFile.Service(run.Config.Compose.Service); err != nil {
		run.Logf(ui.IconWarning, "Service %q is not defined in %s (services: %s)",
			run.Config.Compose.Service, run.Config.Compose.File, strings.Join(composeFile.ServiceNames(), ", "))
	}

	slog.Info("Requirements satisfied",
		"runId", run.RunID,
		"compose", compose.Command(),
		"services", composeFile.ServiceNames())
	return nil
}

// composeFileArg leaves the default file to compose itself so override files
// keep being merged.
func composeFileArg(file string) string {
	if file == defaultComposeFile {
		return ""
	}
	return file
}

const defaultComposeFile = "docker-compose.yml"

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		return line
	}
	return s
}
