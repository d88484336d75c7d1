package app

import (
	"context"
	"log/slog"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/ui"
	"freshstart/pkg/project"
)

// ForkProject creates a new project from the starter described by req: it
// checks the SCM provider, copies and renames the files, commits them and
// publishes the repository. With req.DryRun it only reports the plan.
func ForkProject(ctx context.Context, req *project.Request, factory *ProviderFactory, console *ui.Console) (*RunContext, error) {
	run := NewRunContext(Options{}, nil, req.Destination, console)
	run.Project = req

	if factory == nil {
		factory = NewProviderFactory()
	}
	handler := newErrorHandler(run)

	if err := req.Validate(); err != nil {
		err = apperrors.NewConfigError("Invalid project details", err.Error(), "", err)
		reportFailure(handler, run, err)
		return run, err
	}

	provider, err := factory.GetScmProvider(req.Provider, req.GitLabURL)
	if err != nil {
		err = apperrors.NewSCMError(
			"Cannot publish to "+req.Provider,
			err.Error(),
			prerequisiteHint(req.Provider),
			err,
		)
		reportFailure(handler, run, err)
		return run, err
	}

	run.Println("\n🚀 Symfony Docker Starter - New Project Creator\n")
	if req.DryRun {
		run.Logf(ui.IconWarning, "DRY RUN MODE - No actual changes will be made")
	}
	slog.Info("Creating new project",
		"runId", run.RunID,
		"name", req.Name,
		"owner", req.Owner,
		"provider", req.Provider,
		"destination", req.Destination,
		"dryRun", req.DryRun)

	stages := []Stage{
		NewScmPrerequisitesStage(provider),
		NewScaffoldStage(),
		NewCommitStage(),
		NewPublishStage(provider),
	}
	if err := NewSequencer(stages, handler, nil).Run(ctx, run); err != nil {
		return run, err
	}

	if req.DryRun {
		run.Logf(ui.IconSuccess, "DRY RUN COMPLETED - No files were written")
		return run, nil
	}
	run.Println("\n🎉 All done! Your new project is ready.")
	run.Println("   cd " + req.Destination)
	return run, nil
}

func newErrorHandler(run *RunContext) *apperrors.ErrorHandler {
	h, err := apperrors.NewErrorHandler(run.Console())
	if err != nil {
		slog.Warn("Error log unavailable, failures will only be printed", "error", err)
		return nil
	}
	return h.WithRunID(run.RunID)
}
