package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/scm"
	"freshstart/internal/ui"
	"freshstart/pkg/project"
)

// ScmPrerequisitesStage verifies the SCM provider is usable before anything is
// written.
type ScmPrerequisitesStage struct {
	provider scm.ScmProvider
}

func NewScmPrerequisitesStage(provider scm.ScmProvider) *ScmPrerequisitesStage {
	return &ScmPrerequisitesStage{provider: provider}
}

func (s *ScmPrerequisitesStage) Name() string {
	return "scm-prerequisites"
}

func (s *ScmPrerequisitesStage) Fatal() bool {
	return true
}

func (s *ScmPrerequisitesStage) Execute(ctx context.Context, run *RunContext) error {
	run.Logf(ui.IconGear, "Checking %s prerequisites...", s.provider.Name())

	if err := s.provider.CheckPrerequisites(ctx); err != nil {
		return apperrors.NewSCMError(
			fmt.Sprintf("%s is not ready to publish", s.provider.Name()),
			err.Error(),
			prerequisiteHint(s.provider.Name()),
			err,
		)
	}

	run.Logf(ui.IconSuccess, "%s is available", s.provider.Name())
	return nil
}

func prerequisiteHint(provider string) string {
	switch provider {
	case project.ProviderGitHub:
		return "Install the GitHub CLI from https://cli.github.com/ (Windows: winget install --id GitHub.cli)"
	case project.ProviderGitLab:
		return "Set " + scm.GitLabTokenEnv + " to a personal access token with the api scope"
	default:
		return ""
	}
}

func loginHint(provider string) string {
	if provider == project.ProviderGitHub {
		return "Please run: gh auth login"
	}
	return "Check the token in " + scm.GitLabTokenEnv
}

// CommitStage initialises a git repository in the new project and commits
// every file.
type CommitStage struct{}

func NewCommitStage() *CommitStage {
	return &CommitStage{}
}

func (s *CommitStage) Name() string {
	return "commit"
}

func (s *CommitStage) Fatal() bool {
	return true
}

func (s *CommitStage) Skip(run *RunContext) (bool, string) {
	if run.Project.DryRun {
		return true, "DRY RUN: Would initialize a git repository and commit all files"
	}
	return false, ""
}

func (s *CommitStage) Execute(_ context.Context, run *RunContext) error {
	run.Logf(ui.IconGear, "Initializing git repository...")

	repo, hash, err := scm.InitRepository(run.Project.Destination, scm.DefaultAuthor())
	if err != nil {
		return apperrors.NewSCMError(
			"Failed to create the initial commit",
			err.Error(),
			"Run git init, git add . and git commit in "+run.Project.Destination+" by hand.",
			err,
		)
	}
	run.Repository = repo

	run.Logf(ui.IconSuccess, "Created %q (%s)", scm.InitialCommitMessage, hash.String()[:7])
	return nil
}

// PublishStage creates the remote repository and pushes the initial commit.
// A failed publish leaves a usable local project, so only authentication
// failures stop the run.
type PublishStage struct {
	provider scm.ScmProvider
}

func NewPublishStage(provider scm.ScmProvider) *PublishStage {
	return &PublishStage{provider: provider}
}

func (s *PublishStage) Name() string {
	return "publish"
}

func (s *PublishStage) Fatal() bool {
	return false
}

func (s *PublishStage) Skip(run *RunContext) (bool, string) {
	req := run.Project
	if req.DryRun {
		return true, fmt.Sprintf("DRY RUN: Would create %s repository %s (%s) and push to it",
			s.provider.Name(), req.Repository(), req.Visibility)
	}
	return false, ""
}

func (s *PublishStage) Execute(ctx context.Context, run *RunContext) error {
	req := run.Project
	run.Logf(ui.IconRocket, "Publishing %s to %s...", req.Repository(), s.provider.Name())

	url, err := s.provider.Publish(ctx, req, run.Repository)
	if err != nil {
		if errors.Is(err, scm.ErrAuthFailed) {
			run.Logf(ui.IconError, "Authentication failed.")
			return halt(apperrors.NewSCMError(
				"Authentication failed",
				err.Error(),
				loginHint(s.provider.Name()),
				err,
			))
		}

		run.Logf(ui.IconError, "Failed to create or push to %s repo. You may need to do it manually.", s.provider.Name())
		return apperrors.NewSCMError(
			fmt.Sprintf("Failed to create or push to %s repo", s.provider.Name()),
			err.Error(),
			"You may need to do it manually.",
			err,
		)
	}

	run.ProjectURL = url
	run.Logf(ui.IconSuccess, "Project pushed to %s", url)
	slog.Info("Project published", "provider", s.provider.Name(), "repository", req.Repository(), "url", url)
	return nil
}
