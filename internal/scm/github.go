package scm

import (
	"context"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"

	"freshstart/pkg/project"
	"freshstart/pkg/runtime"
)

const ghBinary = "gh"

// GitHubProvider publishes through the GitHub CLI, reusing its login.
type GitHubProvider struct {
	runner runtime.CommandRunner
}

func NewGitHubProvider(runner runtime.CommandRunner) *GitHubProvider {
	return &GitHubProvider{runner: runner}
}

func (g *GitHubProvider) Name() string {
	return project.ProviderGitHub
}

// CheckPrerequisites fails when the gh binary cannot be run.
func (g *GitHubProvider) CheckPrerequisites(ctx context.Context) error {
	if _, err := g.runner.Output(ctx, "", ghBinary, "--version"); err != nil {
		return fmt.Errorf("GitHub CLI (gh) is not installed: %w", err)
	}
	return nil
}

// ensureAuth runs an interactive browser login when gh has no session.
func (g *GitHubProvider) ensureAuth(ctx context.Context) error {
	if _, err := g.runner.Output(ctx, "", ghBinary, "auth", "status"); err == nil {
		return nil
	}

	slog.Info("GitHub authentication required, opening browser")
	if err := g.runner.Run(ctx, "", ghBinary, "auth", "login", "--web"); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return nil
}

// Publish creates owner/name on GitHub from the committed repository in
// req.Destination and pushes it. The repo argument is unused; gh reads the
// working copy directly.
func (g *GitHubProvider) Publish(ctx context.Context, req *project.Request, _ *git.Repository) (string, error) {
	if err := g.ensureAuth(ctx); err != nil {
		return "", err
	}

	slog.Info("Creating GitHub repository", "repository", req.Repository(), "visibility", req.Visibility)

	err := g.runner.Run(ctx, req.Destination, ghBinary,
		"repo", "create", req.Repository(),
		"--"+req.Visibility,
		"--source=.",
		"--remote=origin",
		"--push",
	)
	if err != nil {
		return "", fmt.Errorf("failed to create or push GitHub repository: %w", err)
	}

	url := "https://github.com/" + req.Repository()
	slog.Info("Successfully pushed repository to GitHub", "url", url)
	return url, nil
}
