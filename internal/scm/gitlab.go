package scm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	gitlab "github.com/xanzy/go-gitlab"

	"freshstart/pkg/project"
)

// DefaultGitLabURL is the API base used when none is configured.
const DefaultGitLabURL = "https://gitlab.com/api/v4"

// GitLabTokenEnv names the variable holding the GitLab personal access token.
const GitLabTokenEnv = "GITLAB_PRIVATE_TOKEN"

// GitLabProvider implements the ScmProvider interface for GitLab.
type GitLabProvider struct {
	client *gitlab.Client
	token  string
}

// NewGitLabProvider creates a GitLabProvider authenticated with the token from
// GITLAB_PRIVATE_TOKEN. An empty baseURL means gitlab.com.
func NewGitLabProvider(baseURL string) (*GitLabProvider, error) {
	token := os.Getenv(GitLabTokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s environment variable is required", GitLabTokenEnv)
	}
	if baseURL == "" {
		baseURL = DefaultGitLabURL
	}

	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client: client,
		token:  token,
	}, nil
}

func (g *GitLabProvider) Name() string {
	return project.ProviderGitLab
}

// CheckPrerequisites verifies the token by asking who it belongs to.
func (g *GitLabProvider) CheckPrerequisites(ctx context.Context) error {
	user, _, err := g.client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: GitLab rejected the token: %w", ErrAuthFailed, err)
	}
	slog.Info("Authenticated with GitLab", "username", user.Username)
	return nil
}

// Publish creates the GitLab project under req.Owner and pushes repo to it.
func (g *GitLabProvider) Publish(ctx context.Context, req *project.Request, repo *git.Repository) (string, error) {
	slog.Info("Creating GitLab repository", "name", req.Name, "namespace", req.Owner)

	repoPath := req.Repository()
	existingProject, _, err := g.client.Projects.GetProject(repoPath, nil, gitlab.WithContext(ctx))
	if err == nil && existingProject != nil {
		return "", fmt.Errorf("%w: %s", ErrRepositoryExists, existingProject.WebURL)
	}

	description := project.Description(req.Name)
	createOpts := &gitlab.CreateProjectOptions{
		Name:                 &req.Name,
		Path:                 &req.Name,
		Description:          &description,
		Visibility:           gitlab.Visibility(visibilityLevel(req.Visibility)),
		InitializeWithReadme: gitlab.Bool(false),
		IssuesEnabled:        gitlab.Bool(true),
		MergeRequestsEnabled: gitlab.Bool(true),
		AutoDevopsEnabled:    gitlab.Bool(false),
	}
	if namespaceID, ok := g.groupNamespace(ctx, req.Owner); ok {
		createOpts.NamespaceID = &namespaceID
	}

	created, _, err := g.client.Projects.CreateProject(createOpts, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create GitLab project: %w", err)
	}

	slog.Info("GitLab repository created successfully", "id", created.ID, "url", created.HTTPURLToRepo)

	if err := g.push(ctx, repo, created.HTTPURLToRepo); err != nil {
		return created.WebURL, err
	}
	return created.WebURL, nil
}

// groupNamespace returns the namespace ID when owner is a group. Personal
// namespaces are left to the API's default.
func (g *GitLabProvider) groupNamespace(ctx context.Context, owner string) (int, bool) {
	ns, _, err := g.client.Namespaces.GetNamespace(owner, gitlab.WithContext(ctx))
	if err != nil || ns == nil || ns.Kind != "group" {
		return 0, false
	}
	return ns.ID, true
}

func (g *GitLabProvider) push(ctx context.Context, repo *git.Repository, repoURL string) error {
	if repo == nil {
		return fmt.Errorf("no local repository to push")
	}

	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	}); err != nil {
		return fmt.Errorf("failed to add remote origin: %w", err)
	}

	err := repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		Auth: &http.BasicAuth{
			Username: "oauth2", // GitLab uses oauth2 as username for token auth
			Password: g.token,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to push to remote repository: %w", err)
	}

	slog.Info("Successfully pushed repository to GitLab", "url", repoURL)
	return nil
}

func visibilityLevel(visibility string) gitlab.VisibilityValue {
	switch visibility {
	case "public":
		return gitlab.PublicVisibility
	case "internal":
		return gitlab.InternalVisibility
	default:
		return gitlab.PrivateVisibility
	}
}
