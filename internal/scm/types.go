package scm

import (
	"context"
	"errors"

	git "github.com/go-git/go-git/v5"

	"freshstart/pkg/project"
)

var (
	// ErrAuthFailed means the provider could not authenticate the user at all.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrRepositoryExists means the remote repository is already there.
	ErrRepositoryExists = errors.New("repository already exists")
)

// ScmProvider defines the interface for source control management operations.
// This interface is provider-agnostic and can be implemented by any SCM provider
// such as GitLab, GitHub, Bitbucket, etc.
type ScmProvider interface {
	// Name is the provider identifier, e.g. "github".
	Name() string
	// CheckPrerequisites verifies the provider can be used before anything is written.
	CheckPrerequisites(ctx context.Context) error
	// Publish creates the remote repository for req and pushes repo to it,
	// returning the repository's web URL.
	Publish(ctx context.Context, req *project.Request, repo *git.Repository) (string, error)
}
