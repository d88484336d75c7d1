package scm

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitialCommitMessage is the message of the first commit in a new project.
const InitialCommitMessage = "Initial commit"

// Fallback identity when no global git user is configured.
const (
	fallbackAuthorName  = "freshstart"
	fallbackAuthorEmail = "freshstart@localhost"
)

// DefaultAuthor returns the user.name and user.email from the global git
// config, falling back to a tool identity for whichever is unset.
func DefaultAuthor() *object.Signature {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		slog.Debug("Could not load global git config", "error", err)
	}
	return authorFrom(cfg)
}

func authorFrom(cfg *config.Config) *object.Signature {
	sig := &object.Signature{Name: fallbackAuthorName, Email: fallbackAuthorEmail, When: time.Now()}
	if cfg == nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

// InitRepository initializes a git repository in dir, stages every
// non-ignored file and records the initial commit.
func InitRepository(dir string, author *object.Signature) (*git.Repository, plumbing.Hash, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, plumbing.ZeroHash, fmt.Errorf("project directory does not exist: %s", dir)
	}
	if author == nil {
		author = DefaultAuthor()
	}

	slog.Info("Initializing git repository", "directory", dir)

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("failed to initialize git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("failed to add files to git: %w", err)
	}

	commit, err := worktree.Commit(InitialCommitMessage, &git.CommitOptions{Author: author})
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("failed to create initial commit: %w", err)
	}

	slog.Info("Created initial commit", "hash", commit.String(), "author", author.Name)
	return repo, commit, nil
}
