package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "freshstart/internal/errors"
	"freshstart/internal/runtime/runtimetest"
	"freshstart/internal/scm"
	"freshstart/internal/ui"
	"freshstart/pkg/project"
)

// fakeProvider is an in-memory ScmProvider.
type fakeProvider struct {
	name         string
	prereqErr    error
	publishErr   error
	published    []*project.Request
	publishedTip string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CheckPrerequisites(context.Context) error { return f.prereqErr }

func (f *fakeProvider) Publish(_ context.Context, req *project.Request, repo *git.Repository) (string, error) {
	f.published = append(f.published, req)
	if repo != nil {
		if head, err := repo.Head(); err == nil {
			f.publishedTip = head.Hash().String()
		}
	}
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return fmt.Sprintf("https://example.test/%s", req.Repository()), nil
}

func newStarter(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "starter")
	files := map[string]string{
		"package.json":            `{"name": "starter", "version": "1.0.0", "description": "old"}`,
		"composer.json":           `{"name": "acme/starter", "type": "project"}`,
		"src/Kernel.php":          "<?php\n",
		"vendor/autoload.php":     "<?php\n",
		"node_modules/x/index.js": "",
		".env.local":              "APP_SECRET=local\n",
	}
	for name, content := range files {
		path := filepath.Join(src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return src
}

func forkRequest(t *testing.T, src string) *project.Request {
	t.Helper()
	return &project.Request{
		Name:        "shop",
		Owner:       "Jane",
		Provider:    project.ProviderGitHub,
		Visibility:  "public",
		Source:      src,
		Destination: filepath.Join(t.TempDir(), "shop"),
	}
}

func forkFactory(p *fakeProvider) *ProviderFactory {
	factory := NewProviderFactoryWith(runtimetest.NewMockCommandRunner(), nil)
	factory.RegisterScmProvider(p)
	return factory
}

func testConsole() (*ui.Console, *bytes.Buffer) {
	var out bytes.Buffer
	return ui.NewConsoleWithWriters(&out, &out, false), &out
}

func TestForkProject_CreatesCommitsAndPublishes(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub}
	req := forkRequest(t, newStarter(t))
	console, out := testConsole()

	run, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.NoError(t, err)
	assert.Equal(t, "https://example.test/Jane/shop", run.ProjectURL)
	assert.Contains(t, out.String(), "All done! Your new project is ready.")

	assert.FileExists(t, filepath.Join(req.Destination, "src", "Kernel.php"))
	assert.NoDirExists(t, filepath.Join(req.Destination, "vendor"))
	assert.NoDirExists(t, filepath.Join(req.Destination, "node_modules"))
	assert.NoFileExists(t, filepath.Join(req.Destination, ".env.local"))

	var composer map[string]any
	data, err := os.ReadFile(filepath.Join(req.Destination, "composer.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &composer))
	assert.Equal(t, "jane/shop", composer["name"])
	assert.Equal(t, "shop - Symfony Docker Application", composer["description"])

	repo, err := git.PlainOpen(req.Destination)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, scm.InitialCommitMessage, commit.Message)
	assert.Equal(t, head.Hash().String(), provider.publishedTip)
}

func TestForkProject_DryRunWritesNothing(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub}
	req := forkRequest(t, newStarter(t))
	req.DryRun = true
	console, out := testConsole()

	run, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.NoError(t, err)
	assert.NoDirExists(t, req.Destination)
	assert.Empty(t, provider.published)
	assert.Contains(t, out.String(), "DRY RUN: Would create github repository Jane/shop (public)")

	res, ok := run.Result("commit")
	require.True(t, ok)
	assert.Equal(t, StatusSkipped, res.Status)
}

func TestForkProject_PublishFailureIsAWarning(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub, publishErr: errors.New("name already exists on this account")}
	req := forkRequest(t, newStarter(t))
	console, out := testConsole()

	run, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "You may need to do it manually.")
	res, _ := run.Result("publish")
	assert.Equal(t, StatusWarned, res.Status)
	assert.DirExists(t, filepath.Join(req.Destination, ".git"))
}

func TestForkProject_AuthFailureStopsRun(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub, publishErr: fmt.Errorf("%w: cancelled", scm.ErrAuthFailed)}
	req := forkRequest(t, newStarter(t))
	console, out := testConsole()

	_, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.Error(t, err)
	assert.True(t, errors.Is(err, scm.ErrAuthFailed))
	assert.True(t, errors.Is(err, apperrors.ErrSCMFailed))
	assert.Contains(t, out.String(), "gh auth login")
	assert.NotContains(t, out.String(), "All done!")
}

func TestForkProject_PrerequisitesFailBeforeCopy(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub, prereqErr: errors.New("GitHub CLI (gh) is not installed")}
	req := forkRequest(t, newStarter(t))
	console, out := testConsole()

	_, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSCMFailed))
	assert.NoDirExists(t, req.Destination)
	assert.Contains(t, out.String(), "https://cli.github.com/")
}

func TestForkProject_DestinationExists(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	provider := &fakeProvider{name: project.ProviderGitHub}
	req := forkRequest(t, newStarter(t))
	require.NoError(t, os.MkdirAll(req.Destination, 0o755))
	console, out := testConsole()

	_, err := ForkProject(context.Background(), req, forkFactory(provider), console)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrScaffoldFailed))
	assert.Contains(t, out.String(), "already exists")
	assert.Empty(t, provider.published)
}

func TestForkProject_InvalidRequest(t *testing.T) {
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())
	req := forkRequest(t, newStarter(t))
	req.Name = "my project!"
	console, _ := testConsole()

	_, err := ForkProject(context.Background(), req, forkFactory(&fakeProvider{name: "github"}), console)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
}
