package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"freshstart/internal/app"
	apperrors "freshstart/internal/errors"
	"freshstart/internal/runtime/runtimetest"
	"freshstart/internal/ui"
	"freshstart/pkg/project"
	"freshstart/pkg/runtime"
)

type testEnv struct {
	deps      commandDeps
	runner    *runtimetest.MockCommandRunner
	connected bool
	out       *bytes.Buffer
	console   *bytes.Buffer
}

func newTestEnv(t *testing.T, input string) *testEnv {
	t.Helper()
	t.Setenv("FRESHSTART_LOG_DIR", t.TempDir())

	env := &testEnv{
		runner:  runtimetest.NewMockCommandRunner(),
		out:     &bytes.Buffer{},
		console: &bytes.Buffer{},
	}
	factory := app.NewProviderFactoryWith(env.runner, func(context.Context) (runtime.ContainerRuntime, error) {
		env.connected = true
		return runtimetest.NewMockContainerRuntime(), nil
	})
	env.deps = commandDeps{
		factory:   factory,
		console:   ui.NewConsoleWithWriters(env.console, env.console, false),
		in:        strings.NewReader(input),
		workDir:   t.TempDir(),
		logOutput: io.Discard,
	}
	return env
}

func (e *testEnv) execute(args ...string) error {
	cmd := newRootCommand(e.deps)
	cmd.SetArgs(args)
	cmd.SetOut(e.out)
	cmd.SetErr(e.out)
	return cmd.ExecuteContext(context.Background())
}

func TestHelp_RunsNoStage(t *testing.T) {
	for _, args := range [][]string{
		{"--help"},
		{"--help", "--skip-cleanup"},
		{"--no-cache", "--help"},
		{"--skip-cleanup", "--no-cache", "--help"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			env := newTestEnv(t, "")

			require.NoError(t, env.execute(args...))

			assert.False(t, env.connected)
			env.runner.AssertNotCalled(t, "Output", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			env.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			assert.Contains(t, env.out.String(), "--skip-cleanup")
			assert.Contains(t, env.out.String(), "--no-cache")
			assert.Contains(t, env.out.String(), "WHAT THIS COMMAND DOES")
			assert.Empty(t, env.console.String())
		})
	}
}

func TestRoot_MissingRequirementFails(t *testing.T) {
	env := newTestEnv(t, "")
	env.runner.On("Output", mock.Anything, env.deps.workDir, "node", []string{"--version"}).
		Return("", errors.New("executable file not found in $PATH"))

	err := env.execute("--skip-cleanup")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingRequirement))
	assert.False(t, env.connected)
	assert.Equal(t, "Setup failed.", exitMessage(context.Background(), err))
	assert.Contains(t, env.console.String(), "node is not installed or not in PATH")
}

func TestRoot_RejectsArguments(t *testing.T) {
	env := newTestEnv(t, "")

	err := env.execute("unexpected")

	require.Error(t, err)
	assert.False(t, env.connected)
}

func TestRoot_InvalidConfigFile(t *testing.T) {
	env := newTestEnv(t, "")
	path := filepath.Join(t.TempDir(), "freshstart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  url: not a url\n"), 0o644))

	err := env.execute("--config", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
	assert.False(t, alreadyReported(context.Background(), err))
}

func TestExitMessage(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	interrupted := apperrors.NewFreshStartError(apperrors.ErrInterrupted, "Setup interrupted by user", "", "", context.Canceled)

	assert.Equal(t, "\n🛑 Setup interrupted by user", exitMessage(context.Background(), interrupted))
	assert.Equal(t, "\n🛑 Setup interrupted by user", exitMessage(cancelled, errors.New("signal: killed")))
	assert.Equal(t, "Setup failed.", exitMessage(context.Background(), reportedError{errors.New("build")}))
}

func TestReportExit(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		err        error
		wantReport bool
		wantLine   string
	}{
		{"config error", context.Background(), errors.New("loading config: bad url"), true, ""},
		{"stage failure", context.Background(), reportedError{errors.New("build")}, false, "Setup failed.\n"},
		{"interrupt", cancelled, errors.New("signal: interrupt"), false, "\n🛑 Setup interrupted by user\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reported []error
			var out bytes.Buffer

			reportExit(tt.ctx, tt.err, func(err error) { reported = append(reported, err) }, &out)

			if tt.wantReport {
				require.Len(t, reported, 1)
				assert.Equal(t, tt.err, reported[0])
				assert.Empty(t, out.String())
				return
			}
			assert.Empty(t, reported)
			assert.Equal(t, tt.wantLine, out.String())
		})
	}
}

func writeStarter(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "starter")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "composer.json"), []byte(`{"name": "acme/starter"}`), 0o644))
	return src
}

func TestNewProject_PromptsUntilValid(t *testing.T) {
	env := newTestEnv(t, "bad name!\n\nshop\njane\n")
	env.runner.On("Output", mock.Anything, "", "gh", []string{"--version"}).Return("gh version 2.52.0", nil).Once()
	src := writeStarter(t)

	err := env.execute("new-project", "--dry-run", "--source", src)

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(env.out.String(), "Only letters, numbers, hyphens, and underscores allowed."))
	assert.Equal(t, 3, strings.Count(env.out.String(), "Enter new project name"))
	assert.Contains(t, env.out.String(), "Enter your GitHub username")
	assert.Contains(t, env.console.String(), "DRY RUN: Would create github repository jane/shop (public)")
	assert.NoDirExists(t, filepath.Join(filepath.Dir(src), "shop"))
	env.runner.AssertExpectations(t)
}

func TestNewProject_EndOfInput(t *testing.T) {
	env := newTestEnv(t, "")

	err := env.execute("new-project", "--owner", "jane", "--dry-run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answer")
}

func TestCompleteRequest_DerivesDestination(t *testing.T) {
	src := writeStarter(t)
	req := &project.Request{Name: "shop", Owner: "jane", Provider: project.ProviderGitLab, Source: src}

	require.NoError(t, completeRequest(req, commandDeps{in: strings.NewReader("")}, io.Discard))

	assert.Equal(t, filepath.Join(filepath.Dir(src), "shop"), req.Destination)
}

func TestCompleteRequest_InvalidFlagNameIsReprompted(t *testing.T) {
	var out bytes.Buffer
	req := &project.Request{Name: "no spaces", Owner: "jane", Source: writeStarter(t)}

	require.NoError(t, completeRequest(req, commandDeps{in: strings.NewReader("shop\n")}, &out))

	assert.Equal(t, "shop", req.Name)
	assert.Contains(t, out.String(), "Only letters")
}

func TestPromptUntil_LastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	answer, err := promptUntil(bufio.NewReader(strings.NewReader("jane")), &out, "? ", func(string) string { return "" })

	require.NoError(t, err)
	assert.Equal(t, "jane", answer)
}

func TestInitLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "warn")
	t.Cleanup(func() { initLogger(io.Discard, "info") })

	slogInfoAndWarn()

	assert.NotContains(t, buf.String(), "info line")
	assert.Contains(t, buf.String(), `"msg":"warn line"`)
}

func slogInfoAndWarn() {
	slog.Info("info line")
	slog.Warn("warn line")
}
