package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"freshstart/pkg/runtime"
)

// ErrComposeUnavailable is returned when neither compose spelling runs.
var ErrComposeUnavailable = errors.New("docker compose is not available")

// composeSpellings are tried in order. The standalone binary comes first.
var composeSpellings = []struct {
	command     []string
	versionArgs []string
}{
	{command: []string{"docker-compose"}, versionArgs: []string{"--version"}},
	{command: []string{"docker", "compose"}, versionArgs: []string{"version"}},
}

// Compose drives the docker compose CLI with whichever spelling is installed.
type Compose struct {
	runner  runtime.CommandRunner
	command []string
	dir     string
	file    string
	version string
}

// DetectCompose returns a Compose bound to the first spelling whose version
// command succeeds. file may be empty to let compose find its default file.
func DetectCompose(ctx context.Context, runner runtime.CommandRunner, dir, file string) (*Compose, error) {
	var errs []error
	for _, spelling := range composeSpellings {
		args := append(append([]string{}, spelling.command[1:]...), spelling.versionArgs...)
		out, err := runner.Output(ctx, dir, spelling.command[0], args...)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		c := &Compose{
			runner:  runner,
			command: spelling.command,
			dir:     dir,
			file:    file,
			version: strings.TrimSpace(out),
		}
		slog.Info("Docker Compose detected", "command", c.Command(), "version", c.version)
		return c, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrComposeUnavailable, errors.Join(errs...))
}

// Command is the compose invocation as typed on a shell.
func (c *Compose) Command() string {
	return strings.Join(c.command, " ")
}

func (c *Compose) Version() string {
	return c.version
}

// Down stops and removes containers, volumes and orphaned services.
func (c *Compose) Down(ctx context.Context) error {
	return c.run(ctx, "down", "-v", "--remove-orphans")
}

// Build builds the service images, bypassing the layer cache when noCache is set.
func (c *Compose) Build(ctx context.Context, noCache bool) error {
	if noCache {
		return c.run(ctx, "build", "--no-cache")
	}
	return c.run(ctx, "build")
}

// Up starts the services detached.
func (c *Compose) Up(ctx context.Context) error {
	return c.run(ctx, "up", "-d")
}

// Ps prints container status.
func (c *Compose) Ps(ctx context.Context) error {
	return c.run(ctx, "ps")
}

func (c *Compose) run(ctx context.Context, args ...string) error {
	full := append([]string{}, c.command[1:]...)
	if c.file != "" {
		full = append(full, "-f", c.file)
	}
	full = append(full, args...)
	return c.runner.Run(ctx, c.dir, c.command[0], full...)
}
