package provisioner

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"freshstart/pkg/runtime"
)

const (
	// DefaultComposerImage is the official Composer image used when none is configured.
	DefaultComposerImage = "composer:2"

	// WorkingDirectory is the container working directory
	WorkingDirectory = "/app"
)

// ComposerDockerProvisioner runs Composer inside a one-shot container with the
// project bind-mounted, for hosts without a local Composer.
type ComposerDockerProvisioner struct {
	containerRuntime runtime.ContainerRuntime
	image            string
	artifact         string
}

// NewComposerDockerProvisioner creates a ComposerDockerProvisioner. artifact is
// the project-relative file that must exist after the install.
func NewComposerDockerProvisioner(containerRuntime runtime.ContainerRuntime, image, artifact string) *ComposerDockerProvisioner {
	if image == "" {
		image = DefaultComposerImage
	}
	return &ComposerDockerProvisioner{
		containerRuntime: containerRuntime,
		image:            image,
		artifact:         artifact,
	}
}

// Provision pulls the Composer image, installs and dumps the autoloader in a
// container, then checks that the artifact was generated on the host.
func (p *ComposerDockerProvisioner) Provision(ctx context.Context, projectDir string) error {
	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	absProjectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for project directory: %w", err)
	}

	slog.Info("Installing dependencies in container", "image", p.image, "projectDir", absProjectDir)

	if err := p.containerRuntime.PullImage(ctx, p.image); err != nil {
		return fmt.Errorf("failed to pull Composer image: %w", err)
	}

	if err := p.runComposerCommand(ctx, absProjectDir, "install", "--no-interaction", "--optimize-autoloader"); err != nil {
		return fmt.Errorf("composer install failed: %w", err)
	}

	if err := p.runComposerCommand(ctx, absProjectDir, "dump-autoload", "--optimize"); err != nil {
		return fmt.Errorf("composer dump-autoload failed: %w", err)
	}

	if p.artifact != "" {
		if _, err := os.Stat(filepath.Join(absProjectDir, p.artifact)); err != nil {
			return fmt.Errorf("%s was not generated by the container install", p.artifact)
		}
	}

	slog.Info("Container dependency install completed successfully")
	return nil
}

// runComposerCommand executes one Composer command using the container runtime.
func (p *ComposerDockerProvisioner) runComposerCommand(ctx context.Context, projectDir string, args ...string) error {
	cmd := append([]string{"composer"}, args...)

	slog.Info("Executing Composer command", "command", cmd)

	opts := runtime.RunOptions{
		Image:   p.image,
		Command: cmd,
		VolumeMounts: map[string]string{
			projectDir: WorkingDirectory,
		},
		EnvVars: map[string]string{
			"COMPOSER_ALLOW_SUPERUSER": "1",
			"COMPOSER_NO_INTERACTION":  "1",
		},
		WorkingDirectory: WorkingDirectory,
	}

	reader, err := p.containerRuntime.RunContainer(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to run container: %w", err)
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		cleanLine := cleanDockerLogLine(scanner.Text())
		if cleanLine != "" {
			slog.Info("Composer output", "line", cleanLine)
		}
	}

	if err := scanner.Err(); err != nil {
		reader.Close()
		return fmt.Errorf("error reading container output: %w", err)
	}

	// Close reports the container exit status.
	if err := reader.Close(); err != nil {
		return err
	}

	slog.Info("Composer command completed successfully", "command", cmd)
	return nil
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// cleanDockerLogLine strips the multiplexed stream header and ANSI sequences
// from a container log line and drops lines that are mostly non-printable.
func cleanDockerLogLine(line string) string {
	if len(line) == 0 {
		return ""
	}

	// [STREAM_TYPE][0][0][0][SIZE x4]
	if len(line) >= 8 && (line[0] == 1 || line[0] == 2) {
		if len(line) == 8 {
			return ""
		}
		line = line[8:]
	}

	line = ansiRegex.ReplaceAllString(line, "")
	line = strings.Map(func(r rune) rune {
		if r < 4 {
			return -1
		}
		return r
	}, line)
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	printable := 0
	for _, r := range line {
		if r >= 32 && r <= 126 {
			printable++
		}
	}
	if float64(printable)/float64(len(line)) < 0.5 {
		return ""
	}

	return line
}
