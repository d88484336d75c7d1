// Package deps installs a project's Composer dependencies on the host.
package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"freshstart/pkg/runtime"
)

// ErrArtifactMissing is returned when the runtime autoloader is still absent
// after the regeneration pass.
var ErrArtifactMissing = errors.New("autoload artifact missing after install")

// Result reports how an install went.
type Result struct {
	// Skipped is set when the Composer binary could not be invoked.
	Skipped bool
	Version string
	// Regenerated is set when the recipes had to be reinstalled to produce the artifact.
	Regenerated bool
}

// ComposerInstaller performs a clean Composer install in a project directory.
type ComposerInstaller struct {
	runner    runtime.CommandRunner
	dir       string
	binary    string
	vendorDir string
	artifact  string
}

// NewComposerInstaller returns an installer. vendorDir and artifact are relative
// to dir.
func NewComposerInstaller(runner runtime.CommandRunner, dir, binary, vendorDir, artifact string) *ComposerInstaller {
	return &ComposerInstaller{
		runner:    runner,
		dir:       dir,
		binary:    binary,
		vendorDir: vendorDir,
		artifact:  artifact,
	}
}

// Available reports whether the Composer binary runs, with its version line.
func (c *ComposerInstaller) Available(ctx context.Context) (string, bool) {
	out, err := c.runner.Output(ctx, c.dir, c.binary, "--version")
	if err != nil {
		slog.Debug("Composer not available", "binary", c.binary, "error", err)
		return "", false
	}
	return strings.TrimSpace(out), true
}

// Install wipes the vendor directory, installs, dumps an optimised autoloader
// and checks the artifact. One recipes:install pass is attempted when the
// artifact is missing. A missing binary yields a skipped Result and no error.
func (c *ComposerInstaller) Install(ctx context.Context) (Result, error) {
	version, ok := c.Available(ctx)
	if !ok {
		return Result{Skipped: true}, nil
	}
	result := Result{Version: version}

	vendor := c.path(c.vendorDir)
	if _, err := os.Stat(vendor); err == nil {
		slog.Info("Cleaning existing vendor directory", "path", vendor)
		if err := os.RemoveAll(vendor); err != nil {
			return result, fmt.Errorf("failed to remove %s: %w", vendor, err)
		}
	}

	if err := c.runner.Run(ctx, c.dir, c.binary, "install", "--no-interaction", "--optimize-autoloader"); err != nil {
		return result, err
	}
	if err := c.runner.Run(ctx, c.dir, c.binary, "dump-autoload", "--optimize"); err != nil {
		return result, err
	}

	if c.artifactExists() {
		return result, nil
	}

	slog.Warn("Autoload artifact not found, reinstalling recipes", "artifact", c.artifact)
	result.Regenerated = true
	if err := c.runner.Run(ctx, c.dir, c.binary, "recipes:install", "--force", "--reset"); err != nil {
		return result, err
	}
	if !c.artifactExists() {
		return result, fmt.Errorf("%w: %s", ErrArtifactMissing, c.artifact)
	}
	return result, nil
}

func (c *ComposerInstaller) artifactExists() bool {
	_, err := os.Stat(c.path(c.artifact))
	return err == nil
}

func (c *ComposerInstaller) path(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
