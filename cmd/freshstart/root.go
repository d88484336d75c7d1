package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"freshstart/internal/app"
	"freshstart/internal/config"
	"freshstart/internal/ui"
)

// commandDeps are the collaborators commands use. Zero values mean the real
// implementations.
type commandDeps struct {
	factory *app.ProviderFactory
	console *ui.Console
	in      io.Reader
	workDir string
	// logOutput receives structured logs; nil means stderr.
	logOutput io.Writer
}

func (d commandDeps) withDefaults() (commandDeps, error) {
	if d.factory == nil {
		d.factory = app.NewProviderFactory()
	}
	if d.console == nil {
		d.console = ui.NewConsole()
	}
	if d.in == nil {
		d.in = os.Stdin
	}
	if d.logOutput == nil {
		d.logOutput = os.Stderr
	}
	if d.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return d, fmt.Errorf("failed to determine working directory: %w", err)
		}
		d.workDir = wd
	}
	return d, nil
}

const rootLong = `🚀 Symfony Docker Starter - Fresh Start

Provides a complete fresh setup for your Symfony Docker project.

WHAT THIS COMMAND DOES:
  1. ✅ Validates system requirements (Docker, Docker Compose, Node.js)
  2. 📋 Sets up environment files (.env.local)
  3. 📦 Installs Composer dependencies locally
  4. 🧹 Cleans up existing Docker resources (optional)
  5. 🏗️  Builds Docker containers
  6. 🚀 Starts the application
  7. 🏥 Performs health checks
  8. 📊 Shows useful management commands

AFTER SETUP:
  - Application: http://localhost:8080 (app.url)
  - Logs: npm run logs
  - Shell: npm run shell
  - Stop: npm run stop

CONFIGURATION:
  Defaults can be overridden in .freshstart.yaml or with FRESHSTART_*
  environment variables, e.g. FRESHSTART_APP_URL.`

func newRootCommand(deps commandDeps) *cobra.Command {
	var (
		cfgFile     string
		logLevel    string
		metricsFile string
		skipCleanup bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:           "freshstart",
		Short:         "Fresh setup for a Symfony Docker project",
		Long:          rootLong,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := deps.withDefaults()
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, d, cfgFile, logLevel)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Metrics.Textfile = metricsFile
			}

			opts := app.Options{SkipCleanup: skipCleanup, NoCache: noCache}
			if _, err := app.Bootstrap(cmd.Context(), opts, cfg, d.workDir, d.factory, d.console); err != nil {
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&skipCleanup, "skip-cleanup", false, "Skip Docker cleanup (faster for development rebuilds)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Force rebuild containers without cache")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics to this file in Prometheus text format")

	cmd.AddCommand(newProjectCommand(deps))
	return cmd
}

// loadConfig reads the configuration and sets up logging. --log-level wins
// over the configured level.
func loadConfig(cmd *cobra.Command, d commandDeps, cfgFile, logLevel string) (*config.Config, error) {
	initLogger(d.logOutput, logLevel)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	} else if cfg.LogLevel != "" {
		initLogger(d.logOutput, cfg.LogLevel)
	}
	return cfg, nil
}

func initLogger(w io.Writer, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})))
}
