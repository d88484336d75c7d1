package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"freshstart/internal/ui"
)

// LogFileName is the name of the JSON error log inside the log directory.
const LogFileName = "freshstart.log"

type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
	logPath string
}

// NewErrorHandler opens (or creates) the error log and returns a handler that
// writes structured records there and human-readable messages to console.
// A nil console means a default one.
func NewErrorHandler(console *ui.Console) (*ErrorHandler, error) {
	logFile, err := createLogFile()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if console == nil {
		console = ui.NewConsole()
	}

	return &ErrorHandler{
		logger:  logger,
		console: console,
		logPath: logFile.Name(),
	}, nil
}

// WithRunID returns a copy of the handler whose log records carry runId.
func (h *ErrorHandler) WithRunID(runID string) *ErrorHandler {
	clone := *h
	clone.logger = h.logger.With("runId", runID)
	return &clone
}

// LogPath returns the file the handler writes to.
func (h *ErrorHandler) LogPath() string {
	return h.logPath
}

// getOSStandardLogDir returns the OS-standard log directory path
func getOSStandardLogDir() (string, error) {
	// Check for environment variable override first
	if customLogDir := os.Getenv("FRESHSTART_LOG_DIR"); customLogDir != "" {
		return customLogDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "FreshStart"), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return filepath.Join(homeDir, ".local", "share", "freshstart", "logs"), nil
	case "windows":
		appDataDir := os.Getenv("APPDATA")
		if appDataDir == "" {
			return filepath.Join(homeDir, "AppData", "Roaming", "FreshStart", "logs"), nil
		}
		return filepath.Join(appDataDir, "FreshStart", "logs"), nil
	default:
		return filepath.Join(homeDir, ".freshstart", "logs"), nil
	}
}

// logDirectory returns a writable log directory, falling back to the
// working directory when the standard location is unusable.
func logDirectory() (string, error) {
	logDir, err := getOSStandardLogDir()
	if err == nil {
		if err = ensureWritable(logDir); err == nil {
			return logDir, nil
		}
	}

	currentDir, cwdErr := os.Getwd()
	if cwdErr != nil {
		return "", fmt.Errorf("cannot determine current directory for fallback logging: %w", cwdErr)
	}

	fmt.Fprintf(os.Stderr, "Warning: cannot use log directory %q (%v). Falling back to %s.\n", logDir, err, currentDir)
	return currentDir, nil
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		slog.Warn("Failed to close probe file", "path", name, "error", err)
	}
	if err := os.Remove(name); err != nil {
		slog.Warn("Failed to remove probe file", "path", name, "error", err)
	}
	return nil
}

const (
	maxLogSizeBytes = 10 * 1024 * 1024
	maxLogBackups   = 5
)

// rotateLogFile shifts freshstart.log -> .1 -> .2 ... dropping anything past
// maxLogBackups.
func rotateLogFile(logPath string) error {
	oldest := fmt.Sprintf("%s.%d", logPath, maxLogBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove old log file", "path", oldest, "error", err)
	}

	for i := maxLogBackups - 1; i > 0; i-- {
		from := fmt.Sprintf("%s.%d", logPath, i)
		to := fmt.Sprintf("%s.%d", logPath, i+1)
		if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to rotate log file", "old", from, "new", to, "error", err)
		}
	}

	if err := os.Rename(logPath, logPath+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func checkLogRotation(logPath string) error {
	info, err := os.Stat(logPath)
	if err != nil {
		return nil
	}

	if info.Size() >= maxLogSizeBytes {
		return rotateLogFile(logPath)
	}
	return nil
}

func createLogFile() (*os.File, error) {
	logDir, err := logDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	if err := checkLogRotation(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var fsErr *FreshStartError
	if errors.As(err, &fsErr) {
		h.handleFreshStartError(fsErr)
	} else {
		h.handleGenericError(err)
	}
}

// Warn records a non-fatal failure. It is logged at warning level and printed
// as a warning instead of an error.
func (h *ErrorHandler) Warn(err error) {
	if err == nil {
		return
	}

	var fsErr *FreshStartError
	if errors.As(err, &fsErr) {
		h.logger.LogAttrs(context.Background(), slog.LevelWarn, "Non-fatal failure", errorAttrs(fsErr)...)
		h.console.PrintWarning(h.console.FormatErrorMessage(fsErr.Context, fsErr.Cause, fsErr.Suggestion))
		return
	}

	h.logger.Warn("Non-fatal failure", "error", err.Error(), "type", "generic")
	h.console.PrintWarning(err.Error())
}

func (h *ErrorHandler) handleFreshStartError(err *FreshStartError) {
	h.logger.LogAttrs(context.Background(), slog.LevelError, "FreshStart error occurred", errorAttrs(err)...)

	message := h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion)
	h.console.PrintError(message)
}

func (h *ErrorHandler) handleGenericError(err error) {
	h.logger.Error("Unhandled error occurred",
		"error", err.Error(),
		"type", "generic",
	)

	h.console.PrintError(err.Error())
}

func errorAttrs(err *FreshStartError) []slog.Attr {
	logAttrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}

	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	return logAttrs
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrMissingRequirement:
		return "missing_requirement"
	case ErrEnvironmentSetup:
		return "environment_setup"
	case ErrDependencyInstall:
		return "dependency_install"
	case ErrCleanup:
		return "cleanup"
	case ErrBuild:
		return "build"
	case ErrStart:
		return "start"
	case ErrHealthCheckTimeout:
		return "health_check_timeout"
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrScaffoldFailed:
		return "scaffold_failed"
	case ErrSCMFailed:
		return "scm_failed"
	case ErrInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}
