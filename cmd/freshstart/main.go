package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	apperrors "freshstart/internal/errors"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(commandDeps{})
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		reportExit(ctx, err, apperrors.HandleError, os.Stderr)
		os.Exit(1)
	}
}

// reportExit sends failures nothing has reported yet, such as config or flag
// errors, through report so they reach the error log. Everything else gets
// the short exit line.
func reportExit(ctx context.Context, err error, report func(error), w io.Writer) {
	if !alreadyReported(ctx, err) {
		report(err)
		return
	}
	fmt.Fprintln(w, exitMessage(ctx, err))
}

func alreadyReported(ctx context.Context, err error) bool {
	var reported reportedError
	return errors.Is(err, apperrors.ErrInterrupted) || ctx.Err() != nil || errors.As(err, &reported)
}

// exitMessage is the short line for a failure that has already been reported.
func exitMessage(ctx context.Context, err error) string {
	if errors.Is(err, apperrors.ErrInterrupted) || ctx.Err() != nil {
		return "\n🛑 Setup interrupted by user"
	}
	return "Setup failed."
}

// reportedError wraps a failure the run has already printed.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}
