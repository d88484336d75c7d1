package app

import (
	"context"
	"errors"
	"time"
)

// Stage represents a single step of a run. Stages execute in the order they
// are given to the Sequencer.
type Stage interface {
	Name() string
	// Fatal reports whether a failure of this stage halts the run.
	Fatal() bool
	Execute(ctx context.Context, run *RunContext) error
}

// Skipper is implemented by stages that can be turned off for a run. A skipped
// stage is recorded but Execute is never called.
type Skipper interface {
	Skip(run *RunContext) (bool, string)
}

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StatusSucceeded StageStatus = "succeeded"
	StatusWarned    StageStatus = "warned"
	StatusSkipped   StageStatus = "skipped"
	StatusFailed    StageStatus = "failed"
)

// StageResult records how a stage went.
type StageResult struct {
	Name     string
	Status   StageStatus
	Duration time.Duration
	Err      error
}

// Options are the command-line switches of a bootstrap run.
type Options struct {
	SkipCleanup bool
	NoCache     bool
	Help        bool
}

// haltError marks a failure that stops the run even though its stage is not
// fatal.
type haltError struct {
	error
}

func (e haltError) Unwrap() error {
	return e.error
}

func halt(err error) error {
	return haltError{err}
}

func isHalt(err error) bool {
	var h haltError
	return errors.As(err, &h)
}
