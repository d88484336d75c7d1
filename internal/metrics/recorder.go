// Package metrics records per-run bootstrap metrics and exports them in the
// node_exporter textfile format.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSucceeded ResultLabel = "succeeded"
	ResultWarned    ResultLabel = "warned"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// Recorder defines the observability hooks a run reports to.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	SetHealthCheckAttempts(n int)
	ObserveRunDuration(d time.Duration)
	SetRunOutcome(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) SetHealthCheckAttempts(int)                 {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) SetRunOutcome(bool)                         {}
