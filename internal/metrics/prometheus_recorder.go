package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "freshstart"

// PrometheusRecorder implements Recorder on a per-run registry.
type PrometheusRecorder struct {
	registry         *prom.Registry
	stageDuration    *prom.GaugeVec
	stageResults     *prom.CounterVec
	healthAttempts   prom.Gauge
	runDuration      prom.Gauge
	runSuccess       prom.Gauge
	lastRunTimestamp prom.Gauge
}

// NewPrometheusRecorder constructs and registers the run metrics. A nil
// registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each bootstrap stage in the last run",
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage results by outcome",
		}, []string{"stage", "result"}),
		healthAttempts: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "health_check_attempts",
			Help:      "HTTP requests issued by the health check",
		}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run",
		}),
		runSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the last run finished without a fatal failure",
		}),
		lastRunTimestamp: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.healthAttempts, pr.runDuration, pr.runSuccess, pr.lastRunTimestamp)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) SetHealthCheckAttempts(n int) {
	p.healthAttempts.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Set(d.Seconds())
}

func (p *PrometheusRecorder) SetRunOutcome(success bool) {
	if success {
		p.runSuccess.Set(1)
	} else {
		p.runSuccess.Set(0)
	}
	p.lastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile writes every registered metric to path atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
