package app

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/google/uuid"

	"freshstart/internal/config"
	"freshstart/internal/health"
	"freshstart/internal/parser"
	internalruntime "freshstart/internal/runtime"
	"freshstart/internal/ui"
	"freshstart/pkg/project"
	"freshstart/pkg/runtime"
)

// RunContext is the state threaded through the stages of one run. It is owned
// by a single Sequencer.Run call and is not safe for concurrent use.
type RunContext struct {
	RunID     string
	Options   Options
	Config    *config.Config
	Dir       string
	StartedAt time.Time

	// Set by the requirements stage.
	Runtime     runtime.ContainerRuntime
	Compose     *internalruntime.Compose
	ComposeFile *parser.ComposeFile

	HealthReport *health.Report

	// Set for new-project runs.
	Project    *project.Request
	Repository *git.Repository
	ProjectURL string

	Results []StageResult

	console *ui.Console
	logs    []string
	now     func() time.Time
}

// NewRunContext starts a run rooted at dir.
func NewRunContext(opts Options, cfg *config.Config, dir string, console *ui.Console) *RunContext {
	if cfg == nil {
		cfg = config.Default()
	}
	if console == nil {
		console = ui.NewConsole()
	}
	return &RunContext{
		RunID:     uuid.New().String(),
		Options:   opts,
		Config:    cfg,
		Dir:       dir,
		StartedAt: time.Now(),
		console:   console,
		now:       time.Now,
	}
}

// Logf prints a progress line and keeps it in the run's transcript.
func (r *RunContext) Logf(icon ui.Icon, format string, args ...any) {
	line := r.console.Event(icon, fmt.Sprintf(format, args...))
	r.logs = append(r.logs, line)
}

// Println writes a raw block to the console and the transcript.
func (r *RunContext) Println(text string) {
	r.console.Println(text)
	r.logs = append(r.logs, text)
}

// Logs returns every line printed during the run.
func (r *RunContext) Logs() []string {
	return r.logs
}

// Console is the console the run prints to.
func (r *RunContext) Console() *ui.Console {
	return r.console
}

// Elapsed is the wall-clock time since the run started.
func (r *RunContext) Elapsed() time.Duration {
	return r.now().Sub(r.StartedAt)
}

// Result returns the recorded result of the named stage.
func (r *RunContext) Result(name string) (StageResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return StageResult{}, false
}

// closeRuntime releases the container runtime connection when it holds one.
func (r *RunContext) closeRuntime() {
	closer, ok := r.Runtime.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		slog.Debug("Failed to close container runtime", "runId", r.RunID, "error", err)
	}
}

func (r *RunContext) record(res StageResult) {
	r.Results = append(r.Results, res)
	slog.Info("Stage finished",
		"runId", r.RunID,
		"stage", res.Name,
		"status", string(res.Status),
		"duration", res.Duration)
}
