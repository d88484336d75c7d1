// Package health polls an HTTP endpoint until it answers 200 or a deadline passes.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrTimeout is returned when the endpoint has not answered 200 within Policy.Timeout.
var ErrTimeout = errors.New("health check timeout")

// State is a step of the health check.
type State int

const (
	WaitingToStart State = iota
	Polling
	Succeeded
	TimedOut
)

func (s State) String() string {
	switch s {
	case WaitingToStart:
		return "waiting_to_start"
	case Polling:
		return "polling"
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy bounds a health check. The check is limited by Timeout only; there is
// no attempt limit.
type Policy struct {
	URL            string
	Timeout        time.Duration
	Interval       time.Duration
	RequestTimeout time.Duration
	InitialDelay   time.Duration
}

// DefaultPolicy targets the starter's local web server.
func DefaultPolicy() Policy {
	return Policy{
		URL:            "http://localhost:8080",
		Timeout:        30 * time.Second,
		Interval:       2 * time.Second,
		RequestTimeout: 5 * time.Second,
		InitialDelay:   3 * time.Second,
	}
}

// Attempt is the outcome of one GET.
type Attempt struct {
	Number  int
	Status  int
	Err     error
	Elapsed time.Duration
}

// Report summarises a finished check.
type Report struct {
	State      State
	Attempts   int
	Retries    int
	Elapsed    time.Duration
	LastStatus int
	LastErr    error
}

// Checker runs one health check against a Policy.
type Checker struct {
	policy    Policy
	client    *http.Client
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	onAttempt func(Attempt)
	state     State
}

// Option configures a Checker.
type Option func(*Checker)

// WithHTTPClient replaces the default client. Per-request timeouts still come
// from the Policy. The default client does not follow redirects.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) { c.client = client }
}

// WithClock replaces the wall clock and the wait between polls.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Checker) {
		c.now = now
		c.sleep = sleep
	}
}

// WithAttemptHook registers fn to be called after every failed attempt.
func WithAttemptHook(fn func(Attempt)) Option {
	return func(c *Checker) { c.onAttempt = fn }
}

func NewChecker(policy Policy, opts ...Option) *Checker {
	c := &Checker{
		policy: policy,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now:    time.Now,
		sleep:  sleepContext,
		state:  WaitingToStart,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the checker's current state.
func (c *Checker) State() State {
	return c.state
}

// Wait runs the check to completion. The clock starts before the initial delay.
// It returns ErrTimeout once the elapsed time exceeds the policy timeout, or the
// context's error if ctx is cancelled first.
func (c *Checker) Wait(ctx context.Context) (Report, error) {
	start := c.now()
	report := Report{State: WaitingToStart}
	c.state = WaitingToStart

	if err := c.sleep(ctx, c.policy.InitialDelay); err != nil {
		report.Elapsed = c.now().Sub(start)
		return report, err
	}
	c.state = Polling
	report.State = Polling

	for {
		elapsed := c.now().Sub(start)
		if elapsed > c.policy.Timeout {
			c.state = TimedOut
			report.State = TimedOut
			report.Elapsed = elapsed
			report.Retries = report.Attempts
			slog.Warn("Health check timed out", "url", c.policy.URL, "attempts", report.Attempts, "elapsed", elapsed)
			return report, fmt.Errorf("%w after %s", ErrTimeout, c.policy.Timeout)
		}

		report.Attempts++
		status, err := c.probe(ctx, c.policy.Timeout-elapsed)
		report.LastStatus = status
		report.LastErr = err

		if err == nil && status == http.StatusOK {
			c.state = Succeeded
			report.State = Succeeded
			report.Retries = report.Attempts - 1
			report.Elapsed = c.now().Sub(start)
			slog.Info("Health check succeeded", "url", c.policy.URL, "attempts", report.Attempts, "elapsed", report.Elapsed)
			return report, nil
		}
		if ctx.Err() != nil {
			report.Elapsed = c.now().Sub(start)
			return report, ctx.Err()
		}

		slog.Debug("Health check attempt failed", "url", c.policy.URL, "attempt", report.Attempts, "status", status, "error", err)
		if c.onAttempt != nil {
			c.onAttempt(Attempt{Number: report.Attempts, Status: status, Err: err, Elapsed: c.now().Sub(start)})
		}

		if err := c.sleep(ctx, c.policy.Interval); err != nil {
			report.Elapsed = c.now().Sub(start)
			return report, err
		}
	}
}

// probe issues one GET bounded by the request timeout, or by remaining when
// the overall deadline is closer.
func (c *Checker) probe(ctx context.Context, remaining time.Duration) (int, error) {
	timeout := min(c.policy.RequestTimeout, remaining)
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.policy.URL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
