// pkg/readiness/readiness.go - waiting for a freshly installed SQL Server to accept logins.

package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/outcome"
	"github.com/windowsadmins/setup-sqlserver/pkg/retry"
)

const (
	// DefaultAttempts is the total number of probes, the first included.
	DefaultAttempts = 6
	// DefaultInitialDelay is the wait before the first retry; it doubles each time.
	DefaultInitialDelay = time.Second
	// DefaultProbeTimeout bounds a single sqlcmd run.
	DefaultProbeTimeout = 30 * time.Second
)

// Result reports the outcome of WaitUntilReady.
type Result struct {
	ExitCode int // exit code of the last probe
	Attempts int // probes run
	Advisory outcome.Advisory
}

// Ready reports whether the last probe succeeded.
func (r Result) Ready() bool { return r.ExitCode == 0 }

// Poller probes the local default instance with sqlcmd.
type Poller struct {
	runner       command.Runner
	attempts     int
	initialDelay time.Duration
	probeTimeout time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option configures a Poller.
type Option func(*Poller)

// WithSleep replaces the wait between probes.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) { p.sleep = sleep }
}

// WithAttempts sets the total number of probes.
func WithAttempts(n int) Option {
	return func(p *Poller) { p.attempts = n }
}

// New returns a Poller running probes through runner.
func New(runner command.Runner, opts ...Option) *Poller {
	p := &Poller{
		runner:       runner,
		attempts:     DefaultAttempts,
		initialDelay: DefaultInitialDelay,
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type notReadyError struct {
	exitCode int
}

func (e *notReadyError) Error() string {
	return fmt.Sprintf("sqlcmd exited with code %d", e.exitCode)
}

// WaitUntilReady probes until sqlcmd succeeds or the attempts run out,
// waiting 1s, 2s, 4s... between probes. Exhaustion is reported in the
// Result's Advisory, never as an error.
func (p *Poller) WaitUntilReady(ctx context.Context, password string) Result {
	var res Result
	cfg := retry.RetryConfig{
		MaxRetries:      p.attempts,
		InitialInterval: p.initialDelay,
		Multiplier:      2,
		Sleep:           p.sleep,
		OnRetry: func(_ int, _ error, delay time.Duration) {
			logging.Debug(fmt.Sprintf("Database not ready, waiting %s", delay))
		},
	}

	err := retry.Retry(ctx, cfg, func(ctx context.Context) error {
		if res.Attempts > 0 {
			logging.Debug(fmt.Sprintf("Checking database, attempt %d", res.Attempts))
		}
		res.Attempts++
		res.ExitCode = p.probe(ctx, password)
		if res.ExitCode != 0 {
			return &notReadyError{exitCode: res.ExitCode}
		}
		return nil
	})

	retries := res.Attempts - 1
	switch {
	case err == nil && retries > 0:
		logging.Info(fmt.Sprintf("Database ready after %d attempts", retries))
	case err == nil:
		logging.Info("Database ready")
	default:
		res.Advisory = outcome.Degraded(fmt.Sprintf("Database not ready after %d attempts, moving on", retries), err)
	}
	return res
}

// probe runs one sqlcmd login and returns its exit code. A probe that cannot
// be started counts as not ready.
func (p *Poller) probe(ctx context.Context, password string) int {
	if p.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.probeTimeout)
		defer cancel()
	}
	res, err := p.runner.Run(ctx, "sqlcmd", ProbeArgs(password), command.Options{IgnoreReturnCode: true})
	if err != nil {
		logging.Debug("Unable to run sqlcmd", "error", err)
		return -1
	}
	return res.ExitCode
}

// ProbeArgs returns the sqlcmd arguments for a login as sa.
func ProbeArgs(password string) []string {
	return []string{"-S", "(local)", "-U", "sa", "-P", password, "-Q", "SELECT @@VERSION"}
}
