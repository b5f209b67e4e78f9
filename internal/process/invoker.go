package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hbomb79/Reel/internal/metrics"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/sync/semaphore"
)

var log = logger.Get("Invoker")

// waitDelay bounds how long Wait may block on I/O after the process
// has been killed.
const waitDelay = 5 * time.Second

type (
	// Outcome is the result of a single invocation. It is produced once
	// and never mutated afterwards.
	Outcome struct {
		Stdout   []byte
		Stderr   []byte
		ExitCode int
		Duration time.Duration
	}

	// Invoker runs the external extraction tool. Each call spawns a fresh
	// process which is owned exclusively by that call; the only state
	// shared between calls is the concurrency ceiling.
	Invoker struct {
		config  Config
		binary  string
		slots   *semaphore.Weighted
		metrics *metrics.Collector
	}
)

// New creates an Invoker for the binary described by the config. The
// collector may be nil.
func New(config Config, collector *metrics.Collector) (*Invoker, error) {
	if strings.TrimSpace(config.BinaryPath) == "" {
		return nil, errors.New("tool binary path must not be empty")
	}
	if config.MaxConcurrent < 1 {
		return nil, fmt.Errorf("tool concurrency must be at least 1 (got %d)", config.MaxConcurrent)
	}
	if config.Timeout <= 0 {
		return nil, fmt.Errorf("tool timeout must be positive (got %s)", config.Timeout)
	}

	binary, err := homedir.Expand(config.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand tool binary path %q: %w", config.BinaryPath, err)
	}

	return &Invoker{
		config:  config,
		binary:  binary,
		slots:   semaphore.NewWeighted(int64(config.MaxConcurrent)),
		metrics: collector,
	}, nil
}

// Invoke runs the tool with the arguments provided (passed directly as the
// argument vector, never through a shell) and waits for it to exit. Stdout
// and stderr are drained concurrently while the process runs, and the call
// returns at most waitDelay after the timeout even if a detached descendant
// still holds the output streams.
//
// A non-positive timeout uses the configured default. When the timeout
// elapses, or the context is cancelled, the process (and any process it
// spawned) is killed.
//
// Errors returned are one of *LaunchError, *ExecutionError, *TimeoutError,
// ErrSaturated, or a wrapped context error if the caller gave up.
func (inv *Invoker) Invoke(ctx context.Context, args []string, timeout time.Duration) (*Outcome, error) {
	if err := inv.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer inv.slots.Release(1)

	if timeout <= 0 {
		timeout = inv.config.Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, inv.binary, args...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	// Non-file writers make exec drain both streams itself, which lets
	// WaitDelay bound the drain when a detached descendant keeps them open.
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		inv.metrics.InvocationRejected(metrics.OutcomeLaunch)
		log.Errorf("Failed to launch %s: %v\n", inv.binary, err)
		return nil, &LaunchError{Binary: inv.binary, Err: err}
	}

	inv.metrics.InvocationStarted()
	log.Debugf("Spawned %s (pid=%d) with %d argument(s)\n", inv.binary, cmd.Process.Pid, len(args))

	waitErr := cmd.Wait()
	elapsed := time.Since(started)

	outcome := &Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: elapsed,
	}

	switch {
	case ctx.Err() != nil:
		inv.metrics.InvocationFinished(metrics.OutcomeCancelled, elapsed)
		log.Warnf("Invocation (pid=%d) cancelled by caller after %s\n", cmd.Process.Pid, elapsed)
		return outcome, fmt.Errorf("invocation cancelled: %w", ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		inv.metrics.InvocationFinished(metrics.OutcomeTimeout, elapsed)
		log.Warnf("Invocation (pid=%d) killed after exceeding timeout of %s\n", cmd.Process.Pid, timeout)
		return outcome, &TimeoutError{After: timeout}
	case waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay):
		inv.metrics.InvocationFinished(metrics.OutcomeExit, elapsed)
		log.Warnf("Invocation (pid=%d) exited with status %d: %s\n", cmd.Process.Pid, outcome.ExitCode, strings.TrimSpace(stderr.String()))
		return outcome, &ExecutionError{
			ExitCode:   outcome.ExitCode,
			Diagnostic: TruncateDiagnostic(outcome.Stderr, inv.config.DiagnosticLimit),
			Err:        waitErr,
		}
	}

	if waitErr != nil {
		log.Warnf("Invocation (pid=%d) exited cleanly but its output was held open by a detached process, streams closed after %s\n", cmd.Process.Pid, waitDelay)
	}

	inv.metrics.InvocationFinished(metrics.OutcomeOK, elapsed)
	log.Debugf("Invocation (pid=%d) completed in %s\n", cmd.Process.Pid, elapsed)
	return outcome, nil
}

// acquireSlot claims one of the concurrency slots, waiting at most the
// configured queue timeout for one to become free.
func (inv *Invoker) acquireSlot(ctx context.Context) error {
	if inv.slots.TryAcquire(1) {
		return nil
	}

	inv.metrics.Queued()
	defer inv.metrics.Dequeued()

	waitCtx := ctx
	if inv.config.QueueTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, inv.config.QueueTimeout)
		defer cancel()
	}

	log.Verbosef("Concurrency ceiling (%d) reached, queueing invocation\n", inv.config.MaxConcurrent)
	if err := inv.slots.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			inv.metrics.InvocationRejected(metrics.OutcomeCancelled)
			return fmt.Errorf("cancelled while waiting for a free slot: %w", ctx.Err())
		}

		inv.metrics.InvocationRejected(metrics.OutcomeSaturated)
		log.Warnf("Rejecting invocation, no slot became free within %s\n", inv.config.QueueTimeout)
		return ErrSaturated
	}

	return nil
}

// TruncateDiagnostic trims the stderr output provided and caps it to at most
// limit characters. A non-positive limit disables the cap.
func TruncateDiagnostic(stderr []byte, limit int) string {
	text := strings.TrimSpace(string(stderr))
	if limit <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit])
}
