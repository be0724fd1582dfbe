// Package executor runs single workflow steps as subprocesses, capturing
// exit status, combined output and duration.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"matrixci/engine/pkg/types"
)

// Shell exit code for "command not found".
const exitCommandNotFound = 127

// Executor runs one step to completion against a resolved environment.
// Implementations block until the step finishes, times out, or the context
// is cancelled. A nil error means the step exited zero.
type Executor interface {
	Execute(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error)
}

// ShellExecutor executes step commands through a shell subprocess. It does
// not sandbox anything: commands see the host filesystem and network.
type ShellExecutor struct {
	// Shell is the command prefix the step command is appended to.
	// Defaults to {"sh", "-c"}.
	Shell []string

	// DefaultTimeout applies to steps without their own timeout.
	// Zero means unbounded.
	DefaultTimeout time.Duration

	// GracePeriod is how long a cancelled subprocess gets between SIGTERM
	// and SIGKILL.
	GracePeriod time.Duration
}

// NewShellExecutor creates a ShellExecutor with the given cancellation
// grace period.
func NewShellExecutor(grace time.Duration) *ShellExecutor {
	return &ShellExecutor{
		Shell:       []string{"sh", "-c"},
		GracePeriod: grace,
	}
}

// Execute runs the step command. The resolved environment is passed to the
// subprocess verbatim; nothing from the engine's own environment leaks in.
func (e *ShellExecutor) Execute(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error) {
	shell := e.Shell
	if len(shell) == 0 {
		shell = []string{"sh", "-c"}
	}

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = e.DefaultTimeout
	}

	stepCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := append(append([]string{}, shell[1:]...), step.Run)
	cmd := exec.CommandContext(stepCtx, shell[0], args...)
	cmd.Env = types.EnvironList(env)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	// Cooperative cancellation: SIGTERM first, SIGKILL after the grace
	// period via WaitDelay.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	if e.GracePeriod > 0 {
		cmd.WaitDelay = e.GracePeriod
	}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &types.StepResult{
		Name:     step.Name,
		Command:  step.Run,
		ExitCode: exitCode(cmd, runErr),
		Output:   out.String(),
		Duration: duration,
	}

	execErr := e.classify(step, stepCtx, ctx, result, runErr)
	if execErr != nil {
		result.Error = execErr.Error()
		return result, execErr
	}
	return result, nil
}

// classify maps a subprocess outcome onto the engine's error taxonomy.
func (e *ShellExecutor) classify(step types.Step, stepCtx, parent context.Context, result *types.StepResult, runErr error) *ExecutionError {
	if runErr == nil && result.ExitCode == 0 {
		return nil
	}

	// Cancellation of the enclosing run wins over everything else.
	if errors.Is(parent.Err(), context.Canceled) {
		return NewExecutionError(KindCancelled, step.Name, parent.Err())
	}

	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return NewExecutionError(KindTimeout, step.Name, stepCtx.Err())
	}

	if errors.Is(runErr, exec.ErrNotFound) {
		return NewExecutionError(KindCommandNotFound, step.Name, runErr)
	}
	if result.ExitCode == exitCommandNotFound {
		return NewExecutionError(KindCommandNotFound, step.Name, nil)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return NewExecutionError(KindAbnormalTermination, step.Name, nil)
	}
	if runErr != nil {
		return NewExecutionError(KindAbnormalTermination, step.Name, runErr)
	}
	return NewExecutionError(KindAbnormalTermination, step.Name, nil)
}

// exitCode extracts the process exit code, -1 when the process never ran
// or was terminated by a signal.
func exitCode(cmd *exec.Cmd, runErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if runErr == nil {
		return 0
	}
	return -1
}
