// Package runner executes the steps of one job instance sequentially with
// fail-fast semantics: the first non-zero exit aborts the remaining steps
// of that instance and only that instance.
package runner

import (
	"context"
	"errors"
	"time"

	"matrixci/engine/internal/executor"
	"matrixci/engine/pkg/logger"
	"matrixci/engine/pkg/types"
)

// JobRunner runs job instances through a step executor. It applies no
// retries; resubmitting a fresh instance is a scheduler policy.
type JobRunner struct {
	exec executor.Executor
}

// New creates a JobRunner backed by the given step executor.
func New(exec executor.Executor) *JobRunner {
	return &JobRunner{exec: exec}
}

// Run executes the instance's steps in declaration order and returns its
// aggregate result. Steps after the first failure are skipped entirely:
// they are absent from the result, not marked. A cancelled run records
// whatever partial results exist at interruption time.
func (r *JobRunner) Run(ctx context.Context, inst *types.JobInstance) *types.JobResult {
	result := &types.JobResult{
		Instance:   inst.Name,
		Job:        inst.JobName,
		State:      types.InstancePassed,
		FailedStep: -1,
	}

	jobCtx := ctx
	if inst.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, inst.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	for i := range inst.Steps {
		if err := jobCtx.Err(); err != nil {
			r.finishEarly(result, i, err)
			return result
		}

		step := inst.Steps[i]
		if logger.IsDebugEnabled() {
			logger.Debug("running step %s/%s env=%v", inst.Name, step.Name, inst.StepEnv(i))
		}

		stepResult, err := r.exec.Execute(jobCtx, step, inst.StepEnv(i))
		if stepResult != nil {
			result.Steps = append(result.Steps, *stepResult)
		}

		if err != nil {
			r.record(result, i, err)
			return result
		}
	}

	return result
}

// record maps a step execution error onto the instance result.
func (r *JobRunner) record(result *types.JobResult, index int, err error) {
	result.Error = err.Error()

	var execErr *executor.ExecutionError
	if errors.As(err, &execErr) && execErr.Kind == executor.KindCancelled {
		result.State = types.InstanceCancelled
		return
	}

	result.State = types.InstanceFailed
	result.FailedStep = index
}

// finishEarly handles a context that died between steps: no further step
// ran, so there is nothing to record beyond the terminal state.
func (r *JobRunner) finishEarly(result *types.JobResult, next int, err error) {
	result.Error = err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		result.State = types.InstanceFailed
		result.FailedStep = next
		return
	}
	result.State = types.InstanceCancelled
}
