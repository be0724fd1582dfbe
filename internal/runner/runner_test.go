package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixci/engine/internal/executor"
	"matrixci/engine/pkg/types"
)

// spyExecutor records every invocation and fails steps whose command is
// listed in failures, without running any real process.
type spyExecutor struct {
	calls    []string
	failures map[string]executor.Kind
	delay    time.Duration
}

func newSpyExecutor() *spyExecutor {
	return &spyExecutor{failures: make(map[string]executor.Kind)}
}

func (s *spyExecutor) Execute(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error) {
	s.calls = append(s.calls, step.Name)

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			result := &types.StepResult{Name: step.Name, Command: step.Run, ExitCode: -1}
			return result, executor.NewExecutionError(executor.KindCancelled, step.Name, ctx.Err())
		}
	}

	result := &types.StepResult{Name: step.Name, Command: step.Run}
	if kind, ok := s.failures[step.Name]; ok {
		result.ExitCode = 1
		return result, executor.NewExecutionError(kind, step.Name, nil)
	}
	return result, nil
}

func instanceWithSteps(names ...string) *types.JobInstance {
	steps := make([]types.Step, len(names))
	for i, name := range names {
		steps[i] = types.Step{Name: name, Run: "cmd-" + name}
	}
	return &types.JobInstance{
		Name:    "job-linux-stable",
		JobName: "job",
		Steps:   steps,
	}
}

func TestJobRunner_AllStepsPass(t *testing.T) {
	spy := newSpyExecutor()
	runner := New(spy)

	result := runner.Run(context.Background(), instanceWithSteps("a", "b", "c"))

	assert.Equal(t, types.InstancePassed, result.State)
	assert.Equal(t, -1, result.FailedStep)
	assert.Equal(t, []string{"a", "b", "c"}, spy.calls)
	assert.Len(t, result.Steps, 3)
}

func TestJobRunner_FailFast(t *testing.T) {
	spy := newSpyExecutor()
	spy.failures["b"] = executor.KindAbnormalTermination
	runner := New(spy)

	result := runner.Run(context.Background(), instanceWithSteps("a", "b", "c"))

	assert.Equal(t, types.InstanceFailed, result.State)
	assert.Equal(t, 1, result.FailedStep)

	// Step c never executed and is absent from the result.
	assert.Equal(t, []string{"a", "b"}, spy.calls)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "b", result.Steps[1].Name)
}

func TestJobRunner_FirstStepFails(t *testing.T) {
	spy := newSpyExecutor()
	spy.failures["a"] = executor.KindCommandNotFound
	runner := New(spy)

	result := runner.Run(context.Background(), instanceWithSteps("a", "b"))

	assert.Equal(t, types.InstanceFailed, result.State)
	assert.Equal(t, 0, result.FailedStep)
	assert.Equal(t, []string{"a"}, spy.calls)
}

func TestJobRunner_CancelledMidJob(t *testing.T) {
	spy := newSpyExecutor()
	spy.delay = 200 * time.Millisecond
	runner := New(spy)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result := runner.Run(ctx, instanceWithSteps("a", "b", "c"))

	assert.Equal(t, types.InstanceCancelled, result.State)
	assert.Equal(t, -1, result.FailedStep)

	// Partial results are kept: the interrupted step is recorded, later
	// steps never started.
	assert.NotEmpty(t, result.Steps)
	assert.Less(t, len(result.Steps), 3)
}

func TestJobRunner_CancelledBeforeStart(t *testing.T) {
	spy := newSpyExecutor()
	runner := New(spy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := runner.Run(ctx, instanceWithSteps("a"))

	assert.Equal(t, types.InstanceCancelled, result.State)
	assert.Empty(t, spy.calls)
	assert.Empty(t, result.Steps)
}

func TestJobRunner_JobTimeout(t *testing.T) {
	spy := newSpyExecutor()
	spy.delay = 100 * time.Millisecond
	runner := New(spy)

	inst := instanceWithSteps("a", "b")
	inst.Timeout = 50 * time.Millisecond

	result := runner.Run(context.Background(), inst)

	assert.Equal(t, types.InstanceCancelled, result.State)
	assert.Equal(t, []string{"a"}, spy.calls)
}

func TestJobRunner_StepEnvOverlay(t *testing.T) {
	var seen map[string]string
	capture := executorFunc(func(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error) {
		seen = env
		return &types.StepResult{Name: step.Name}, nil
	})
	runner := New(capture)

	inst := &types.JobInstance{
		Name:    "job",
		JobName: "job",
		Env:     map[string]string{"A": "1", "B": "1"},
		Steps: []types.Step{
			{Name: "s", Run: "true", Env: map[string]string{"B": "2"}},
		},
	}

	runner.Run(context.Background(), inst)

	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, seen)
}

type executorFunc func(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error)

func (f executorFunc) Execute(ctx context.Context, step types.Step, env map[string]string) (*types.StepResult, error) {
	return f(ctx, step, env)
}

func TestJobRunner_ManySteps(t *testing.T) {
	for failAt := 0; failAt < 5; failAt++ {
		t.Run(fmt.Sprintf("fail_at_%d", failAt), func(t *testing.T) {
			names := []string{"s0", "s1", "s2", "s3", "s4"}
			spy := newSpyExecutor()
			spy.failures[names[failAt]] = executor.KindAbnormalTermination
			runner := New(spy)

			result := runner.Run(context.Background(), instanceWithSteps(names...))

			assert.Equal(t, types.InstanceFailed, result.State)
			assert.Equal(t, failAt, result.FailedStep)
			assert.Len(t, spy.calls, failAt+1)
		})
	}
}
