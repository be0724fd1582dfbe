package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixci/engine/pkg/types"
)

func TestReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	rep := New(&Config{ShowOutput: true, Writer: &buf})

	report := &types.PipelineReport{
		RunID:    "run-1",
		Workflow: "ci",
		State:    types.PipelineFailed,
		Event:    types.EventPush,
		Branch:   "main",
		Duration: 1500 * time.Millisecond,
		Jobs: []types.JobResult{
			{
				Instance: "lint", Job: "lint",
				State: types.InstancePassed, FailedStep: -1,
				Duration: 200 * time.Millisecond,
			},
			{
				Instance: "test-linux-stable", Job: "test",
				State: types.InstanceFailed, FailedStep: 0,
				Steps: []types.StepResult{
					{Name: "build", Command: "cargo build", ExitCode: 101, Output: "error[E0308]\n"},
				},
				Duration: 900 * time.Millisecond,
			},
		},
	}

	require.NoError(t, rep.Report(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "workflow ci (push on main): FAILED")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "test-linux-stable")
	assert.Contains(t, out, `step "build" exited 101`)
	assert.Contains(t, out, "error[E0308]")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestReporter_HideOutput(t *testing.T) {
	var buf bytes.Buffer
	rep := New(&Config{ShowOutput: false, Writer: &buf})

	report := &types.PipelineReport{
		Workflow: "ci",
		State:    types.PipelineFailed,
		Jobs: []types.JobResult{
			{
				Instance: "test", Job: "test",
				State: types.InstanceFailed, FailedStep: 0,
				Steps: []types.StepResult{
					{Name: "build", ExitCode: 1, Output: "secret details\n"},
				},
			},
		},
	}

	require.NoError(t, rep.Report(context.Background(), report))
	assert.NotContains(t, buf.String(), "secret details")
}
