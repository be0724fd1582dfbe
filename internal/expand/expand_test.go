package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixci/engine/pkg/types"
)

func matrixSpec() *types.WorkflowSpec {
	return &types.WorkflowSpec{
		Name: "ci",
		On:   types.Trigger{Events: []types.EventKind{types.EventPush}},
		Env:  map[string]string{"CI": "true"},
		Jobs: []types.Job{
			{
				Name: "test",
				Env:  map[string]string{"RUST_BACKTRACE": "1"},
				Matrix: []types.Axis{
					{Name: "os", Values: []string{"linux", "macos", "windows"}},
					{Name: "toolchain", Values: []string{"stable", "beta"}},
				},
				Steps: []types.Step{
					{Name: "build", Run: "cargo build"},
					{Name: "test", Run: "cargo test"},
				},
			},
		},
	}
}

func TestExpandJob_CartesianProduct(t *testing.T) {
	spec := matrixSpec()
	instances := ExpandJob(spec, &spec.Jobs[0])

	require.Len(t, instances, 6)

	// Row-major: first axis (os) varies slowest.
	names := make([]string, len(instances))
	for i, inst := range instances {
		names[i] = inst.Name
	}
	assert.Equal(t, []string{
		"test-linux-stable",
		"test-linux-beta",
		"test-macos-stable",
		"test-macos-beta",
		"test-windows-stable",
		"test-windows-beta",
	}, names)

	first := instances[0]
	assert.Equal(t, "test", first.JobName)
	assert.Equal(t, map[string]string{"os": "linux", "toolchain": "stable"}, first.Variant)
	assert.Len(t, first.Steps, 2)
}

func TestExpandJob_NoMatrix(t *testing.T) {
	spec := &types.WorkflowSpec{
		Name: "ci",
		Jobs: []types.Job{
			{
				Name:  "lint",
				Steps: []types.Step{{Name: "fmt", Run: "cargo fmt -- --check"}},
			},
		},
	}

	instances := ExpandJob(spec, &spec.Jobs[0])

	require.Len(t, instances, 1)
	assert.Equal(t, "lint", instances[0].Name)
	assert.Empty(t, instances[0].Variant)
}

func TestExpandJob_EnvPrecedence(t *testing.T) {
	// global={A:1}, job={A:2,B:1}, variant={B:2}, step={C:1}
	// resolved step env must equal {A:2, B:2, C:1}.
	spec := &types.WorkflowSpec{
		Name: "ci",
		Env:  map[string]string{"A": "1"},
		Jobs: []types.Job{
			{
				Name: "job",
				Env:  map[string]string{"A": "2", "B": "1"},
				Matrix: []types.Axis{
					{Name: "B", Values: []string{"2"}},
				},
				Steps: []types.Step{
					{Name: "step", Run: "true", Env: map[string]string{"C": "1"}},
				},
			},
		},
	}

	instances := ExpandJob(spec, &spec.Jobs[0])
	require.Len(t, instances, 1)

	env := instances[0].StepEnv(0)
	assert.Equal(t, map[string]string{"A": "2", "B": "2", "C": "1"}, env)
}

func TestExpand_AllJobsDeclaredOrder(t *testing.T) {
	spec := matrixSpec()
	spec.Jobs = append([]types.Job{
		{Name: "lint", Steps: []types.Step{{Name: "fmt", Run: "cargo fmt"}}},
	}, spec.Jobs...)

	instances := Expand(spec)

	require.Len(t, instances, 7)
	assert.Equal(t, "lint", instances[0].Name)
	assert.Equal(t, "test-linux-stable", instances[1].Name)
}

func TestExpand_Idempotent(t *testing.T) {
	spec := matrixSpec()

	first := Expand(spec)
	second := Expand(spec)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestExpandJob_InstancesIndependent(t *testing.T) {
	spec := matrixSpec()
	instances := ExpandJob(spec, &spec.Jobs[0])

	// Mutating one instance's env or steps must not leak into siblings.
	instances[0].Env["MUTATED"] = "yes"
	instances[0].Steps[0].Run = "changed"

	assert.NotContains(t, instances[1].Env, "MUTATED")
	assert.Equal(t, "cargo build", instances[1].Steps[0].Run)
}
