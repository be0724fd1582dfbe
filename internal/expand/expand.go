// Package expand implements matrix expansion: turning job templates with
// variant axes into concrete job instances.
//
// Expansion is a pure function of the workflow specification. The same
// specification always yields the same instances in the same order, so
// instance names stay addressable across runs.
package expand

import (
	"strings"

	"matrixci/engine/pkg/types"
)

// Expand expands every job in the specification, in declared job order.
func Expand(spec *types.WorkflowSpec) []*types.JobInstance {
	var instances []*types.JobInstance
	for i := range spec.Jobs {
		instances = append(instances, ExpandJob(spec, &spec.Jobs[i])...)
	}
	return instances
}

// ExpandJob expands one job template into the Cartesian product of its
// axis values. Ordering is row-major over the declared axis order: the
// first axis varies slowest, the last fastest. A job with no matrix
// expands to exactly one instance named after the job.
func ExpandJob(spec *types.WorkflowSpec, job *types.Job) []*types.JobInstance {
	combos := cartesian(job.Matrix)

	instances := make([]*types.JobInstance, 0, len(combos))
	for _, combo := range combos {
		variant := make(map[string]string, len(job.Matrix))
		for i, axis := range job.Matrix {
			variant[axis.Name] = combo[i]
		}

		instances = append(instances, &types.JobInstance{
			Name:    instanceName(job.Name, combo),
			JobName: job.Name,
			RunsOn:  job.RunsOn,
			Variant: variant,
			Env:     types.MergeEnv(spec.Env, job.Env, variant),
			Steps:   copySteps(job.Steps),
			Timeout: job.Timeout,
		})
	}
	return instances
}

// cartesian returns every combination of axis values, one value per axis,
// in row-major order. With no axes it returns a single empty combination.
func cartesian(axes []types.Axis) [][]string {
	combos := [][]string{{}}
	for _, axis := range axes {
		next := make([][]string, 0, len(combos)*len(axis.Values))
		for _, combo := range combos {
			for _, value := range axis.Values {
				extended := make([]string, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, value))
			}
		}
		combos = next
	}
	return combos
}

func instanceName(job string, combo []string) string {
	if len(combo) == 0 {
		return job
	}
	return job + "-" + strings.Join(combo, "-")
}

func copySteps(steps []types.Step) []types.Step {
	copied := make([]types.Step, len(steps))
	copy(copied, steps)
	return copied
}
