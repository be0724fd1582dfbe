package expand

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"matrixci/engine/pkg/types"
)

// genAxes builds a random matrix with 0..3 axes of 1..4 values each.
func genAxes() gopter.Gen {
	return gen.SliceOfN(4, gen.IntRange(1, 4)).Map(func(sizes []int) []types.Axis {
		axes := make([]types.Axis, 0, len(sizes))
		for i, size := range sizes[:len(sizes)-1] {
			values := make([]string, size)
			for v := range values {
				values[v] = fmt.Sprintf("v%d", v)
			}
			axes = append(axes, types.Axis{
				Name:   fmt.Sprintf("axis%d", i),
				Values: values,
			})
		}
		// Use the last size to vary the axis count.
		return axes[:sizes[len(sizes)-1]-1]
	})
}

func specWithAxes(axes []types.Axis) *types.WorkflowSpec {
	return &types.WorkflowSpec{
		Name: "ci",
		Jobs: []types.Job{
			{
				Name:   "job",
				Matrix: axes,
				Steps:  []types.Step{{Name: "step", Run: "true"}},
			},
		},
	}
}

func TestExpandCartesianCountProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("instance count equals product of axis sizes", prop.ForAll(
		func(axes []types.Axis) bool {
			spec := specWithAxes(axes)
			instances := ExpandJob(spec, &spec.Jobs[0])

			expected := 1
			for _, axis := range axes {
				expected *= len(axis.Values)
			}
			return len(instances) == expected
		},
		genAxes(),
	))

	properties.Property("expansion is idempotent", prop.ForAll(
		func(axes []types.Axis) bool {
			spec := specWithAxes(axes)
			first := ExpandJob(spec, &spec.Jobs[0])
			second := ExpandJob(spec, &spec.Jobs[0])

			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if !reflect.DeepEqual(first[i], second[i]) {
					return false
				}
			}
			return true
		},
		genAxes(),
	))

	properties.Property("instance names are unique", prop.ForAll(
		func(axes []types.Axis) bool {
			spec := specWithAxes(axes)
			instances := ExpandJob(spec, &spec.Jobs[0])

			seen := make(map[string]bool, len(instances))
			for _, inst := range instances {
				if seen[inst.Name] {
					return false
				}
				seen[inst.Name] = true
			}
			return true
		},
		genAxes(),
	))

	properties.TestingRun(t)
}
