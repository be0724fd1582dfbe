package parser

import (
	"fmt"

	"matrixci/engine/pkg/types"
)

// Validate checks a workflow specification for structural problems that
// would make expansion or execution ambiguous.
func Validate(spec *types.WorkflowSpec) error {
	if spec.Name == "" {
		return NewValidationError("name", "workflow name is required")
	}

	if len(spec.On.Events) == 0 {
		return NewValidationError("on.events", "at least one trigger event is required")
	}
	for _, event := range spec.On.Events {
		if !event.Known() {
			return NewValidationError("on.events", fmt.Sprintf("unknown event kind: %s", event))
		}
	}

	if len(spec.Jobs) == 0 {
		return NewValidationError("jobs", "at least one job is required")
	}

	seenJobs := make(map[string]bool, len(spec.Jobs))
	for i := range spec.Jobs {
		job := &spec.Jobs[i]
		if err := validateJob(job); err != nil {
			return err
		}
		if seenJobs[job.Name] {
			return NewValidationError("jobs", fmt.Sprintf("duplicate job name: %s", job.Name))
		}
		seenJobs[job.Name] = true
	}

	return nil
}

func validateJob(job *types.Job) error {
	if job.Name == "" {
		return NewValidationError("jobs.name", "job name is required")
	}

	if len(job.Steps) == 0 {
		return NewValidationError(
			fmt.Sprintf("jobs.%s.steps", job.Name), "at least one step is required")
	}
	for i, step := range job.Steps {
		if step.Run == "" {
			return NewValidationError(
				fmt.Sprintf("jobs.%s.steps[%d].run", job.Name, i), "step command is required")
		}
	}

	seenAxes := make(map[string]bool, len(job.Matrix))
	for _, axis := range job.Matrix {
		if axis.Name == "" {
			return NewValidationError(
				fmt.Sprintf("jobs.%s.matrix", job.Name), "axis name is required")
		}
		if len(axis.Values) == 0 {
			return NewValidationError(
				fmt.Sprintf("jobs.%s.matrix.%s", job.Name, axis.Name),
				"axis needs at least one value")
		}
		if seenAxes[axis.Name] {
			return NewValidationError(
				fmt.Sprintf("jobs.%s.matrix", job.Name),
				fmt.Sprintf("duplicate axis name: %s", axis.Name))
		}
		seenAxes[axis.Name] = true
	}

	return nil
}
