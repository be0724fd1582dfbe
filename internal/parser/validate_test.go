package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matrixci/engine/pkg/types"
)

func validSpec() *types.WorkflowSpec {
	return &types.WorkflowSpec{
		Name: "ci",
		On:   types.Trigger{Events: []types.EventKind{types.EventPush}},
		Jobs: []types.Job{
			{
				Name:  "build",
				Steps: []types.Step{{Name: "build", Run: "make build"}},
				Matrix: []types.Axis{
					{Name: "os", Values: []string{"linux", "macos"}},
				},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validSpec()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.WorkflowSpec)
		wantMsg string
	}{
		{
			name:    "missing workflow name",
			mutate:  func(s *types.WorkflowSpec) { s.Name = "" },
			wantMsg: "workflow name is required",
		},
		{
			name:    "no trigger events",
			mutate:  func(s *types.WorkflowSpec) { s.On.Events = nil },
			wantMsg: "at least one trigger event",
		},
		{
			name: "unknown event",
			mutate: func(s *types.WorkflowSpec) {
				s.On.Events = []types.EventKind{"release"}
			},
			wantMsg: "unknown event kind",
		},
		{
			name:    "no jobs",
			mutate:  func(s *types.WorkflowSpec) { s.Jobs = nil },
			wantMsg: "at least one job",
		},
		{
			name: "duplicate job names",
			mutate: func(s *types.WorkflowSpec) {
				s.Jobs = append(s.Jobs, s.Jobs[0])
			},
			wantMsg: "duplicate job name",
		},
		{
			name:    "job without steps",
			mutate:  func(s *types.WorkflowSpec) { s.Jobs[0].Steps = nil },
			wantMsg: "at least one step",
		},
		{
			name: "step without command",
			mutate: func(s *types.WorkflowSpec) {
				s.Jobs[0].Steps[0].Run = ""
			},
			wantMsg: "step command is required",
		},
		{
			name: "axis without values",
			mutate: func(s *types.WorkflowSpec) {
				s.Jobs[0].Matrix[0].Values = nil
			},
			wantMsg: "at least one value",
		},
		{
			name: "duplicate axis names",
			mutate: func(s *types.WorkflowSpec) {
				s.Jobs[0].Matrix = append(s.Jobs[0].Matrix, s.Jobs[0].Matrix[0])
			},
			wantMsg: "duplicate axis name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(spec)

			err := Validate(spec)
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
