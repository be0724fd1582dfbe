// Package rest provides the REST API server for the matrix CI engine.
package rest

import (
	"time"

	"matrixci/engine/pkg/types"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RunSubmitRequest represents a pipeline run submission. The workflow may
// be given either as a structured spec or as raw YAML text; when both are
// present the YAML wins.
type RunSubmitRequest struct {
	Workflow *types.WorkflowSpec `json:"workflow,omitempty"`
	YAML     string              `json:"yaml,omitempty"`
	Event    string              `json:"event"`
	Branch   string              `json:"branch"`
}

// RunSubmitResponse represents a run submission response.
type RunSubmitResponse struct {
	RunID    string `json:"run_id"`
	Workflow string `json:"workflow"`
	State    string `json:"state"`
}

// RunResponse represents the status of a pipeline run. Report is set once
// the run reaches a terminal state.
type RunResponse struct {
	RunID     string                `json:"run_id"`
	Workflow  string                `json:"workflow"`
	State     string                `json:"state"`
	Event     string                `json:"event"`
	Branch    string                `json:"branch"`
	StartedAt string                `json:"started_at"`
	Report    *types.PipelineReport `json:"report,omitempty"`
}

// RunListResponse represents a list of pipeline runs.
type RunListResponse struct {
	Runs  []*RunResponse `json:"runs"`
	Total int            `json:"total"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
