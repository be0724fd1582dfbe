package types

import "time"

// PipelineState is the lifecycle state of one pipeline run.
type PipelineState string

const (
	PipelinePending   PipelineState = "pending"
	PipelineRunning   PipelineState = "running"
	PipelineSucceeded PipelineState = "succeeded"
	PipelineFailed    PipelineState = "failed"
	PipelineCancelled PipelineState = "cancelled"

	// PipelineSkipped means the trigger filter rejected the run: nothing
	// was expanded or dispatched. Distinct from Succeeded.
	PipelineSkipped PipelineState = "skipped"
)

// Terminal reports whether the state is a terminal pipeline state.
func (s PipelineState) Terminal() bool {
	switch s {
	case PipelineSucceeded, PipelineFailed, PipelineCancelled, PipelineSkipped:
		return true
	}
	return false
}

// InstanceState is the terminal state of one job instance.
type InstanceState string

const (
	InstancePassed    InstanceState = "passed"
	InstanceFailed    InstanceState = "failed"
	InstanceCancelled InstanceState = "cancelled"

	// InstanceSkipped means no execution environment satisfied the
	// scheduler's capability predicate for this instance.
	InstanceSkipped InstanceState = "skipped"
)

// StepResult records the outcome of a single executed step. Steps skipped
// by fail-fast semantics have no StepResult at all.
type StepResult struct {
	Name     string        `yaml:"name" json:"name"`
	Command  string        `yaml:"command" json:"command"`
	ExitCode int           `yaml:"exit_code" json:"exit_code"`
	Output   string        `yaml:"output,omitempty" json:"output,omitempty"`
	Duration time.Duration `yaml:"duration" json:"duration"`
	Error    string        `yaml:"error,omitempty" json:"error,omitempty"`
}

// JobResult is the aggregate outcome of one job instance.
type JobResult struct {
	Instance string        `yaml:"instance" json:"instance"`
	Job      string        `yaml:"job" json:"job"`
	State    InstanceState `yaml:"state" json:"state"`

	// Steps holds one result per executed step, in execution order.
	Steps []StepResult `yaml:"steps,omitempty" json:"steps,omitempty"`

	// FailedStep is the index of the first failing step, or -1 when the
	// instance passed, was skipped, or was cancelled before any failure.
	FailedStep int `yaml:"failed_step" json:"failed_step"`

	Duration time.Duration `yaml:"duration" json:"duration"`
	Error    string        `yaml:"error,omitempty" json:"error,omitempty"`
}

// DurationSummary aggregates step durations across a pipeline run,
// in milliseconds.
type DurationSummary struct {
	Count  int64   `yaml:"count" json:"count"`
	MinMs  float64 `yaml:"min_ms" json:"min_ms"`
	MaxMs  float64 `yaml:"max_ms" json:"max_ms"`
	MeanMs float64 `yaml:"mean_ms" json:"mean_ms"`
	P50Ms  float64 `yaml:"p50_ms" json:"p50_ms"`
	P90Ms  float64 `yaml:"p90_ms" json:"p90_ms"`
	P95Ms  float64 `yaml:"p95_ms" json:"p95_ms"`
	P99Ms  float64 `yaml:"p99_ms" json:"p99_ms"`
}

// PipelineReport is the sole observable artifact of a pipeline run: the
// terminal state, every job instance result, and timing aggregates.
// Immutable once finalized.
type PipelineReport struct {
	RunID     string        `yaml:"run_id" json:"run_id"`
	Workflow  string        `yaml:"workflow" json:"workflow"`
	State     PipelineState `yaml:"state" json:"state"`
	Event     EventKind     `yaml:"event" json:"event"`
	Branch    string        `yaml:"branch,omitempty" json:"branch,omitempty"`
	StartedAt time.Time     `yaml:"started_at" json:"started_at"`
	Duration  time.Duration `yaml:"duration" json:"duration"`
	Jobs      []JobResult   `yaml:"jobs,omitempty" json:"jobs,omitempty"`

	// StepDurations summarizes the duration of every executed step across
	// all instances. Nil when no step ran.
	StepDurations *DurationSummary `yaml:"step_durations,omitempty" json:"step_durations,omitempty"`
}

// Counts returns how many job results are in each terminal state.
func (r *PipelineReport) Counts() (passed, failed, cancelled, skipped int) {
	for _, job := range r.Jobs {
		switch job.State {
		case InstancePassed:
			passed++
		case InstanceFailed:
			failed++
		case InstanceCancelled:
			cancelled++
		case InstanceSkipped:
			skipped++
		}
	}
	return
}
