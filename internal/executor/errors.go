package executor

import "fmt"

// Kind classifies step execution failures.
type Kind string

const (
	// KindCommandNotFound means the command could not be started or the
	// shell reported it as missing (exit code 127).
	KindCommandNotFound Kind = "command_not_found"

	// KindAbnormalTermination means the process exited non-zero or was
	// terminated by a signal.
	KindAbnormalTermination Kind = "abnormal_termination"

	// KindTimeout means the configured step timeout elapsed.
	KindTimeout Kind = "timeout"

	// KindCancelled means the run was cancelled while the step executed.
	KindCancelled Kind = "cancelled"
)

// ExecutionError describes why a step failed.
type ExecutionError struct {
	Kind  Kind   // Failure classification
	Step  string // Step name
	Cause error  // Underlying error, may be nil for plain non-zero exits
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("step %q: %s: %v", e.Step, e.Kind, e.Cause)
	}
	return fmt.Sprintf("step %q: %s", e.Step, e.Kind)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(kind Kind, step string, cause error) *ExecutionError {
	return &ExecutionError{
		Kind:  kind,
		Step:  step,
		Cause: cause,
	}
}
