// Package console provides a human-readable console reporter for finished
// pipeline runs.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"matrixci/engine/pkg/types"
)

// Config holds configuration for the console reporter.
type Config struct {
	// ShowOutput prints the captured output of failing steps.
	ShowOutput bool `yaml:"show_output"`
	// Writer is the output writer (defaults to os.Stdout).
	Writer io.Writer `yaml:"-"`
}

// DefaultConfig returns the default console reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		ShowOutput: true,
		Writer:     os.Stdout,
	}
}

// Reporter renders pipeline reports as text.
type Reporter struct {
	config *Config
	writer io.Writer
}

// New creates a console reporter.
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &Reporter{config: config, writer: config.Writer}
}

// Name returns the reporter name.
func (r *Reporter) Name() string { return "console" }

// Init implements the reporter interface; the console reporter needs no
// further setup.
func (r *Reporter) Init(ctx context.Context, config map[string]any) error {
	if show, ok := config["show_output"].(bool); ok {
		r.config.ShowOutput = show
	}
	return nil
}

// Report writes a summary of the pipeline run.
func (r *Reporter) Report(ctx context.Context, report *types.PipelineReport) error {
	w := r.writer

	fmt.Fprintf(w, "\nworkflow %s (%s on %s): %s\n",
		report.Workflow, report.Event, report.Branch, strings.ToUpper(string(report.State)))
	fmt.Fprintf(w, "run %s, took %s\n", report.RunID, report.Duration.Round(timePrecision))

	for _, job := range report.Jobs {
		fmt.Fprintf(w, "  %-8s %s (%s)\n", marker(job.State), job.Instance,
			job.Duration.Round(timePrecision))

		if job.State == types.InstanceFailed && job.FailedStep >= 0 && job.FailedStep < len(job.Steps) {
			step := job.Steps[job.FailedStep]
			fmt.Fprintf(w, "           step %q exited %d\n", step.Name, step.ExitCode)
			if r.config.ShowOutput && step.Output != "" {
				fmt.Fprintf(w, "%s\n", indent(step.Output, "           | "))
			}
		}
	}

	if report.StepDurations != nil {
		s := report.StepDurations
		fmt.Fprintf(w, "steps: %d, p50=%.1fms p95=%.1fms max=%.1fms\n",
			s.Count, s.P50Ms, s.P95Ms, s.MaxMs)
	}

	passed, failed, cancelled, skipped := report.Counts()
	fmt.Fprintf(w, "jobs: %d passed, %d failed, %d cancelled, %d skipped\n",
		passed, failed, cancelled, skipped)
	return nil
}

// Flush implements the reporter interface; console output is unbuffered.
func (r *Reporter) Flush(ctx context.Context) error { return nil }

// Close implements the reporter interface.
func (r *Reporter) Close(ctx context.Context) error { return nil }

const timePrecision = time.Millisecond

func marker(state types.InstanceState) string {
	switch state {
	case types.InstancePassed:
		return "PASS"
	case types.InstanceFailed:
		return "FAIL"
	case types.InstanceCancelled:
		return "CANCEL"
	default:
		return "SKIP"
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
