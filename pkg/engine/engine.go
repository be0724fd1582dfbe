// Package engine is the unified execution entry point. It wires the shell
// executor, job runner, and worker pool together so the CLI and the REST
// API drive pipeline runs through the same path.
package engine

import (
	"context"
	"time"

	"matrixci/engine/internal/executor"
	"matrixci/engine/internal/runner"
	"matrixci/engine/internal/scheduler"
	"matrixci/engine/pkg/types"
)

// Options configures an Engine.
type Options struct {
	// Concurrency is the worker pool size. Values below 1 are raised to 1.
	Concurrency int

	// GracePeriod is the SIGTERM-to-SIGKILL window for cancelled steps.
	GracePeriod time.Duration

	// DefaultStepTimeout bounds steps with no timeout of their own.
	// Zero means unbounded.
	DefaultStepTimeout time.Duration

	// Capability, when set, filters instances by execution environment.
	Capability scheduler.CapabilityPredicate
}

// Engine owns the long-lived execution resources shared across runs.
type Engine struct {
	pool       *scheduler.Pool
	runner     *runner.JobRunner
	capability scheduler.CapabilityPredicate
}

// New creates an engine with the given options.
func New(opts Options) *Engine {
	exec := executor.NewShellExecutor(opts.GracePeriod)
	exec.DefaultTimeout = opts.DefaultStepTimeout

	return &Engine{
		pool:       scheduler.NewPool(opts.Concurrency),
		runner:     runner.New(exec),
		capability: opts.Capability,
	}
}

// NewScheduler builds a scheduler for one pipeline run on the engine's
// shared pool. Each run needs its own scheduler value.
func (e *Engine) NewScheduler(opts ...scheduler.Option) *scheduler.Scheduler {
	base := []scheduler.Option{}
	if e.capability != nil {
		base = append(base, scheduler.WithCapabilityPredicate(e.capability))
	}
	return scheduler.New(e.pool, e.runner, append(base, opts...)...)
}

// Run executes one workflow to completion and returns its report.
func (e *Engine) Run(ctx context.Context, spec *types.WorkflowSpec, trigCtx types.TriggerContext) (*types.PipelineReport, error) {
	return e.NewScheduler().Run(ctx, spec, trigCtx)
}

// PoolSize reports the worker pool's permit count.
func (e *Engine) PoolSize() int {
	return e.pool.Size()
}
