// Package scheduler dispatches expanded job instances onto a bounded
// worker pool, enforces trigger rules, and aggregates per-instance results
// into a pipeline report.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"matrixci/engine/internal/expand"
	"matrixci/engine/internal/metrics"
	"matrixci/engine/internal/trigger"
	"matrixci/engine/pkg/logger"
	"matrixci/engine/pkg/types"
)

// ErrAlreadyStarted is returned when Run is called twice on one scheduler.
var ErrAlreadyStarted = errors.New("scheduler: run already started")

// InstanceRunner executes a single job instance to completion.
type InstanceRunner interface {
	Run(ctx context.Context, inst *types.JobInstance) *types.JobResult
}

// CapabilityPredicate decides whether the available execution environments
// may run the given instance. Instances it rejects are reported as skipped
// rather than silently dropped.
type CapabilityPredicate func(inst *types.JobInstance) bool

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithCapabilityPredicate installs a capability matching predicate.
func WithCapabilityPredicate(pred CapabilityPredicate) Option {
	return func(s *Scheduler) { s.canRun = pred }
}

// WithRunID fixes the report's run ID instead of generating one, so
// callers that hand out the ID before dispatch stay consistent.
func WithRunID(id string) Option {
	return func(s *Scheduler) { s.runID = id }
}

// Scheduler drives one pipeline run through the state machine
// Pending → Running → {Succeeded, Failed, Cancelled}, or Pending → Skipped
// when the trigger filter rejects the run. A Scheduler value is consumed
// by a single Run call; the pool may be shared across many schedulers.
type Scheduler struct {
	pool   *Pool
	runner InstanceRunner
	canRun CapabilityPredicate
	runID  string

	mu        sync.Mutex
	state     types.PipelineState
	started   bool
	cancelled bool
	cancel    context.CancelFunc
}

// New creates a scheduler for one pipeline run.
func New(pool *Pool, runner InstanceRunner, opts ...Option) *Scheduler {
	s := &Scheduler{
		pool:   pool,
		runner: runner,
		state:  types.PipelinePending,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current pipeline state.
func (s *Scheduler) State() types.PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel requests cooperative cancellation of the run. In-flight instances
// are asked to stop; completed instances keep their results. Calling
// Cancel before Run makes the run terminate immediately after dispatch.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Run evaluates the trigger, expands the workflow, dispatches every
// instance, and blocks until all dispatched instances report a terminal
// result or the run is cancelled. It always produces a final report; job
// failures never surface as an error from Run.
func (s *Scheduler) Run(ctx context.Context, spec *types.WorkflowSpec, trigCtx types.TriggerContext) (*types.PipelineReport, error) {
	if spec == nil {
		return nil, errors.New("scheduler: workflow spec is nil")
	}

	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	report := &types.PipelineReport{
		RunID:     runID,
		Workflow:  spec.Name,
		State:     types.PipelinePending,
		Event:     trigCtx.Event,
		Branch:    trigCtx.Branch,
		StartedAt: time.Now(),
	}

	runCtx, err := s.start(ctx)
	if err != nil {
		return nil, err
	}
	defer s.cancel()

	log := logger.With("workflow", spec.Name, "run", report.RunID)

	if !trigger.Matches(spec.On, trigCtx) {
		log.Infof("skipped: trigger mismatch (event=%s branch=%s)", trigCtx.Event, trigCtx.Branch)
		s.setState(types.PipelineSkipped)
		report.State = types.PipelineSkipped
		report.Duration = time.Since(report.StartedAt)
		return report, nil
	}

	s.setState(types.PipelineRunning)
	report.State = types.PipelineRunning

	instances := expand.Expand(spec)
	log.Infof("dispatching %d instances (pool size %d)", len(instances), s.pool.Size())

	results := s.dispatch(runCtx, instances)

	report.Jobs = results
	report.State = s.finalState(results)
	report.Duration = time.Since(report.StartedAt)
	report.StepDurations = summarize(results)
	s.setState(report.State)

	log.Infof("finished: %s", report.State)
	return report, nil
}

func (s *Scheduler) setState(state types.PipelineState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// start transitions Pending → dispatched and builds the run context.
func (s *Scheduler) start(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, ErrAlreadyStarted
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if s.cancelled {
		cancel()
	}
	return runCtx, nil
}

// dispatch runs every instance on the worker pool and returns results in
// expansion order. Instances with no dependency relationship run
// concurrently, bounded by the pool's permit count.
func (s *Scheduler) dispatch(ctx context.Context, instances []*types.JobInstance) []types.JobResult {
	results := make([]types.JobResult, len(instances))

	var wg sync.WaitGroup
	for i, inst := range instances {
		if s.canRun != nil && !s.canRun(inst) {
			results[i] = types.JobResult{
				Instance:   inst.Name,
				Job:        inst.JobName,
				State:      types.InstanceSkipped,
				FailedStep: -1,
				Error:      "no execution environment satisfies the instance's requirements",
			}
			continue
		}

		wg.Add(1)
		go func(i int, inst *types.JobInstance) {
			defer wg.Done()
			results[i] = s.runOne(ctx, inst)
		}(i, inst)
	}
	wg.Wait()

	return results
}

// runOne holds a pool permit for the instance's entire step sequence.
func (s *Scheduler) runOne(ctx context.Context, inst *types.JobInstance) types.JobResult {
	if err := s.pool.Acquire(ctx); err != nil {
		// Cancelled while queued: the instance never started.
		return types.JobResult{
			Instance:   inst.Name,
			Job:        inst.JobName,
			State:      types.InstanceCancelled,
			FailedStep: -1,
			Error:      err.Error(),
		}
	}
	defer s.pool.Release()

	return *s.runner.Run(ctx, inst)
}

// finalState aggregates instance results. Fail-open: one failure marks the
// pipeline failed but never cancels siblings.
func (s *Scheduler) finalState(results []types.JobResult) types.PipelineState {
	s.mu.Lock()
	wasCancelled := s.cancelled
	s.mu.Unlock()

	failed := false
	cancelled := wasCancelled
	for _, result := range results {
		switch result.State {
		case types.InstanceFailed:
			failed = true
		case types.InstanceCancelled:
			cancelled = true
		}
	}

	switch {
	case cancelled:
		return types.PipelineCancelled
	case failed:
		return types.PipelineFailed
	default:
		return types.PipelineSucceeded
	}
}

func summarize(results []types.JobResult) *types.DurationSummary {
	recorder := metrics.NewDurationRecorder()
	for _, job := range results {
		for _, step := range job.Steps {
			recorder.Record(step.Duration)
		}
	}
	return recorder.Summary()
}
