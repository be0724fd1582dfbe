// Package rest provides the REST API server for the matrix CI engine.
package rest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"matrixci/engine/internal/config"
	"matrixci/engine/internal/parser"
	"matrixci/engine/internal/reporter"
	"matrixci/engine/internal/scheduler"
	"matrixci/engine/pkg/engine"
	"matrixci/engine/pkg/logger"
	"matrixci/engine/pkg/types"
)

// Server represents the REST API server.
type Server struct {
	app    *fiber.App
	engine *engine.Engine
	config *config.ServerConfig
	parser *parser.YAMLParser

	reports *reporter.Manager

	runsMu sync.RWMutex
	runs   map[string]*run
}

// run tracks one submitted pipeline run.
type run struct {
	id        string
	workflow  string
	trigCtx   types.TriggerContext
	startedAt time.Time
	sched     *scheduler.Scheduler

	mu     sync.RWMutex
	report *types.PipelineReport
}

// NewServer creates a new REST API server on the given engine.
func NewServer(eng *engine.Engine, cfg *config.ServerConfig, reports *reporter.Manager) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: customErrorHandler,
		AppName:      "Matrix CI Engine API",
	})

	server := &Server{
		app:     app,
		engine:  eng,
		config:  cfg,
		parser:  parser.NewYAMLParser(),
		reports: reports,
		runs:    make(map[string]*run),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept",
			MaxAge:       86400,
		}))
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheck)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthCheck)

	api.Post("/runs", s.submitRun)
	api.Get("/runs", s.listRuns)
	api.Get("/runs/:id", s.getRun)
	api.Post("/runs/:id/cancel", s.cancelRun)
}

// Start starts the REST API server.
func (s *Server) Start() error {
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the server and shuts it down when the context
// is cancelled.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(s.config.Address)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// submitRun handles POST /api/v1/runs. The run is dispatched in the
// background; the response carries the run ID for later polling.
func (s *Server) submitRun(c *fiber.Ctx) error {
	var req RunSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	spec, err := s.resolveSpec(&req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	trigCtx := types.TriggerContext{
		Event:  types.EventKind(req.Event),
		Branch: req.Branch,
	}
	if !trigCtx.Event.Known() {
		return badRequest(c, fmt.Sprintf("unknown event: %q", req.Event))
	}

	id := uuid.NewString()
	r := &run{
		id:        id,
		workflow:  spec.Name,
		trigCtx:   trigCtx,
		startedAt: time.Now(),
		sched:     s.engine.NewScheduler(scheduler.WithRunID(id)),
	}

	s.runsMu.Lock()
	s.runs[id] = r
	s.runsMu.Unlock()

	go s.execute(r, spec)

	return c.Status(fiber.StatusAccepted).JSON(RunSubmitResponse{
		RunID:    id,
		Workflow: spec.Name,
		State:    string(types.PipelinePending),
	})
}

// execute drives one run to completion and stores its report.
func (s *Server) execute(r *run, spec *types.WorkflowSpec) {
	report, err := r.sched.Run(context.Background(), spec, r.trigCtx)
	if err != nil {
		logger.Error("run %s failed to dispatch: %v", r.id, err)
		return
	}

	r.mu.Lock()
	r.report = report
	r.mu.Unlock()

	if s.reports != nil {
		if err := s.reports.Report(context.Background(), report); err != nil {
			logger.Error("run %s: report delivery: %v", r.id, err)
		}
	}
}

// resolveSpec picks the workflow out of the request, preferring raw YAML.
func (s *Server) resolveSpec(req *RunSubmitRequest) (*types.WorkflowSpec, error) {
	if req.YAML != "" {
		return s.parser.Parse([]byte(req.YAML))
	}
	if req.Workflow == nil {
		return nil, fmt.Errorf("request carries neither workflow nor yaml")
	}
	if err := parser.Validate(req.Workflow); err != nil {
		return nil, err
	}
	return req.Workflow, nil
}

// getRun handles GET /api/v1/runs/:id.
func (s *Server) getRun(c *fiber.Ctx) error {
	r := s.lookup(c.Params("id"))
	if r == nil {
		return notFound(c, "run not found")
	}
	return c.JSON(r.response())
}

// cancelRun handles POST /api/v1/runs/:id/cancel. Cancellation is
// cooperative: in-flight steps get the grace period before SIGKILL, and
// completed instances keep their results.
func (s *Server) cancelRun(c *fiber.Ctx) error {
	r := s.lookup(c.Params("id"))
	if r == nil {
		return notFound(c, "run not found")
	}

	r.sched.Cancel()
	return c.JSON(r.response())
}

// listRuns handles GET /api/v1/runs.
func (s *Server) listRuns(c *fiber.Ctx) error {
	s.runsMu.RLock()
	runs := make([]*run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.runsMu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].startedAt.Before(runs[j].startedAt)
	})

	resp := RunListResponse{Total: len(runs)}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, r.response())
	}
	return c.JSON(resp)
}

func (s *Server) lookup(id string) *run {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	return s.runs[id]
}

// response snapshots the run for API consumers.
func (r *run) response() *RunResponse {
	resp := &RunResponse{
		RunID:     r.id,
		Workflow:  r.workflow,
		State:     string(r.sched.State()),
		Event:     string(r.trigCtx.Event),
		Branch:    r.trigCtx.Branch,
		StartedAt: formatTime(r.startedAt),
	}

	r.mu.RLock()
	resp.Report = r.report
	r.mu.RUnlock()

	return resp
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: msg,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:   "not_found",
		Message: msg,
	})
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}
