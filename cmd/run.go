package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"matrixci/engine/internal/parser"
	"matrixci/engine/internal/reporter"
	"matrixci/engine/internal/scheduler"
	"matrixci/engine/pkg/engine"
	"matrixci/engine/pkg/logger"
	"matrixci/engine/pkg/types"
)

var (
	runEvent       string
	runBranch      string
	runConcurrency int
	runOutJSON     string
	runQuiet       bool
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Execute a workflow",
	Long: `Run parses the workflow file, evaluates its trigger rules against the
given event and branch, expands every job over its matrix, and executes
the resulting instances on the worker pool.

The command exits 0 when the pipeline succeeds or is skipped, 1 when it
fails, and 130 when it is cancelled. SIGINT and SIGTERM request
cooperative cancellation: running steps get the grace period to shut
down, completed results are kept in the report.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&runEvent, "event", string(types.EventPush), "trigger event (push, pull_request)")
	runCmd.Flags().StringVar(&runBranch, "branch", "main", "trigger branch")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "worker pool size (overrides config)")
	runCmd.Flags().StringVar(&runOutJSON, "out-json", "", "write the full report to this JSON file")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "suppress the console report")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	event := types.EventKind(runEvent)
	if !event.Known() {
		return fmt.Errorf("unknown event: %q", runEvent)
	}

	spec, err := parser.NewYAMLParser().ParseFile(args[0])
	if err != nil {
		return err
	}

	concurrency := cfg.Concurrency
	if runConcurrency > 0 {
		concurrency = runConcurrency
	}

	eng := engine.New(engine.Options{
		Concurrency:        concurrency,
		GracePeriod:        cfg.GracePeriod,
		DefaultStepTimeout: cfg.DefaultStepTimeout,
	})
	sched := eng.NewScheduler()

	manager, err := buildReporters(cmd.Context(), cfg.Reporters)
	if err != nil {
		return err
	}
	defer manager.Close(context.Background())

	stop := watchSignals(sched)
	defer stop()

	report, err := sched.Run(cmd.Context(), spec, types.TriggerContext{
		Event:  event,
		Branch: runBranch,
	})
	if err != nil {
		return err
	}

	if err := manager.Report(context.Background(), report); err != nil {
		logger.Warn("report delivery: %v", err)
	}

	switch report.State {
	case types.PipelineFailed:
		return exitCodeError(1)
	case types.PipelineCancelled:
		return exitCodeError(130)
	}
	return nil
}

// watchSignals requests scheduler cancellation on SIGINT or SIGTERM. A
// second signal exits immediately.
func watchSignals(sched *scheduler.Scheduler) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		logger.Info("received %s, cancelling pipeline", sig)
		sched.Cancel()

		if sig, ok := <-sigCh; ok {
			logger.Warn("received %s again, exiting immediately", sig)
			os.Exit(130)
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}

// buildReporters assembles the reporter set from configuration, adjusted
// by the run command's flags.
func buildReporters(ctx context.Context, configs []reporter.Config) (*reporter.Manager, error) {
	adjusted := make([]reporter.Config, 0, len(configs)+1)
	for _, cfg := range configs {
		if runQuiet && cfg.Type == reporter.TypeConsole {
			continue
		}
		adjusted = append(adjusted, cfg)
	}

	if runOutJSON != "" {
		adjusted = append(adjusted, reporter.Config{
			Type:    reporter.TypeJSON,
			Enabled: true,
			Config:  map[string]any{"file_path": runOutJSON},
		})
	}

	return reporter.NewManager(ctx, reporter.DefaultRegistry(), adjusted)
}
