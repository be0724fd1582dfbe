package reporter

import (
	"context"
	"fmt"

	"matrixci/engine/pkg/logger"
	"matrixci/engine/pkg/types"
)

// Manager fans a pipeline report out to a set of configured reporters.
// Reporter failures are logged and collected but never abort delivery to
// the remaining backends.
type Manager struct {
	reporters []Reporter
}

// NewManager builds the enabled reporters from their configurations using
// the given registry.
func NewManager(ctx context.Context, registry *Registry, configs []Config) (*Manager, error) {
	manager := &Manager{}

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		rep, err := registry.Create(cfg.Type, cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("create reporter %s: %w", cfg.Type, err)
		}
		if err := rep.Init(ctx, cfg.Config); err != nil {
			return nil, fmt.Errorf("init reporter %s: %w", cfg.Type, err)
		}
		manager.reporters = append(manager.reporters, rep)
	}

	return manager, nil
}

// Report delivers the report to every backend. The last delivery error is
// returned after all backends were attempted.
func (m *Manager) Report(ctx context.Context, report *types.PipelineReport) error {
	var lastErr error
	for _, rep := range m.reporters {
		if err := rep.Report(ctx, report); err != nil {
			logger.Warn("reporter %s failed: %v", rep.Name(), err)
			lastErr = err
		}
	}
	return lastErr
}

// Flush flushes every backend.
func (m *Manager) Flush(ctx context.Context) error {
	var lastErr error
	for _, rep := range m.reporters {
		if err := rep.Flush(ctx); err != nil {
			logger.Warn("reporter %s flush failed: %v", rep.Name(), err)
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes every backend.
func (m *Manager) Close(ctx context.Context) error {
	lastErr := m.Flush(ctx)
	for _, rep := range m.reporters {
		if err := rep.Close(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
