// Package reporter provides the reporting framework for finished pipeline
// runs: an output interface, a factory registry, and a manager that fans a
// report out to every configured backend.
package reporter

import (
	"context"
	"fmt"
	"sync"

	"matrixci/engine/pkg/types"
)

// Reporter delivers a finished pipeline report to one output backend.
type Reporter interface {
	// Name returns the reporter name.
	Name() string

	// Init prepares the reporter from its configuration map.
	Init(ctx context.Context, config map[string]any) error

	// Report delivers one pipeline report.
	Report(ctx context.Context, report *types.PipelineReport) error

	// Flush forces any buffered output to its destination.
	Flush(ctx context.Context) error

	// Close releases any held resources.
	Close(ctx context.Context) error
}

// Type identifies a reporter backend.
type Type string

const (
	// TypeConsole writes a human-readable summary to stdout.
	TypeConsole Type = "console"
	// TypeJSON writes the full report to a JSON file.
	TypeJSON Type = "json"
)

// Config holds the configuration for one reporter instance.
type Config struct {
	Type    Type           `yaml:"type" mapstructure:"type"`
	Enabled bool           `yaml:"enabled" mapstructure:"enabled"`
	Config  map[string]any `yaml:"config,omitempty" mapstructure:"config"`
}

// Factory creates a reporter of a specific type.
type Factory func(config map[string]any) (Reporter, error)

// Registry manages reporter registration and creation.
type Registry struct {
	factories map[Type]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty reporter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Type]Factory),
	}
}

// Register adds a factory for the given type.
func (r *Registry) Register(reporterType Type, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reporterType]; exists {
		return fmt.Errorf("reporter type already registered: %s", reporterType)
	}
	r.factories[reporterType] = factory
	return nil
}

// Create instantiates a reporter of the given type.
func (r *Registry) Create(reporterType Type, config map[string]any) (Reporter, error) {
	r.mu.RLock()
	factory, ok := r.factories[reporterType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown reporter type: %s", reporterType)
	}
	return factory(config)
}

// Types returns the registered reporter types.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		names = append(names, t)
	}
	return names
}
