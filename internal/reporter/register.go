package reporter

import (
	"matrixci/engine/internal/reporter/console"
	"matrixci/engine/internal/reporter/file"
)

// DefaultRegistry returns a registry with every built-in reporter type
// registered.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	_ = registry.Register(TypeConsole, func(config map[string]any) (Reporter, error) {
		return console.New(nil), nil
	})
	_ = registry.Register(TypeJSON, func(config map[string]any) (Reporter, error) {
		return file.NewJSON(nil), nil
	})

	return registry
}
