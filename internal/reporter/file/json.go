// Package file provides file-based reporters for finished pipeline runs.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"matrixci/engine/pkg/types"
)

// JSONConfig holds configuration for the JSON reporter.
type JSONConfig struct {
	// FilePath is the output file path.
	FilePath string `yaml:"file_path"`
	// Pretty enables indented JSON output.
	Pretty bool `yaml:"pretty"`
}

// DefaultJSONConfig returns the default JSON reporter configuration.
func DefaultJSONConfig() *JSONConfig {
	return &JSONConfig{
		FilePath: "pipeline-report.json",
		Pretty:   true,
	}
}

// JSONReporter writes the full pipeline report to a file.
type JSONReporter struct {
	config *JSONConfig
	mu     sync.Mutex
}

// NewJSON creates a JSON file reporter.
func NewJSON(config *JSONConfig) *JSONReporter {
	if config == nil {
		config = DefaultJSONConfig()
	}
	return &JSONReporter{config: config}
}

// Name returns the reporter name.
func (r *JSONReporter) Name() string { return "json" }

// Init applies configuration overrides and ensures the output directory
// exists.
func (r *JSONReporter) Init(ctx context.Context, config map[string]any) error {
	if path, ok := config["file_path"].(string); ok && path != "" {
		r.config.FilePath = path
	}
	if pretty, ok := config["pretty"].(bool); ok {
		r.config.Pretty = pretty
	}

	dir := filepath.Dir(r.config.FilePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	return nil
}

// Report writes the report, replacing any previous content.
func (r *JSONReporter) Report(ctx context.Context, report *types.PipelineReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		data []byte
		err  error
	)
	if r.config.Pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := os.WriteFile(r.config.FilePath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Flush implements the reporter interface; the report file is written
// whole on every Report call.
func (r *JSONReporter) Flush(ctx context.Context) error { return nil }

// Close implements the reporter interface.
func (r *JSONReporter) Close(ctx context.Context) error { return nil }
