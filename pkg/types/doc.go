// Package types defines the core data structures shared across the CI
// orchestration engine: workflow specifications, expanded job instances,
// and execution results.
package types
