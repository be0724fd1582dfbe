package types

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// EventKind identifies the external event that can trigger a workflow.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// KnownEvents lists every event kind the engine understands.
var KnownEvents = []EventKind{EventPush, EventPullRequest}

// Known reports whether the event kind is one the engine understands.
func (e EventKind) Known() bool {
	for _, known := range KnownEvents {
		if e == known {
			return true
		}
	}
	return false
}

// Trigger defines when a workflow runs. An empty branch list matches every
// branch; the event list must name at least one known event.
type Trigger struct {
	Events   []EventKind `yaml:"events" json:"events"`
	Branches []string    `yaml:"branches,omitempty" json:"branches,omitempty"`
}

// TriggerContext carries the runtime event information supplied by the
// invoking environment. It is only consulted by the trigger filter.
type TriggerContext struct {
	Event  EventKind `yaml:"event" json:"event"`
	Branch string    `yaml:"branch" json:"branch"`
}

// WorkflowSpec is the immutable definition of one workflow: trigger rules,
// a global environment overlay, and an ordered set of jobs. It is created
// by the parser and never mutated afterwards.
type WorkflowSpec struct {
	Name string            `yaml:"name" json:"name"`
	On   Trigger           `yaml:"on" json:"on"`
	Env  map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Jobs []Job             `yaml:"jobs" json:"jobs"`
}

// Job is a named sequence of steps plus an environment descriptor, before
// matrix expansion. Axis order is significant: expansion iterates row-major
// with the first axis varying slowest.
type Job struct {
	Name    string            `yaml:"name" json:"name"`
	RunsOn  string            `yaml:"runs_on,omitempty" json:"runs_on,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Matrix  []Axis            `yaml:"matrix,omitempty" json:"matrix,omitempty"`
	Steps   []Step            `yaml:"steps" json:"steps"`
	Timeout time.Duration     `yaml:"-" json:"-"`
}

// Axis is one matrix dimension: a name and its ordered discrete values.
// Each value contributes an environment overlay entry {axis name: value}
// to the instances it produces.
type Axis struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values" json:"values"`
}

// Step is a single named shell command with an optional environment overlay.
// Immutable once parsed.
type Step struct {
	Name    string            `yaml:"name" json:"name"`
	Run     string            `yaml:"run" json:"run"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Timeout time.Duration     `yaml:"-" json:"-"`
}

// checkFields rejects mapping keys outside the allowed set. Custom
// UnmarshalYAML implementations bypass the decoder's KnownFields mode, so
// strictness has to be re-established by hand for every type that has one.
func checkFields(node *yaml.Node, typeName string, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, name := range allowed {
			if key.Value == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("line %d: field %s not found in type %s", key.Line, key.Value, typeName)
		}
	}
	return nil
}

// UnmarshalYAML decodes a job, accepting timeout as a duration string
// (e.g. "10m").
func (j *Job) UnmarshalYAML(node *yaml.Node) error {
	if err := checkFields(node, "job", "name", "runs_on", "env", "matrix", "steps", "timeout"); err != nil {
		return err
	}
	type rawJob struct {
		Name    string            `yaml:"name"`
		RunsOn  string            `yaml:"runs_on"`
		Env     map[string]string `yaml:"env"`
		Matrix  []Axis            `yaml:"matrix"`
		Steps   []Step            `yaml:"steps"`
		Timeout string            `yaml:"timeout"`
	}
	var raw rawJob
	if err := node.Decode(&raw); err != nil {
		return err
	}
	j.Name = raw.Name
	j.RunsOn = raw.RunsOn
	j.Env = raw.Env
	j.Matrix = raw.Matrix
	j.Steps = raw.Steps
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid job timeout %q: %w", raw.Timeout, err)
		}
		j.Timeout = d
	}
	return nil
}

// UnmarshalYAML decodes an axis strictly. Axes are reached through the
// job's raw decode, outside the top-level decoder's strict mode.
func (a *Axis) UnmarshalYAML(node *yaml.Node) error {
	if err := checkFields(node, "axis", "name", "values"); err != nil {
		return err
	}
	type rawAxis struct {
		Name   string   `yaml:"name"`
		Values []string `yaml:"values"`
	}
	var raw rawAxis
	if err := node.Decode(&raw); err != nil {
		return err
	}
	a.Name = raw.Name
	a.Values = raw.Values
	return nil
}

// UnmarshalYAML decodes a step, accepting timeout as a duration string
// (e.g. "5s").
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if err := checkFields(node, "step", "name", "run", "env", "timeout"); err != nil {
		return err
	}
	type rawStep struct {
		Name    string            `yaml:"name"`
		Run     string            `yaml:"run"`
		Env     map[string]string `yaml:"env"`
		Timeout string            `yaml:"timeout"`
	}
	var raw rawStep
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Run = raw.Run
	s.Env = raw.Env
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("invalid step timeout %q: %w", raw.Timeout, err)
		}
		s.Timeout = d
	}
	return nil
}

// UnmarshalJSON handles deserialization from JSON, accepting timeout as a
// duration string (e.g. "5s") which API clients send.
func (s *Step) UnmarshalJSON(data []byte) error {
	type alias Step
	aux := &struct {
		Timeout json.RawMessage `json:"timeout,omitempty"`
		*alias
	}{
		alias: (*alias)(s),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	return decodeJSONTimeout(aux.Timeout, &s.Timeout)
}

// MarshalJSON serializes the step with Timeout as a human-readable
// duration string.
func (s Step) MarshalJSON() ([]byte, error) {
	type alias Step
	aux := struct {
		Timeout string `json:"timeout,omitempty"`
		alias
	}{
		alias: alias(s),
	}
	if s.Timeout > 0 {
		aux.Timeout = s.Timeout.String()
	}
	return json.Marshal(aux)
}

// UnmarshalJSON handles deserialization from JSON, accepting timeout as a
// duration string.
func (j *Job) UnmarshalJSON(data []byte) error {
	type alias Job
	aux := &struct {
		Timeout json.RawMessage `json:"timeout,omitempty"`
		*alias
	}{
		alias: (*alias)(j),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	return decodeJSONTimeout(aux.Timeout, &j.Timeout)
}

// MarshalJSON serializes the job with Timeout as a human-readable
// duration string.
func (j Job) MarshalJSON() ([]byte, error) {
	type alias Job
	aux := struct {
		Timeout string `json:"timeout,omitempty"`
		alias
	}{
		alias: alias(j),
	}
	if j.Timeout > 0 {
		aux.Timeout = j.Timeout.String()
	}
	return json.Marshal(aux)
}

// decodeJSONTimeout accepts either a duration string ("5s") or a raw
// nanosecond count.
func decodeJSONTimeout(raw json.RawMessage, out *time.Duration) error {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil
	}
	var str string
	if json.Unmarshal(raw, &str) == nil && str != "" {
		d, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", str, err)
		}
		*out = d
		return nil
	}
	var ns int64
	if json.Unmarshal(raw, &ns) == nil {
		*out = time.Duration(ns)
	}
	return nil
}
