package types

import (
	"sort"
	"time"
)

// JobInstance is one concrete, environment-bound execution unit produced by
// matrix expansion. It carries the fully resolved environment (global, job
// and variant overlays merged, later layers winning) and is consumed exactly
// once by the scheduler.
type JobInstance struct {
	// Name is the deterministic instance name: the job name followed by
	// one axis value per declared axis ("build-linux-stable").
	Name string `yaml:"name" json:"name"`

	// JobName is the name of the job template this instance was expanded from.
	JobName string `yaml:"job" json:"job"`

	// RunsOn is the capability descriptor inherited from the job template.
	RunsOn string `yaml:"runs_on,omitempty" json:"runs_on,omitempty"`

	// Variant maps each axis name to the value selected for this instance.
	// Empty for jobs declared without a matrix.
	Variant map[string]string `yaml:"variant,omitempty" json:"variant,omitempty"`

	// Env is the resolved environment: global < job < variant, later layers
	// overriding same-named keys. Step overlays are applied at execution time.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Steps is the ordered step sequence, copied from the job template.
	Steps []Step `yaml:"steps" json:"steps"`

	// Timeout bounds the whole instance. Zero means no limit.
	Timeout time.Duration `yaml:"-" json:"-"`
}

// StepEnv returns the environment for the step at the given index: the
// instance environment with the step overlay applied on top.
func (ji *JobInstance) StepEnv(index int) map[string]string {
	if index < 0 || index >= len(ji.Steps) {
		return ji.Env
	}
	return MergeEnv(ji.Env, ji.Steps[index].Env)
}

// MergeEnv merges environment overlays left to right, later layers
// overriding same-named keys. Nil layers are skipped; the result is always
// a fresh map.
func MergeEnv(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// EnvironList renders an environment map as sorted KEY=VALUE pairs, the
// form expected by os/exec.
func EnvironList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
