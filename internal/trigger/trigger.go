// Package trigger evaluates workflow trigger rules against runtime events.
// Evaluation is pure and side-effect-free so it can be unit tested without
// dispatching anything.
package trigger

import "matrixci/engine/pkg/types"

// Matches reports whether the given trigger context satisfies the
// workflow's trigger rules: the event kind must be listed, and when a
// branch allow-list is present the branch must be on it.
func Matches(rules types.Trigger, ctx types.TriggerContext) bool {
	if !containsEvent(rules.Events, ctx.Event) {
		return false
	}
	if len(rules.Branches) == 0 {
		return true
	}
	return containsString(rules.Branches, ctx.Branch)
}

func containsEvent(events []types.EventKind, event types.EventKind) bool {
	for _, e := range events {
		if e == event {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
