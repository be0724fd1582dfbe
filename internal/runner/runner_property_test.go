package runner

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"matrixci/engine/internal/executor"
	"matrixci/engine/pkg/types"
)

// Fail-fast invariant: if step k fails, exactly steps 0..k execute and the
// result contains exactly k+1 step records.
func TestJobRunner_FailFastPrefixProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stepCount := rapid.IntRange(1, 12).Draw(t, "steps")
		failAt := rapid.IntRange(0, stepCount).Draw(t, "failAt") // == stepCount means no failure

		names := make([]string, stepCount)
		for i := range names {
			names[i] = fmt.Sprintf("step%d", i)
		}

		spy := newSpyExecutor()
		if failAt < stepCount {
			spy.failures[names[failAt]] = executor.KindAbnormalTermination
		}

		result := New(spy).Run(context.Background(), instanceWithSteps(names...))

		if failAt < stepCount {
			if result.State != types.InstanceFailed {
				t.Fatalf("expected failed state, got %s", result.State)
			}
			if result.FailedStep != failAt {
				t.Fatalf("expected failed step %d, got %d", failAt, result.FailedStep)
			}
			if len(spy.calls) != failAt+1 {
				t.Fatalf("expected %d executed steps, got %d", failAt+1, len(spy.calls))
			}
		} else {
			if result.State != types.InstancePassed {
				t.Fatalf("expected passed state, got %s", result.State)
			}
			if len(spy.calls) != stepCount {
				t.Fatalf("expected %d executed steps, got %d", stepCount, len(spy.calls))
			}
		}

		if len(result.Steps) != len(spy.calls) {
			t.Fatalf("result should record exactly the executed steps")
		}
	})
}
