package debate

import (
	"context"
	"fmt"
	"time"

	"github.com/michael/vc-council/internal/types"
)

// StepRunner performs the actual generation for one step. It is treated as
// an opaque, fallible, potentially slow external capability.
type StepRunner interface {
	RunStep(ctx context.Context, step Step, instructions string, visible []types.StepRecord, onProgress ProgressFunc) (string, error)
}

// StepError reports a failed step along with how many steps completed
// before the pipeline halted.
type StepError struct {
	Step      int
	Completed int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d failed after %d completed steps: %v", e.Step, e.Completed, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RunOptions configures one pipeline execution.
type RunOptions struct {
	Input      types.CompanyInput
	Runner     StepRunner
	OnPhase    func(round int, topic string) // called when a round boundary is crossed
	OnProgress ProgressFunc                  // forwarded to the runner for each step
	OnStep     func(record types.StepRecord) // called after each step completes
	Now        func() time.Time              // defaults to time.Now
}

// Run executes the 17 steps strictly in order. Each step sees only the
// prior outputs its context rule allows. On the first runner failure the
// pipeline halts immediately and returns the records produced so far
// together with a StepError naming the failed step.
func Run(ctx context.Context, opts RunOptions) ([]types.StepRecord, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("no step runner wired")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	plan := Plan()
	records := make([]types.StepRecord, 0, len(plan))
	currentRound := 0

	for _, step := range plan {
		if step.Round != currentRound {
			currentRound = step.Round
			if opts.OnPhase != nil {
				opts.OnPhase(step.Round, step.Topic)
			}
		}

		visibleIdx := ContextFor(step)
		visible := make([]types.StepRecord, 0, len(visibleIdx))
		for _, i := range visibleIdx {
			visible = append(visible, records[i-1])
		}

		instructions := Instructions(step, opts.Input)
		output, err := opts.Runner.RunStep(ctx, step, instructions, visible, opts.OnProgress)
		if err != nil {
			return records, &StepError{Step: step.Index, Completed: len(records), Err: err}
		}

		record := types.StepRecord{
			Index:       step.Index,
			Round:       step.Round,
			Role:        step.Role,
			Context:     visibleIdx,
			Output:      output,
			CompletedAt: now(),
		}
		records = append(records, record)
		if opts.OnStep != nil {
			opts.OnStep(record)
		}
	}

	return records, nil
}
