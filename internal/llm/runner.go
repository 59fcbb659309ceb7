package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/michael/vc-council/internal/debate"
	"github.com/michael/vc-council/internal/types"
)

// Runner executes council steps against a Gemini client. It implements
// debate.StepRunner.
type Runner struct {
	client Client
	config *Config
}

// NewRunner creates a step runner backed by the given client.
func NewRunner(client Client, config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{client: client, config: config}
}

// RunStep generates the output for one step. The decision step is forced
// through JSON mode on the advanced tier; debate steps use the standard
// tier. Progress is reported as a Thought before generation starts and a
// Conclusion once the output is in hand.
func (r *Runner) RunStep(ctx context.Context, step debate.Step, instructions string, visible []types.StepRecord, onProgress debate.ProgressFunc) (string, error) {
	prompt := BuildStepPrompt(instructions, visible)

	if onProgress != nil {
		onProgress(debate.Progress{
			Kind: debate.ProgressThought,
			Role: step.Role,
			Text: fmt.Sprintf("%s is working on the %s discussion...", step.Role, step.Topic),
		})
	}

	var output string
	var err error
	if step.Topic == debate.TopicDecision {
		output, err = r.client.GenerateJSON(ctx, prompt, TierAdvanced)
	} else {
		output, err = r.client.GenerateContent(ctx, prompt, TierStandard)
	}
	if err != nil {
		return "", fmt.Errorf("generation failed for step %d (%s): %w", step.Index, step.Role, err)
	}

	if onProgress != nil {
		onProgress(debate.Progress{
			Kind: debate.ProgressConclusion,
			Role: step.Role,
			Text: output,
		})
	}

	return output, nil
}

// BuildStepPrompt assembles the step prompt: the instruction text followed
// by the visible prior outputs in their original order.
func BuildStepPrompt(instructions string, visible []types.StepRecord) string {
	var sb strings.Builder
	sb.WriteString(instructions)

	if len(visible) > 0 {
		sb.WriteString("\n\n--- Prior discussion ---\n")
		for _, record := range visible {
			sb.WriteString(fmt.Sprintf("\n[%s]\n%s\n", record.Role, record.Output))
		}
	}

	return sb.String()
}
