package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael/vc-council/internal/debate"
	"github.com/michael/vc-council/internal/types"
)

// fakeClient records which generation mode was used.
type fakeClient struct {
	jsonCalls    int
	contentCalls int
	tier         ModelTier
	output       string
	err          error
}

func (f *fakeClient) GenerateContent(_ context.Context, _ string, tier ModelTier) (string, error) {
	f.contentCalls++
	f.tier = tier
	return f.output, f.err
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, tier ModelTier) (string, error) {
	f.jsonCalls++
	f.tier = tier
	return f.output, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestRunStepUsesStandardTierForDebate(t *testing.T) {
	client := &fakeClient{output: "the market is large"}
	runner := NewRunner(client, nil)

	plan := debate.Plan()
	output, err := runner.RunStep(context.Background(), plan[0], "analyze the market", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "the market is large", output)
	assert.Equal(t, 1, client.contentCalls)
	assert.Equal(t, 0, client.jsonCalls)
	assert.Equal(t, TierStandard, client.tier)
}

func TestRunStepUsesJSONModeForDecision(t *testing.T) {
	client := &fakeClient{output: `{"decision": "PASS"}`}
	runner := NewRunner(client, nil)

	plan := debate.Plan()
	decisionStep := plan[debate.TotalSteps-1]
	_, err := runner.RunStep(context.Background(), decisionStep, "decide", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, client.jsonCalls)
	assert.Equal(t, 0, client.contentCalls)
	assert.Equal(t, TierAdvanced, client.tier)
}

func TestRunStepEmitsProgress(t *testing.T) {
	client := &fakeClient{output: "done"}
	runner := NewRunner(client, DefaultConfig())

	var progress []debate.Progress
	plan := debate.Plan()
	_, err := runner.RunStep(context.Background(), plan[1], "argue the bull case", nil,
		func(p debate.Progress) { progress = append(progress, p) })
	require.NoError(t, err)

	require.Len(t, progress, 2)
	assert.Equal(t, debate.ProgressThought, progress[0].Kind)
	assert.Equal(t, debate.RoleBull, progress[0].Role)
	assert.Equal(t, debate.ProgressConclusion, progress[1].Kind)
	assert.Equal(t, "done", progress[1].Text)
}

func TestRunStepWrapsErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	client := &fakeClient{err: cause}
	runner := NewRunner(client, nil)

	plan := debate.Plan()
	_, err := runner.RunStep(context.Background(), plan[2], "argue the bear case", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "step 3")
}

func TestBuildStepPrompt(t *testing.T) {
	t.Run("no visible context", func(t *testing.T) {
		prompt := BuildStepPrompt("open the market round", nil)
		assert.Equal(t, "open the market round", prompt)
		assert.NotContains(t, prompt, "Prior discussion")
	})

	t.Run("visible records in order", func(t *testing.T) {
		visible := []types.StepRecord{
			{Index: 1, Role: "market_researcher", Output: "TAM is 10B"},
			{Index: 2, Role: "bull", Output: "winner takes all"},
		}
		prompt := BuildStepPrompt("respond", visible)
		assert.Contains(t, prompt, "--- Prior discussion ---")

		first := "[market_researcher]\nTAM is 10B"
		second := "[bull]\nwinner takes all"
		assert.Contains(t, prompt, first)
		assert.Contains(t, prompt, second)
		assert.Less(t, strings.Index(prompt, first), strings.Index(prompt, second))
	})
}

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain JSON", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with language id", "```javascript\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestConfigModels(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))

	custom := cfg.WithModel(TierAdvanced, "gemini-3.0-pro")
	assert.Equal(t, "gemini-3.0-pro", custom.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced), "original config untouched")
}
