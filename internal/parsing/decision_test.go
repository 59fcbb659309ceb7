package parsing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael/vc-council/internal/types"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func eventJSON(offset time.Duration) string {
	start := testNow.Add(offset)
	return fmt.Sprintf(`{"title":"Follow-up","start":%q,"end":%q}`,
		start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
}

func TestExtractDecisionTypedValues(t *testing.T) {
	t.Run("struct value", func(t *testing.T) {
		in := types.DecisionResult{Decision: types.DecisionPass, Reasoning: "weak market"}
		out := ExtractDecision(in, testNow)
		assert.Equal(t, types.DecisionPass, out.Decision)
		assert.Equal(t, "weak market", out.Reasoning)
		assert.Empty(t, out.CalendarEvents)
	})

	t.Run("struct pointer", func(t *testing.T) {
		in := &types.DecisionResult{Decision: types.DecisionMaybe, Reasoning: "needs traction"}
		out := ExtractDecision(in, testNow)
		assert.Equal(t, types.DecisionMaybe, out.Decision)
		require.Len(t, out.CalendarEvents, 1, "maybe gains its default follow-up")
	})

	t.Run("nil pointer falls through to error", func(t *testing.T) {
		var in *types.DecisionResult
		out := ExtractDecision(in, testNow)
		assert.Equal(t, types.DecisionError, out.Decision)
	})

	t.Run("typed value with bogus decision is not trusted", func(t *testing.T) {
		in := types.DecisionResult{Decision: types.Decision("SHRUG")}
		out := ExtractDecision(in, testNow)
		assert.Equal(t, types.DecisionError, out.Decision)
	})

	t.Run("map payload", func(t *testing.T) {
		in := map[string]any{"decision": "invest", "reasoning": "strong cohort retention"}
		out := ExtractDecision(in, testNow)
		assert.Equal(t, types.DecisionInvest, out.Decision)
		assert.Len(t, out.CalendarEvents, 3, "invest gains the default schedule")
	})
}

func TestExtractDecisionEmbeddedJSON(t *testing.T) {
	doc := fmt.Sprintf(`{"decision":"MAYBE","reasoning":"promising but early","investment_memo":"memo body","calendar_events":[%s]}`, eventJSON(48*time.Hour))

	tests := []struct {
		name string
		raw  string
	}{
		{"bare document", doc},
		{"markdown fenced", "```json\n" + doc + "\n```"},
		{"surrounded by prose", "After deliberation the committee concluded:\n" + doc + "\nEnd of memo."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExtractDecision(tt.raw, testNow)
			assert.Equal(t, types.DecisionMaybe, out.Decision)
			assert.Equal(t, "promising but early", out.Reasoning)
			assert.Equal(t, "memo body", out.InvestmentMemo)
			require.Len(t, out.CalendarEvents, 1)
			assert.Equal(t, "Follow-up", out.CalendarEvents[0].Title)
		})
	}
}

func TestExtractDecisionMalformedEventsFieldDefaultsToEmpty(t *testing.T) {
	// An otherwise well-formed document must not be kicked down to field
	// recovery just because calendar_events has the wrong shape.
	raw := `{"decision":"MAYBE","reasoning":"promising but early","investment_memo":"memo body","calendar_events":"schedule a follow-up soon"}`
	out := ExtractDecision(raw, testNow)

	assert.Equal(t, types.DecisionMaybe, out.Decision)
	assert.Equal(t, "promising but early", out.Reasoning)
	assert.Equal(t, "memo body", out.InvestmentMemo, "memo survives intact, so recovery was not the regex fallback")
	require.Len(t, out.CalendarEvents, 1, "malformed events degrade to the default follow-up")
}

func TestExtractDecisionFieldRecovery(t *testing.T) {
	t.Run("truncated document", func(t *testing.T) {
		// The closing braces are missing so the embedded-JSON strategy fails.
		raw := `{"decision": "INVEST", "reasoning": "the team has shipped before", "investment_memo": "solid`
		out := ExtractDecision(raw, testNow)
		assert.Equal(t, types.DecisionInvest, out.Decision)
		assert.Equal(t, "the team has shipped before", out.Reasoning)
		assert.Equal(t, "(not recovered from model output)", out.InvestmentMemo)
		assert.Len(t, out.CalendarEvents, 3)
	})

	t.Run("escaped characters in recovered fields", func(t *testing.T) {
		raw := `{"decision": "PASS", "reasoning": "margins are \"thin\" at best`
		out := ExtractDecision(raw, testNow)
		assert.Equal(t, types.DecisionPass, out.Decision)
		assert.Equal(t, `margins are "thin" at best`, out.Reasoning)
	})

	t.Run("schema-invalid wrapper still yields fields", func(t *testing.T) {
		// decision is nested so the top-level schema check fails, but the
		// field scan still finds it.
		raw := `{"verdict": {"decision": "MAYBE"}, "reasoning": "mixed signals"} trailing {`
		out := ExtractDecision(raw, testNow)
		assert.Equal(t, types.DecisionMaybe, out.Decision)
	})
}

func TestExtractDecisionErrorSentinel(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"plain prose", "I am unable to reach a decision at this time."},
		{"empty string", ""},
		{"nil", nil},
		{"braces without fields", "{not json at all}"},
		{"unknown decision value", `{"decision": "HOLD"}`},
		{"integer", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExtractDecision(tt.raw, testNow)
			assert.Equal(t, types.DecisionError, out.Decision)
			assert.Empty(t, out.CalendarEvents)
			assert.NotEmpty(t, out.Reasoning)
		})
	}
}

func TestExtractDecisionErrorEchoesTruncatedRaw(t *testing.T) {
	raw := strings.Repeat("x", 5000)
	out := ExtractDecision(raw, testNow)
	assert.Equal(t, types.DecisionError, out.Decision)
	assert.Len(t, out.InvestmentMemo, 2000, "raw echo is bounded")
}

func TestExtractDecisionOversizedInput(t *testing.T) {
	// A valid document buried past the scan bound is not found, but the
	// extractor still returns a usable sentinel.
	raw := strings.Repeat("noise ", 20000) + `{"decision": "INVEST"}`
	out := ExtractDecision(raw, testNow)
	assert.Equal(t, types.DecisionError, out.Decision)
}

func TestExtractDecisionNeverPanics(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"{",
		"}",
		"}{",
		`{"decision":`,
		`{"decision": 7}`,
		`{"calendar_events": "not an array", "decision": "PASS"}`,
		[]byte{0xff, 0xfe},
		map[string]any{"decision": make(chan int)}, // unmarshalable
		3.14,
		[]string{"a", "b"},
		strings.Repeat("{", 10000),
	}

	for i, raw := range inputs {
		out := ExtractDecision(raw, testNow)
		assert.NotEmpty(t, out.Decision, "input %d must still yield a decision", i)
	}
}

func TestExtractDecisionEventCorrections(t *testing.T) {
	t.Run("pass with events drops them", func(t *testing.T) {
		raw := fmt.Sprintf(`{"decision":"PASS","calendar_events":[%s]}`, eventJSON(24*time.Hour))
		out := ExtractDecision(raw, testNow)
		assert.Equal(t, types.DecisionPass, out.Decision)
		assert.Empty(t, out.CalendarEvents)
	})

	t.Run("maybe without events gains default", func(t *testing.T) {
		out := ExtractDecision(`{"decision":"MAYBE","reasoning":"revisit next quarter"}`, testNow)
		require.Len(t, out.CalendarEvents, 1)
		assert.True(t, out.CalendarEvents[0].Start.After(testNow))
	})

	t.Run("event outside window is clamped", func(t *testing.T) {
		raw := fmt.Sprintf(`{"decision":"MAYBE","calendar_events":[%s]}`, eventJSON(60*24*time.Hour))
		out := ExtractDecision(raw, testNow)
		require.Len(t, out.CalendarEvents, 1)
		ev := out.CalendarEvents[0]
		assert.False(t, ev.End.After(testNow.Add(14*24*time.Hour)))
		assert.True(t, ev.Start.Before(ev.End))
	})

	t.Run("event with unparseable start is skipped", func(t *testing.T) {
		raw := `{"decision":"MAYBE","calendar_events":[{"title":"x","start":"tomorrow-ish","end":"later"}]}`
		out := ExtractDecision(raw, testNow)
		// The bad event is dropped, then the default fills the MAYBE slot.
		require.Len(t, out.CalendarEvents, 1)
		assert.NotEqual(t, "x", out.CalendarEvents[0].Title)
	})
}
