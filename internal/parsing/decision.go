package parsing

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/michael/vc-council/internal/schemas"
	"github.com/michael/vc-council/internal/types"
)

const (
	// maxScanBytes bounds how much raw text the recovery strategies look at.
	// Pathological outputs are truncated before any regex runs.
	maxScanBytes = 64 * 1024
	// maxRawEcho bounds how much raw text the ERROR sentinel carries back.
	maxRawEcho = 2000

	placeholderMissing = "(not recovered from model output)"
)

// ExtractDecision converts the final step's raw output into a
// DecisionResult. Strategies are tried in order, first success wins:
// a typed value is used directly, then an embedded JSON object is parsed
// and schema-checked, then individual fields are recovered by regex, and
// finally an ERROR sentinel is returned. The function is pure and never
// panics; callers can always branch on the decision value.
func ExtractDecision(raw any, now time.Time) types.DecisionResult {
	if result, ok := fromTyped(raw, now); ok {
		return result
	}

	text := textOf(raw)
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	if result, err := fromEmbeddedJSON(text, now); err == nil {
		return result
	}
	if result, err := fromFieldRecovery(text, now); err == nil {
		return result
	}
	return fallbackResult(text, now)
}

// decisionPayload is the loose wire shape accepted from the model.
type decisionPayload struct {
	Decision       string          `json:"decision"`
	Reasoning      string          `json:"reasoning"`
	InvestmentMemo string          `json:"investment_memo"`
	CalendarEvents json.RawMessage `json:"calendar_events"`
}

// fromTyped handles raw values that already carry the expected shape.
func fromTyped(raw any, now time.Time) (types.DecisionResult, bool) {
	switch v := raw.(type) {
	case types.DecisionResult:
		decision, ok := types.ParseDecision(string(v.Decision))
		if !ok {
			return types.DecisionResult{}, false
		}
		return types.NewDecisionResult(decision, v.Reasoning, v.InvestmentMemo, v.CalendarEvents, now), true
	case *types.DecisionResult:
		if v == nil {
			return types.DecisionResult{}, false
		}
		return fromTyped(*v, now)
	case map[string]any:
		doc, err := json.Marshal(v)
		if err != nil {
			return types.DecisionResult{}, false
		}
		result, err := decodePayload(doc, now)
		if err != nil {
			return types.DecisionResult{}, false
		}
		return result, true
	}
	return types.DecisionResult{}, false
}

// fromEmbeddedJSON locates the first '{' and the last '}' in the text and
// attempts to parse the substring as a decision document.
func fromEmbeddedJSON(text string, now time.Time) (types.DecisionResult, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return types.DecisionResult{}, &ParseError{Strategy: "embedded-json", Message: "no JSON object found"}
	}
	return decodePayload([]byte(text[start:end+1]), now)
}

// decodePayload parses and schema-checks one candidate JSON document.
func decodePayload(doc []byte, now time.Time) (types.DecisionResult, error) {
	if err := schemas.ValidateDecision(doc); err != nil {
		return types.DecisionResult{}, &ParseError{Strategy: "embedded-json", Message: "document rejected by schema", Cause: err}
	}

	var payload decisionPayload
	if err := json.Unmarshal(doc, &payload); err != nil {
		return types.DecisionResult{}, &ParseError{Strategy: "embedded-json", Message: "invalid JSON", Cause: err}
	}

	decision, ok := types.ParseDecision(payload.Decision)
	if !ok {
		return types.DecisionResult{}, &ParseError{Strategy: "embedded-json", Message: "decision value not one of PASS/MAYBE/INVEST"}
	}

	// calendar_events defaults to empty when absent or malformed.
	events := parseCalendarEvents(payload.CalendarEvents)

	return types.NewDecisionResult(decision, payload.Reasoning, payload.InvestmentMemo, events, now), nil
}

var (
	reDecision  = regexp.MustCompile(`"decision"\s*:\s*"([^"]+)"`)
	reReasoning = regexp.MustCompile(`"reasoning"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	reMemo      = regexp.MustCompile(`"investment_memo"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	reEvents    = regexp.MustCompile(`"calendar_events"\s*:\s*(\[[^\]]*\])`)
)

// fromFieldRecovery independently searches for each expected field and
// assembles a best-effort result. Missing fields get explicit placeholders.
func fromFieldRecovery(text string, now time.Time) (types.DecisionResult, error) {
	m := reDecision.FindStringSubmatch(text)
	if m == nil {
		return types.DecisionResult{}, &ParseError{Strategy: "field-recovery", Message: "no decision field found"}
	}
	decision, ok := types.ParseDecision(m[1])
	if !ok {
		return types.DecisionResult{}, &ParseError{Strategy: "field-recovery", Message: "unrecognized decision value"}
	}

	reasoning := placeholderMissing
	if m := reReasoning.FindStringSubmatch(text); m != nil {
		reasoning = unescapeJSONString(m[1])
	}
	memo := placeholderMissing
	if m := reMemo.FindStringSubmatch(text); m != nil {
		memo = unescapeJSONString(m[1])
	}

	var events []types.CalendarEvent
	if m := reEvents.FindStringSubmatch(text); m != nil {
		events = parseCalendarEvents(json.RawMessage(m[1]))
	}

	return types.NewDecisionResult(decision, reasoning, memo, events, now), nil
}

// fallbackResult is the terminal strategy: an ERROR sentinel carrying the
// truncated raw text so the session can still complete.
func fallbackResult(text string, now time.Time) types.DecisionResult {
	if len(text) > maxRawEcho {
		text = text[:maxRawEcho]
	}
	return types.NewDecisionResult(
		types.DecisionError,
		"No decision could be recovered from the model output.",
		text,
		nil,
		now,
	)
}

// calendarEventPayload is the loose wire shape of one event.
type calendarEventPayload struct {
	Title       string   `json:"title"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees"`
	Description string   `json:"description"`
}

// parseCalendarEvents decodes the calendar array, skipping entries whose
// timestamps do not parse. A malformed array yields an empty list.
func parseCalendarEvents(raw json.RawMessage) []types.CalendarEvent {
	if len(raw) == 0 {
		return nil
	}
	var payloads []calendarEventPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		return nil
	}

	events := make([]types.CalendarEvent, 0, len(payloads))
	for _, p := range payloads {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			end = start.Add(time.Hour)
		}
		events = append(events, types.CalendarEvent{
			Title:       p.Title,
			Start:       start,
			End:         end,
			Attendees:   p.Attendees,
			Description: p.Description,
		})
	}
	return events
}

// textOf renders the raw value as text for the scanning strategies.
func textOf(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		doc, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(doc)
	}
}

// unescapeJSONString resolves backslash escapes captured by the field
// recovery regexes.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
