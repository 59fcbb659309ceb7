package types

import (
	"strings"
	"time"
)

// Decision is the council's final verdict on a company.
type Decision string

const (
	DecisionPass   Decision = "PASS"
	DecisionMaybe  Decision = "MAYBE"
	DecisionInvest Decision = "INVEST"
	// DecisionError is the sentinel used when no decision could be recovered
	// from the model output. Callers can always branch on Decision without
	// nil-checking.
	DecisionError Decision = "ERROR"
)

// ParseDecision normalizes a raw decision string case-insensitively.
// Returns false when the value is not one of PASS, MAYBE, INVEST.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(strings.ToUpper(strings.TrimSpace(raw))) {
	case DecisionPass:
		return DecisionPass, true
	case DecisionMaybe:
		return DecisionMaybe, true
	case DecisionInvest:
		return DecisionInvest, true
	}
	return DecisionError, false
}

// CalendarEvent is a follow-up meeting attached to a decision.
type CalendarEvent struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
	Description string    `json:"description,omitempty"`
}

// DecisionResult is the structured outcome of the final debate step.
type DecisionResult struct {
	Decision       Decision        `json:"decision"`
	Reasoning      string          `json:"reasoning"`
	InvestmentMemo string          `json:"investment_memo"`
	CalendarEvents []CalendarEvent `json:"calendar_events"`
}

// followUpWindow bounds how far out follow-up events may be scheduled.
const followUpWindow = 14 * 24 * time.Hour

// NewDecisionResult builds a result and enforces the decision/calendar
// invariant: PASS has no events, MAYBE exactly one, INVEST two or three,
// each with start strictly before end and within 14 days of now.
// Violating inputs are corrected rather than rejected.
func NewDecisionResult(decision Decision, reasoning, memo string, events []CalendarEvent, now time.Time) DecisionResult {
	result := DecisionResult{
		Decision:       decision,
		Reasoning:      reasoning,
		InvestmentMemo: memo,
		CalendarEvents: events,
	}
	result.normalizeEvents(now)
	return result
}

// normalizeEvents corrects the calendar list in place to satisfy the
// per-decision event count and the scheduling window.
func (r *DecisionResult) normalizeEvents(now time.Time) {
	switch r.Decision {
	case DecisionPass, DecisionError:
		r.CalendarEvents = nil
		return
	case DecisionMaybe:
		if len(r.CalendarEvents) > 1 {
			r.CalendarEvents = r.CalendarEvents[:1]
		}
		if len(r.CalendarEvents) == 0 {
			r.CalendarEvents = DefaultEvents(DecisionMaybe, now)
		}
	case DecisionInvest:
		if len(r.CalendarEvents) > 3 {
			r.CalendarEvents = r.CalendarEvents[:3]
		}
		if len(r.CalendarEvents) < 2 {
			r.CalendarEvents = DefaultEvents(DecisionInvest, now)
		}
	}

	for i := range r.CalendarEvents {
		clampEvent(&r.CalendarEvents[i], now)
	}
}

// clampEvent forces a single event into the valid scheduling window.
func clampEvent(ev *CalendarEvent, now time.Time) {
	latestStart := now.Add(followUpWindow - time.Hour)
	if ev.Start.Before(now) || ev.Start.After(latestStart) {
		ev.Start = now.Add(24 * time.Hour)
	}
	if !ev.End.After(ev.Start) {
		ev.End = ev.Start.Add(time.Hour)
	}
	if ev.End.After(now.Add(followUpWindow)) {
		ev.End = ev.Start.Add(time.Hour)
	}
}

// DefaultEvents returns the standard follow-up schedule for a decision.
// MAYBE gets a single check-in; INVEST gets the diligence kickoff, the
// partner meeting, and the term-sheet review.
func DefaultEvents(decision Decision, now time.Time) []CalendarEvent {
	day := 24 * time.Hour
	switch decision {
	case DecisionMaybe:
		start := now.Add(13 * day)
		return []CalendarEvent{{
			Title:       "Follow-up check-in",
			Start:       start,
			End:         start.Add(30 * time.Minute),
			Description: "Revisit open questions from the council debate.",
		}}
	case DecisionInvest:
		kickoff := now.Add(1 * day)
		partner := now.Add(7 * day)
		termSheet := now.Add(13 * day)
		return []CalendarEvent{
			{
				Title:       "Due diligence kickoff",
				Start:       kickoff,
				End:         kickoff.Add(time.Hour),
				Description: "Start formal due diligence.",
			},
			{
				Title:       "Partner meeting",
				Start:       partner,
				End:         partner.Add(time.Hour),
				Description: "Present the investment memo to the partnership.",
			},
			{
				Title:       "Term sheet review",
				Start:       termSheet,
				End:         termSheet.Add(time.Hour),
				Description: "Review and negotiate term sheet.",
			},
		}
	}
	return nil
}
