package types

import "time"

// SessionStatus tracks the lifecycle of one analysis run.
type SessionStatus string

const (
	StatusRunning            SessionStatus = "running"
	StatusCompleted          SessionStatus = "completed"
	StatusFailed             SessionStatus = "failed"
	StatusAwaitingDependency SessionStatus = "awaiting_dependency"
)

// StepRecord is the output of one executed debate step. Immutable once written.
type StepRecord struct {
	Index       int       `json:"index"` // 1..17
	Round       int       `json:"round"` // 1..5
	Role        string    `json:"role"`
	Context     []int     `json:"context"` // indexes of prior steps this step was allowed to see
	Output      string    `json:"output"`
	CompletedAt time.Time `json:"completed_at"`
}

// Session represents one analysis run, owned by the coordinator.
type Session struct {
	ID          string          `json:"session_id"`
	Input       CompanyInput    `json:"company_data"`
	Status      SessionStatus   `json:"status"`
	Steps       []StepRecord    `json:"steps"`
	Result      *DecisionResult `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Snapshot is a point-in-time copy of a session returned to status pollers.
// The Steps slice is copied so callers never observe concurrent mutation.
func (s *Session) Snapshot() Session {
	out := *s
	out.Steps = make([]StepRecord, len(s.Steps))
	copy(out.Steps, s.Steps)
	if s.Result != nil {
		result := *s.Result
		out.Result = &result
	}
	return out
}
