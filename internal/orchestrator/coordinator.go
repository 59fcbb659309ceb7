// Package orchestrator owns session lifecycle: it drives the debate
// pipeline in a background goroutine, publishes progress on the event bus,
// extracts the final decision, and runs the authorization-gated calendar
// side effect.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/michael/vc-council/internal/debate"
	"github.com/michael/vc-council/internal/events"
	"github.com/michael/vc-council/internal/mcp"
	"github.com/michael/vc-council/internal/parsing"
	"github.com/michael/vc-council/internal/types"
)

// calendarService is the service name used for the gated side effect.
const calendarService = "gcalendar"

// CalendarFactory builds a calendar service from a completed OAuth session.
type CalendarFactory func(sess mcp.OAuthSession) (mcp.CalendarService, error)

// Options configures a Coordinator.
type Options struct {
	Store           SessionStore
	Bus             *events.Bus
	Runner          debate.StepRunner // nil leaves sessions awaiting_dependency
	Broker          *mcp.Broker       // nil skips calendar side effects
	Calendar        CalendarFactory   // defaults to Google Calendar
	AuthWait        time.Duration     // bound for AwaitCompletion, default 5m
	AuthPollEvery   time.Duration     // poll interval, default 3s
	Now             func() time.Time
}

// Coordinator is the top-level state machine for analysis sessions.
type Coordinator struct {
	store    SessionStore
	bus      *events.Bus
	runner   debate.StepRunner
	broker   *mcp.Broker
	calendar CalendarFactory
	authWait time.Duration
	authPoll time.Duration
	now      func() time.Time

	plan []debate.Step

	// currentStep is the per-session attribution pointer: intermediate
	// progress is credited to whichever step it indicates. It only moves
	// forward and never exceeds the last step index.
	mu          sync.Mutex
	currentStep map[string]int
}

// New creates a coordinator.
func New(opts Options) *Coordinator {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.Calendar == nil {
		opts.Calendar = func(sess mcp.OAuthSession) (mcp.CalendarService, error) {
			return mcp.NewGoogleCalendar(sess)
		}
	}
	if opts.AuthWait == 0 {
		opts.AuthWait = 5 * time.Minute
	}
	if opts.AuthPollEvery == 0 {
		opts.AuthPollEvery = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		store:       opts.Store,
		bus:         opts.Bus,
		runner:      opts.Runner,
		broker:      opts.Broker,
		calendar:    opts.Calendar,
		authWait:    opts.AuthWait,
		authPoll:    opts.AuthPollEvery,
		now:         opts.Now,
		plan:        debate.Plan(),
		currentStep: make(map[string]int),
	}
}

// Bus exposes the event bus for stream handlers.
func (c *Coordinator) Bus() *events.Bus { return c.bus }

// Start creates a session and schedules the pipeline in the background,
// returning the session id immediately.
func (c *Coordinator) Start(input types.CompanyInput) string {
	session := &types.Session{
		ID:        uuid.New().String(),
		Input:     input,
		Status:    types.StatusRunning,
		CreatedAt: c.now(),
	}

	if c.runner == nil {
		session.Status = types.StatusAwaitingDependency
		session.Error = "no step runner wired"
		c.store.Put(session)
		log.Printf("[coordinator] session %s awaiting step runner", session.ID)
		return session.ID
	}

	c.store.Put(session)
	c.setPointer(session.ID, 1)

	log.Printf("[coordinator] started analysis for %s (session %s)", input.CompanyName, session.ID)
	go c.run(session.ID, input)

	return session.ID
}

// GetResult returns a snapshot of the session, or false for unknown ids.
func (c *Coordinator) GetResult(id string) (types.Session, bool) {
	return c.store.Get(id)
}

// Clear evicts a session and its tracking state.
func (c *Coordinator) Clear(id string) {
	c.store.Delete(id)
	c.clearPointer(id)
	c.bus.Close(id)
}

// ActiveSessions reports how many sessions the store currently holds.
func (c *Coordinator) ActiveSessions() int {
	return c.store.Count()
}

// run executes the whole analysis for one session. It is the single writer
// of the session's mutable state.
func (c *Coordinator) run(id string, input types.CompanyInput) {
	defer c.clearPointer(id)

	ctx := context.Background()
	c.bus.Publish(id, events.PhaseChange("initializing"))

	records, err := debate.Run(ctx, debate.RunOptions{
		Input:  input,
		Runner: c.runner,
		Now:    c.now,
		OnPhase: func(round int, topic string) {
			c.bus.Publish(id, events.PhaseChange(topic))
		},
		OnProgress: func(p debate.Progress) {
			c.handleProgress(id, p)
		},
		OnStep: func(record types.StepRecord) {
			c.handleStep(id, record)
		},
	})

	if err != nil {
		c.finishFailed(id, records, err)
		return
	}

	result := parsing.ExtractDecision(records[len(records)-1].Output, c.now())

	completedAt := c.now()
	c.store.Update(id, func(s *types.Session) {
		s.Status = types.StatusCompleted
		s.Result = &result
		s.CompletedAt = &completedAt
	})

	c.bus.Publish(id, events.Decision(map[string]any{
		"decision":        string(result.Decision),
		"reasoning":       result.Reasoning,
		"investment_memo": result.InvestmentMemo,
		"calendar_events": result.CalendarEvents,
	}))
	log.Printf("[coordinator] session %s completed: %s", id, result.Decision)

	if len(result.CalendarEvents) > 0 {
		c.scheduleFollowUps(ctx, id, result.CalendarEvents)
	}

	c.bus.Publish(id, events.PhaseChange("completed"))
	c.bus.Close(id)
}

// finishFailed records a halted pipeline: partial step records are kept
// for inspection and the failing step index is surfaced.
func (c *Coordinator) finishFailed(id string, records []types.StepRecord, err error) {
	detail := err.Error()
	var stepErr *debate.StepError
	if errors.As(err, &stepErr) {
		detail = fmt.Sprintf("analysis halted at step %d: %v", stepErr.Step, stepErr.Err)
	}

	completedAt := c.now()
	c.store.Update(id, func(s *types.Session) {
		s.Status = types.StatusFailed
		s.Steps = records
		s.Error = detail
		s.CompletedAt = &completedAt
	})

	log.Printf("[coordinator] session %s failed: %v", id, err)
	c.bus.Publish(id, events.Error(detail, "PIPELINE_FAILED"))
	c.bus.Publish(id, events.PhaseChange("failed"))
	c.bus.Close(id)
}

// handleProgress attributes loosely-typed runner signals to the step the
// pointer currently indicates. Only a final conclusion advances it.
func (c *Coordinator) handleProgress(id string, p debate.Progress) {
	step := c.pointerStep(id)

	switch p.Kind {
	case debate.ProgressThought:
		c.bus.Publish(id, events.AgentMessage(step.Role, p.Text, "thought"))
	case debate.ProgressConclusion:
		c.bus.Publish(id, events.AgentMessage(step.Role, p.Text, "conclusion"))
		c.advancePointer(id, step.Index+1)
	default:
		c.bus.Publish(id, events.AgentMessage(step.Role, p.Text, "info"))
	}
}

// handleStep appends a completed record to the session. If the runner never
// emitted a conclusion signal for this step, the record itself stands in
// for one so the pointer still advances.
func (c *Coordinator) handleStep(id string, record types.StepRecord) {
	c.store.Update(id, func(s *types.Session) {
		s.Steps = append(s.Steps, record)
	})

	c.mu.Lock()
	needsConclusion := c.currentStep[id] <= record.Index
	c.mu.Unlock()
	if needsConclusion {
		c.bus.Publish(id, events.AgentMessage(record.Role, record.Output, "conclusion"))
	}
	c.advancePointer(id, record.Index+1)
}

// scheduleFollowUps drives the authorization handshake and creates the
// calendar events. Each event is attempted independently; failures are
// surfaced as events but never fail the session.
func (c *Coordinator) scheduleFollowUps(ctx context.Context, id string, calendarEvents []types.CalendarEvent) {
	if c.broker == nil {
		log.Printf("[coordinator] session %s: no authorization broker, skipping %d calendar events", id, len(calendarEvents))
		return
	}

	sess, err := c.broker.Initiate(ctx, calendarService)
	if err != nil {
		c.bus.Publish(id, events.Error("failed to initiate calendar authorization: "+err.Error(), "AUTH_INITIATE_FAILED"))
		return
	}

	if sess.Status != mcp.StateCompleted {
		c.bus.Publish(id, events.AuthorizationRequest(calendarService, sess.URL, sess.ID))
		sess, err = c.broker.AwaitCompletion(ctx, calendarService, c.authWait, c.authPoll)
		if err != nil {
			code := "AUTH_FAILED"
			if errors.Is(err, mcp.ErrAuthorizationTimeout) {
				code = "AUTH_TIMEOUT"
			} else if errors.Is(err, mcp.ErrAuthorizationDenied) {
				code = "AUTH_DENIED"
			}
			c.bus.Publish(id, events.Error("calendar authorization not completed: "+err.Error(), code))
			return
		}
	}

	service, err := c.calendar(sess)
	if err != nil {
		c.bus.Publish(id, events.Error("calendar service unavailable: "+err.Error(), "CALENDAR_FAILED"))
		return
	}

	results := make([]error, len(calendarEvents))
	var g errgroup.Group
	for i, event := range calendarEvents {
		g.Go(func() error {
			confirmation, err := service.CreateEvent(ctx, event)
			if err != nil {
				results[i] = err
				return nil // a single event failing must not abort the rest
			}
			log.Printf("[coordinator] session %s: created event %q (%s)", id, event.Title, confirmation)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			c.bus.Publish(id, events.Error(
				fmt.Sprintf("failed to create calendar event %q: %v", calendarEvents[i].Title, err),
				"CALENDAR_EVENT_FAILED"))
		}
	}
}

// pointerStep returns the plan step the attribution pointer indicates.
func (c *Coordinator) pointerStep(id string) debate.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.currentStep[id]
	if idx < 1 {
		idx = 1
	}
	if idx > debate.TotalSteps {
		idx = debate.TotalSteps
	}
	return c.plan[idx-1]
}

// advancePointer moves the pointer forward, never backward, capped at the
// last step.
func (c *Coordinator) advancePointer(id string, to int) {
	if to > debate.TotalSteps {
		to = debate.TotalSteps
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if to > c.currentStep[id] {
		c.currentStep[id] = to
	}
}

func (c *Coordinator) setPointer(id string, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentStep[id] = to
}

func (c *Coordinator) clearPointer(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.currentStep, id)
}
