package mcp

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/michael/vc-council/internal/types"
)

// CalendarService creates one follow-up event. Implementations are called
// once per event, independently; one failure must not stop the rest.
type CalendarService interface {
	CreateEvent(ctx context.Context, event types.CalendarEvent) (string, error)
}

// GoogleCalendar inserts events into the user's primary Google calendar
// using the access token from a completed OAuth session.
type GoogleCalendar struct {
	token string
}

// NewGoogleCalendar builds a calendar service from a completed session.
func NewGoogleCalendar(sess OAuthSession) (*GoogleCalendar, error) {
	if sess.Status != StateCompleted || sess.Token == "" {
		return nil, fmt.Errorf("OAuth session for %s is not completed", sess.Service)
	}
	return &GoogleCalendar{token: sess.Token}, nil
}

// CreateEvent inserts one event and returns its link as confirmation.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, event types.CalendarEvent) (string, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token}),
	))
	if err != nil {
		return "", fmt.Errorf("failed to create calendar service: %w", err)
	}

	attendees := make([]*calendar.EventAttendee, 0, len(event.Attendees))
	for _, email := range event.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert("primary", &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Start:       &calendar.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
		Attendees:   attendees,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event %q: %w", event.Title, err)
	}

	return created.HtmlLink, nil
}
