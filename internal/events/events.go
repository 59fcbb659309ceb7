// Package events provides the per-session publish/subscribe bus that bridges
// the background analysis goroutine to any number of SSE listeners.
package events

import "time"

// Event types delivered over the stream.
const (
	TypeConnected     = "connected"
	TypePhaseChange   = "phase_change"
	TypeAgentMessage  = "agent_message"
	TypeDecision      = "decision"
	TypeError         = "error"
	TypeAuthRequest   = "authorization_request"
	TypePing          = "ping"
)

// Event is one typed message on the stream.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// PhaseChange builds a phase_change event.
func PhaseChange(phase string) Event {
	return Event{Type: TypePhaseChange, Data: map[string]any{
		"phase":     phase,
		"timestamp": time.Now().Format(time.RFC3339),
	}}
}

// AgentMessage builds an agent_message event. Classification distinguishes
// intermediate thoughts from conclusions.
func AgentMessage(agent, message, classification string) Event {
	return Event{Type: TypeAgentMessage, Data: map[string]any{
		"agent":        agent,
		"message":      message,
		"message_type": classification,
		"timestamp":    time.Now().UnixMilli(),
	}}
}

// Decision builds a decision event from the structured result payload.
func Decision(payload map[string]any) Event {
	return Event{Type: TypeDecision, Data: payload}
}

// Error builds an error event.
func Error(message, code string) Event {
	return Event{Type: TypeError, Data: map[string]any{
		"message":   message,
		"code":      code,
		"timestamp": time.Now().Format(time.RFC3339),
	}}
}

// AuthorizationRequest builds an authorization_request event telling the
// client a user must complete an external authorization.
func AuthorizationRequest(service, authURL, oauthSessionID string) Event {
	return Event{Type: TypeAuthRequest, Data: map[string]any{
		"service":          service,
		"auth_url":         authURL,
		"oauth_session_id": oauthSessionID,
		"timestamp":        time.Now().Format(time.RFC3339),
	}}
}

// Ping builds a liveness heartbeat event.
func Ping() Event {
	return Event{Type: TypePing, Data: map[string]any{}}
}

// Connected builds the greeting sent when a subscriber first attaches.
func Connected(sessionID string) Event {
	return Event{Type: TypeConnected, Data: map[string]any{
		"session_id": sessionID,
	}}
}
