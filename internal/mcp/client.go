// Package mcp handles the external-authorization handshake and the
// calendar side effect gated on it. Services such as Google Calendar are
// reached through managed deployments that require a per-service OAuth
// session completed by the end user in a browser.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SessionState is the provider-reported state of an OAuth session.
type SessionState string

const (
	StatePending   SessionState = "pending"
	StateCompleted SessionState = "completed"
	StateDenied    SessionState = "denied"
)

// OAuthSession tracks one external-authorization handshake.
type OAuthSession struct {
	Service string       `json:"service"`
	ID      string       `json:"oauth_session_id"`
	URL     string       `json:"auth_url"`
	Status  SessionState `json:"status"`
	Token   string       `json:"-"` // access token, populated on completion
}

// Provider is the external authorization backend.
type Provider interface {
	// CreateSession starts a new OAuth session for a service and returns
	// its id and the URL the end user must visit.
	CreateSession(ctx context.Context, service string) (OAuthSession, error)
	// PollSession checks whether a session has completed. "Still pending"
	// is a normal outcome, not an error. The call is bounded by timeout.
	PollSession(ctx context.Context, service, sessionID string, timeout time.Duration) (SessionState, string, error)
}

// Client is an HTTP client for the managed deployment platform's OAuth API.
type Client struct {
	baseURL       string
	apiKey        string
	deploymentIDs map[string]string // service name -> deployment id
	httpClient    *http.Client
}

// NewClient creates a provider client. deploymentIDs maps service names
// (e.g. "gcalendar") to platform deployment ids.
func NewClient(baseURL, apiKey string, deploymentIDs map[string]string) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		deploymentIDs: deploymentIDs,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

type createSessionRequest struct {
	ServerDeploymentID string `json:"server_deployment_id"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	AccessToken string `json:"access_token,omitempty"`
}

// CreateSession starts a new OAuth session for a service.
func (c *Client) CreateSession(ctx context.Context, service string) (OAuthSession, error) {
	deploymentID, ok := c.deploymentIDs[service]
	if !ok {
		return OAuthSession{}, fmt.Errorf("no deployment configured for service %q", service)
	}

	body, err := json.Marshal(createSessionRequest{ServerDeploymentID: deploymentID})
	if err != nil {
		return OAuthSession{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/oauth/sessions", bytes.NewReader(body), &resp); err != nil {
		return OAuthSession{}, fmt.Errorf("failed to create OAuth session for %s: %w", service, err)
	}

	return OAuthSession{
		Service: service,
		ID:      resp.ID,
		URL:     resp.URL,
		Status:  StatePending,
	}, nil
}

// PollSession checks the state of a session with a bounded provider call.
func (c *Client) PollSession(ctx context.Context, service, sessionID string, timeout time.Duration) (SessionState, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp sessionResponse
	if err := c.do(ctx, http.MethodGet, "/oauth/sessions/"+sessionID, nil, &resp); err != nil {
		// A timed-out or failed poll is inconclusive, not a denial.
		if ctx.Err() != nil {
			return StatePending, "", nil
		}
		return StatePending, "", fmt.Errorf("failed to poll OAuth session %s: %w", sessionID, err)
	}

	switch resp.Status {
	case "completed":
		return StateCompleted, resp.AccessToken, nil
	case "denied", "failed":
		return StateDenied, "", nil
	default:
		return StatePending, "", nil
	}
}

// do performs one JSON request against the platform API.
func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
