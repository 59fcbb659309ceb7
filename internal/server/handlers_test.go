package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael/vc-council/internal/events"
	"github.com/michael/vc-council/internal/mcp"
	"github.com/michael/vc-council/internal/orchestrator"
	"github.com/michael/vc-council/internal/types"
)

func newTestServer(t *testing.T, opts orchestrator.Options) *Server {
	t.Helper()
	srv, err := New(Config{Port: 0, Coordinator: orchestrator.New(opts)})
	require.NoError(t, err)
	return srv
}

func TestNewRequiresCoordinator(t *testing.T) {
	_, err := New(Config{Port: 0})
	assert.Error(t, err)
}

func TestHandleAnalyzeAcceptsValidInput(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})

	body := `{"company_name": "Acme", "website": "https://acme.example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleAnalyze(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp.Status)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Message, resp.SessionID)
}

func TestHandleAnalyzeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"company_name":`},
		{"missing company name", `{"website": "https://acme.example.com"}`},
		{"missing website", `{"company_name": "Acme"}`},
		{"invalid website", `{"company_name": "Acme", "website": "not-a-url"}`},
	}

	srv := newTestServer(t, orchestrator.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.handleAnalyze(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestHandleAnalysisStatus(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})
	coordinator := srv.coordinator

	id := coordinator.Start(types.CompanyInput{CompanyName: "Acme", Website: "https://acme.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/"+id, nil)
	req.SetPathValue("session_id", id)
	rec := httptest.NewRecorder()
	srv.handleAnalysisStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var session types.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, id, session.ID)
	assert.Equal(t, types.StatusAwaitingDependency, session.Status, "no runner wired in tests")
}

func TestHandleAnalysisStatusNotFound(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/missing", nil)
	req.SetPathValue("session_id", "missing")
	rec := httptest.NewRecorder()
	srv.handleAnalysisStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["active_sessions"])
}

func TestOAuthRoutesWithoutBroker(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/oauth/initiate/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec := httptest.NewRecorder()
	srv.handleOAuthInitiate(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/oauth/status/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec = httptest.NewRecorder()
	srv.handleOAuthStatus(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// staticProvider always returns the same pending session.
type staticProvider struct {
	state mcp.SessionState
}

func (p staticProvider) CreateSession(_ context.Context, service string) (mcp.OAuthSession, error) {
	return mcp.OAuthSession{Service: service, ID: "oauth-1", URL: "https://auth.example.com/1", Status: mcp.StatePending}, nil
}

func (p staticProvider) PollSession(context.Context, string, string, time.Duration) (mcp.SessionState, string, error) {
	return p.state, "", nil
}

func TestOAuthInitiateAndStatus(t *testing.T) {
	broker := mcp.NewBroker(staticProvider{state: mcp.StatePending})
	srv, err := New(Config{Port: 0, Coordinator: orchestrator.New(orchestrator.Options{}), Broker: broker})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/oauth/initiate/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec := httptest.NewRecorder()
	srv.handleOAuthInitiate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var initResp OAuthInitiateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	assert.Equal(t, "oauth-1", initResp.OAuthSessionID)
	assert.Equal(t, "https://auth.example.com/1", initResp.AuthURL)

	req = httptest.NewRequest(http.MethodGet, "/api/oauth/status/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec = httptest.NewRecorder()
	srv.handleOAuthStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var statusResp OAuthStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	assert.Equal(t, "pending", statusResp.Status)
}

func TestOAuthStatusDenied(t *testing.T) {
	broker := mcp.NewBroker(staticProvider{state: mcp.StateDenied})
	srv, err := New(Config{Port: 0, Coordinator: orchestrator.New(orchestrator.Options{}), Broker: broker})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/oauth/initiate/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	srv.handleOAuthInitiate(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/oauth/status/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec := httptest.NewRecorder()
	srv.handleOAuthStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var statusResp OAuthStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusResp))
	assert.Equal(t, "denied", statusResp.Status)
}

func TestOAuthStatusWithoutSession(t *testing.T) {
	broker := mcp.NewBroker(staticProvider{state: mcp.StatePending})
	srv, err := New(Config{Port: 0, Coordinator: orchestrator.New(orchestrator.Options{}), Broker: broker})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/oauth/status/gcalendar", nil)
	req.SetPathValue("service", "gcalendar")
	rec := httptest.NewRecorder()
	srv.handleOAuthStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSSEStreamsEvents(t *testing.T) {
	srv := newTestServer(t, orchestrator.Options{})
	bus := srv.coordinator.Bus()

	// Path values come from mux patterns, so exercise the handler through
	// a mux rather than calling it directly.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sse/{session_id}", srv.handleSSE)
	httpSrv := httptest.NewServer(mux)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/sse/s1", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() events.Event {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				var ev events.Event
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
				return ev
			}
		}
	}

	// The greeting arrives first.
	greeting := readEvent()
	assert.Equal(t, events.TypeConnected, greeting.Type)
	assert.Equal(t, "s1", greeting.Data["session_id"])

	// Wait for the subscription before publishing.
	require.Eventually(t, func() bool { return bus.SubscriberCount("s1") == 1 },
		2*time.Second, 10*time.Millisecond)

	bus.Publish("s1", events.PhaseChange("market"))
	ev := readEvent()
	assert.Equal(t, events.TypePhaseChange, ev.Type)
	assert.Equal(t, "market", ev.Data["phase"])

	// Producer-side close ends the stream.
	bus.Close("s1")
	_, err = reader.ReadString('\n')
	assert.Error(t, err, "stream ends after the producer closes the session")
}
