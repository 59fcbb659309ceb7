package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/michael/vc-council/internal/mcp"
	"github.com/michael/vc-council/internal/types"
)

// AnalysisResponse is returned from POST /api/analyze.
type AnalysisResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// handleAnalyze starts a new investment analysis.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow(s.extractClientID(r)) {
		s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		return
	}

	var input types.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := input.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid company data: "+err.Error())
		return
	}

	sessionID := s.coordinator.Start(input)

	s.jsonResponse(w, http.StatusAccepted, AnalysisResponse{
		Status:    "started",
		SessionID: sessionID,
		Message:   fmt.Sprintf("Analysis started for %s. Connect to /api/sse/%s for real-time updates.", input.CompanyName, sessionID),
	})
}

// handleAnalysisStatus returns the session snapshot for status polling.
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	snapshot, ok := s.coordinator.GetResult(sessionID)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("session %s not found", sessionID))
		return
	}
	s.jsonResponse(w, http.StatusOK, snapshot)
}

// OAuthInitiateResponse is returned from POST /api/oauth/initiate/{service}.
type OAuthInitiateResponse struct {
	OAuthSessionID string `json:"oauth_session_id"`
	AuthURL        string `json:"auth_url"`
	Status         string `json:"status"`
}

// handleOAuthInitiate starts (or reuses) an authorization session for a
// service so the user can authenticate ahead of the decision step.
func (s *Server) handleOAuthInitiate(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "authorization broker not configured")
		return
	}

	service := r.PathValue("service")
	sess, err := s.broker.Initiate(r.Context(), service)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "failed to initiate authorization: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, OAuthInitiateResponse{
		OAuthSessionID: sess.ID,
		AuthURL:        sess.URL,
		Status:         string(sess.Status),
	})
}

// OAuthStatusResponse is returned from GET /api/oauth/status/{service}.
type OAuthStatusResponse struct {
	OAuthSessionID string `json:"oauth_session_id"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
}

// handleOAuthStatus polls the authorization state for a service. Clients
// poll this after opening the auth URL in a popup.
func (s *Server) handleOAuthStatus(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "authorization broker not configured")
		return
	}

	service := r.PathValue("service")
	sess, done, err := s.broker.Poll(r.Context(), service)
	switch {
	case errors.Is(err, mcp.ErrAuthorizationDenied):
		s.jsonResponse(w, http.StatusOK, OAuthStatusResponse{
			Status:  "denied",
			Message: "Authorization was denied.",
		})
	case err != nil:
		s.errorResponse(w, http.StatusNotFound, err.Error())
	case done:
		s.jsonResponse(w, http.StatusOK, OAuthStatusResponse{
			OAuthSessionID: sess.ID,
			Status:         "completed",
			Message:        "Authorization completed successfully.",
		})
	default:
		s.jsonResponse(w, http.StatusOK, OAuthStatusResponse{
			OAuthSessionID: sess.ID,
			Status:         "pending",
			Message:        "Waiting for authentication...",
		})
	}
}
