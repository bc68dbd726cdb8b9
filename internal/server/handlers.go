package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	sessiondomain "sessionguard/internal/session/domain"
	"sessionguard/internal/session/service"
)

// sessionView is the external shape of a session record. The token hash never
// leaves the service.
type sessionView struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	OrgID          string     `json:"org_id"`
	IPAddress      string     `json:"ip_address"`
	UserAgent      string     `json:"user_agent"`
	DeviceType     string     `json:"device_type"`
	Browser        string     `json:"browser"`
	OS             string     `json:"os"`
	Country        string     `json:"country,omitempty"`
	Region         string     `json:"region,omitempty"`
	City           string     `json:"city,omitempty"`
	Active         bool       `json:"active"`
	RememberMe     bool       `json:"remember_me"`
	Current        bool       `json:"current"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toView(rec *sessiondomain.Record, currentID string) sessionView {
	return sessionView{
		ID:             rec.ID,
		UserID:         rec.UserID,
		OrgID:          rec.OrgID,
		IPAddress:      rec.IPAddress,
		UserAgent:      rec.UserAgent,
		DeviceType:     rec.DeviceType,
		Browser:        rec.Browser,
		OS:             rec.OS,
		Country:        rec.Country,
		Region:         rec.Region,
		City:           rec.City,
		Active:         rec.Active,
		RememberMe:     rec.RememberMe,
		Current:        rec.ID == currentID,
		ExpiresAt:      rec.ExpiresAt,
		LastActivityAt: rec.LastActivityAt,
		EndedAt:        rec.EndedAt,
		CreatedAt:      rec.CreatedAt,
	}
}

func toViews(recs []*sessiondomain.Record, currentID string) []sessionView {
	out := make([]sessionView, len(recs))
	for i, rec := range recs {
		out[i] = toView(rec, currentID)
	}
	return out
}

type createSessionRequest struct {
	Token      string `json:"token"`
	UserID     string `json:"user_id"`
	OrgID      string `json:"org_id"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
	RememberMe bool   `json:"remember_me"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.lifecycle.Create(r.Context(), service.CreateParams{
		Token:      req.Token,
		UserID:     req.UserID,
		OrgID:      req.OrgID,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toView(rec, rec.ID))
}

type terminateRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleInternalTerminate(w http.ResponseWriter, r *http.Request) {
	var req terminateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "logout"
	}
	err := s.lifecycle.Terminate(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "terminate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}

type extendRequest struct {
	Hours int `json:"hours"`
}

func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.lifecycle.Extend(r.Context(), chi.URLParam(r, "id"), req.Hours)
	switch {
	case errors.Is(err, service.ErrInvalidExtension):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrSessionInactive):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "extend failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "extended"})
	}
}

func (s *Server) handleExtendRememberMe(w http.ResponseWriter, r *http.Request) {
	err := s.lifecycle.ExtendForRememberMe(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrNotRememberMe):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionInactive):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "extend failed")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "extended"})
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard.Summarize(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := s.lifecycle.ListForUser(ctx, userIDFrom(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": toViews(list, sessionIDFrom(ctx))})
}

func (s *Server) handleTerminateOthers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.lifecycle.TerminateAllOthers(ctx, userIDFrom(ctx), sessionIDFrom(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "terminate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"terminated": n})
}

func (s *Server) handleTerminateOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	list, err := s.lifecycle.ListForUser(ctx, userIDFrom(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "terminate failed")
		return
	}
	owned := false
	for _, rec := range list {
		if rec.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := s.lifecycle.Terminate(ctx, id, "logout"); err != nil {
		writeError(w, http.StatusInternalServerError, "terminate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}

func (s *Server) handleListOrgSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var userID *string
	if u := q.Get("user_id"); u != "" {
		userID = &u
	}
	limit := parseInt32(q.Get("limit"), 0)
	offset := parseInt32(q.Get("offset"), 0)
	list, err := s.lifecycle.ListForOrg(ctx, orgIDFrom(ctx), userID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": toViews(list, sessionIDFrom(ctx))})
}

// handleTerminateUser ends every active session of the target user. Operator
// action, distinct from self-service terminate-others.
func (s *Server) handleTerminateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	targetUser := chi.URLParam(r, "id")
	keepID := ""
	if targetUser == userIDFrom(ctx) {
		// An operator acting on their own account keeps their current session.
		keepID = sessionIDFrom(ctx)
	}
	n, err := s.lifecycle.TerminateAllOthers(ctx, targetUser, keepID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "terminate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"terminated": n})
}

func parseInt32(raw string, fallback int32) int32 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(n)
}
