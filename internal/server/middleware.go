package server

import (
	"context"
	"net"
	"net/http"
	"strings"

	"sessionguard/internal/anomaly"
)

type ctxKey int

const (
	ctxSessionID ctxKey = iota
	ctxUserID
	ctxOrgID
)

func sessionIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxSessionID).(string)
	return v
}

func userIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}

func orgIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxOrgID).(string)
	return v
}

// authenticate validates the bearer token and stores the caller's session,
// user, and org in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sessionID, userID, orgID, err := s.verifier.ValidateAccess(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := r.Context()
		ctx = context.WithValue(ctx, ctxSessionID, sessionID)
		ctx = context.WithValue(ctx, ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxOrgID, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// touchSession records activity on the caller's session and compares the
// request against the session baseline. When the session has just been
// terminated, the caller gets a 401 with a distinct error so the client knows
// to re-authenticate; this middleware never rejects on store errors.
func (s *Server) touchSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := sessionIDFrom(ctx)
		if sessionID != "" {
			terminated, err := s.lifecycle.Touch(ctx, sessionID, anomaly.Observation{
				IPAddress: remoteAddr(r),
				UserAgent: r.UserAgent(),
			})
			if err == nil && terminated {
				writeError(w, http.StatusUnauthorized, "session terminated")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// remoteAddr returns the client address without the port. middleware.RealIP
// has already folded X-Forwarded-For into RemoteAddr.
func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
