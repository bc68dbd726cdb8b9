// Package dashboard assembles the per-user security summary shown to
// operators and end users.
package dashboard

import (
	"context"
	"time"

	eventdomain "sessionguard/internal/event/domain"
)

// Risk levels shown on the summary.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const (
	// recentWindow scopes the "recent" counters and the risk level.
	recentWindow = 24 * time.Hour
	// recentEventLimit caps the embedded security event list.
	recentEventLimit = 5

	// riskHighThreshold: more security-sensitive events than this inside the
	// window reads as high risk; any at all reads as medium.
	riskHighThreshold = 3
)

// EventStats is the event store view the summary needs.
type EventStats interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountSecurityByUser(ctx context.Context, userID string) (int64, error)
	CountByUserKindSince(ctx context.Context, userID string, kind eventdomain.Kind, since time.Time) (int64, error)
	CountSecuritySensitiveSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListRecentSecurityByUser(ctx context.Context, userID string, limit int32) ([]*eventdomain.Event, error)
}

// SessionStats is the session store view the summary needs.
type SessionStats interface {
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
}

// Summary is the per-user security overview.
type Summary struct {
	TotalEvents          int64                `json:"total_events"`
	SecurityEventCount   int64                `json:"security_event_count"`
	RecentLoginCount     int64                `json:"recent_login_count"`
	ActiveSessionCount   int64                `json:"active_session_count"`
	RiskLevel            string               `json:"risk_level"`
	RecentSecurityEvents []*eventdomain.Event `json:"recent_security_events"`
}

// Service builds dashboard summaries.
type Service struct {
	events   EventStats
	sessions SessionStats
	now      func() time.Time
}

// NewService returns a dashboard service over the given stores.
func NewService(events EventStats, sessions SessionStats) *Service {
	return &Service{events: events, sessions: sessions, now: time.Now}
}

// Summarize builds the user's security summary. The risk level reflects the
// volume of security-sensitive events in the trailing 24 hours.
func (s *Service) Summarize(ctx context.Context, userID string) (*Summary, error) {
	since := s.now().UTC().Add(-recentWindow)

	total, err := s.events.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	security, err := s.events.CountSecurityByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	logins, err := s.events.CountByUserKindSince(ctx, userID, eventdomain.KindLoginSuccess, since)
	if err != nil {
		return nil, err
	}
	active, err := s.sessions.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	recentSensitive, err := s.events.CountSecuritySensitiveSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	recent, err := s.events.ListRecentSecurityByUser(ctx, userID, recentEventLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*eventdomain.Event{}
	}

	return &Summary{
		TotalEvents:          total,
		SecurityEventCount:   security,
		RecentLoginCount:     logins,
		ActiveSessionCount:   active,
		RiskLevel:            riskLevel(recentSensitive),
		RecentSecurityEvents: recent,
	}, nil
}

func riskLevel(recentSensitive int64) string {
	switch {
	case recentSensitive > riskHighThreshold:
		return RiskHigh
	case recentSensitive > 0:
		return RiskMedium
	default:
		return RiskLow
	}
}
