// Package service implements the session lifecycle: creation, activity
// tracking with anomaly checks, extension, termination, and expiry sweeps.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"sessionguard/internal/anomaly"
	"sessionguard/internal/device"
	eventpkg "sessionguard/internal/event"
	eventdomain "sessionguard/internal/event/domain"
	"sessionguard/internal/geo"
	"sessionguard/internal/policy"
	"sessionguard/internal/risk"
	"sessionguard/internal/security"
	"sessionguard/internal/session/domain"
	"sessionguard/internal/session/repository"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionInactive  = errors.New("session is not active")
	ErrInvalidExtension = errors.New("extension hours must be positive")
	ErrNotRememberMe    = errors.New("session was not created with remember-me")
)

// Detector is the anomaly detection surface the service consumes.
type Detector interface {
	Compare(ctx context.Context, rec *domain.Record, obs anomaly.Observation) []anomaly.Tag
	ConcurrentSessionAnomaly(ctx context.Context, userID string) bool
	TimingAnomaly(ctx context.Context, userID string, at time.Time) bool
}

// Responder decides and delivers the response to a scored event.
type Responder interface {
	Respond(ctx context.Context, in policy.Input) policy.Decision
}

// Metrics receives lifecycle counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	SessionCreated(ctx context.Context)
	SessionTerminated(ctx context.Context, reason string)
	AnomalyDetected(ctx context.Context, tag string)
	SessionsSwept(ctx context.Context, count int64)
}

type nopMetrics struct{}

func (nopMetrics) SessionCreated(context.Context)            {}
func (nopMetrics) SessionTerminated(context.Context, string) {}
func (nopMetrics) AnomalyDetected(context.Context, string)   {}
func (nopMetrics) SessionsSwept(context.Context, int64)      {}

// Config carries the lifecycle tunables.
type Config struct {
	SessionTTL               time.Duration
	RememberMeExtensionHours int
}

// Deps carries the service's collaborators. Metrics may be nil.
type Deps struct {
	Sessions  repository.Repository
	Recorder  eventpkg.Recorder
	Detector  Detector
	Scorer    risk.Scorer
	Responder Responder
	Resolver  geo.Resolver
	Metrics   Metrics
}

// Service manages session records and drives the anomaly response pipeline.
type Service struct {
	sessions      repository.Repository
	recorder      eventpkg.Recorder
	detector      Detector
	scorer        risk.Scorer
	responder     Responder
	resolver      geo.Resolver
	metrics       Metrics
	ttl           time.Duration
	rememberMeHrs int
	now           func() time.Time
}

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultRememberHours = 720
)

// NewService wires a lifecycle service. Zero config values fall back to a 24h
// TTL and a 720h remember-me extension.
func NewService(deps Deps, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.RememberMeExtensionHours <= 0 {
		cfg.RememberMeExtensionHours = defaultRememberHours
	}
	m := deps.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &Service{
		sessions:      deps.Sessions,
		recorder:      deps.Recorder,
		detector:      deps.Detector,
		scorer:        deps.Scorer,
		responder:     deps.Responder,
		resolver:      deps.Resolver,
		metrics:       m,
		ttl:           cfg.SessionTTL,
		rememberMeHrs: cfg.RememberMeExtensionHours,
		now:           time.Now,
	}
}

// CreateParams carries everything needed to open a session.
type CreateParams struct {
	Token      string
	UserID     string
	OrgID      string
	IPAddress  string
	UserAgent  string
	RememberMe bool
}

// Create opens a new session: classifies the device, resolves the network
// location, persists the record, and runs the login through the anomaly
// pipeline. The raw token is hashed before it touches storage.
func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.Record, error) {
	now := s.now().UTC()
	profile := device.Classify(p.UserAgent)
	loc := geo.ResolveOrUnknown(ctx, s.resolver, p.IPAddress)

	expiry := now.Add(s.ttl)
	if p.RememberMe {
		expiry = now.Add(time.Duration(s.rememberMeHrs) * time.Hour)
	}

	tokenHash := ""
	if p.Token != "" {
		tokenHash = security.HashSessionToken(p.Token)
	}
	rec := &domain.Record{
		ID:             uuid.NewString(),
		TokenHash:      tokenHash,
		UserID:         p.UserID,
		OrgID:          p.OrgID,
		IPAddress:      p.IPAddress,
		UserAgent:      p.UserAgent,
		DeviceType:     profile.Type,
		Browser:        profile.Browser,
		OS:             profile.OS,
		Country:        loc.Country,
		Region:         loc.Region,
		City:           loc.City,
		Active:         true,
		RememberMe:     p.RememberMe,
		ExpiresAt:      expiry,
		LastActivityAt: &now,
		CreatedAt:      now,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.SessionCreated(ctx)
	s.record(ctx, rec, eventdomain.KindLoginSuccess, nil)

	if s.detector != nil {
		if s.detector.ConcurrentSessionAnomaly(ctx, p.UserID) {
			s.metrics.AnomalyDetected(ctx, string(anomaly.TagConcurrentSessions))
			tags := []string{string(anomaly.TagConcurrentSessions)}
			s.record(ctx, rec, eventdomain.KindConcurrentSessionLimit, map[string]any{"tags": tags})
			s.record(ctx, rec, eventdomain.KindSuspiciousActivity, map[string]any{"tags": tags})
			s.respond(ctx, rec, eventdomain.KindConcurrentSessionLimit, tags, false, false)
		}
		if s.detector.TimingAnomaly(ctx, p.UserID, now) {
			s.metrics.AnomalyDetected(ctx, string(anomaly.TagTimingAnomaly))
			s.record(ctx, rec, eventdomain.KindSuspiciousActivity, map[string]any{
				"tags": []string{string(anomaly.TagTimingAnomaly)},
			})
			s.respond(ctx, rec, eventdomain.KindSuspiciousActivity,
				[]string{string(anomaly.TagTimingAnomaly)}, false, false)
		}
	}
	return rec, nil
}

// Touch records activity on a session and compares the observed request
// against the session's baseline. Returns true when the session is no longer
// usable, whether it expired or the response policy ended it. A missing
// session is a soft no-op. The stored baseline is never rewritten from an
// observation; a changed network or device stays visible on every touch.
func (s *Service) Touch(ctx context.Context, sessionID string, obs anomaly.Observation) (terminated bool, err error) {
	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	now := s.now().UTC()
	if !rec.Active {
		return true, nil
	}
	if rec.Expired(now) {
		if err := s.terminate(ctx, rec, "expired"); err != nil {
			return true, err
		}
		return true, nil
	}

	var tags []anomaly.Tag
	if s.detector != nil {
		tags = s.detector.Compare(ctx, rec, obs)
	}
	if len(tags) == 0 {
		return false, s.sessions.UpdateLastActivity(ctx, rec.ID, now)
	}

	networkChanged := hasTag(tags, anomaly.TagNetworkChanged)
	deviceChanged := hasTag(tags, anomaly.TagDeviceChanged)
	geoAnomaly := hasTag(tags, anomaly.TagGeographicAnomaly)
	tagStrings := tagsToStrings(tags)
	for _, tag := range tagStrings {
		s.metrics.AnomalyDetected(ctx, tag)
	}

	observed := *rec
	observed.IPAddress = obs.IPAddress
	observed.UserAgent = obs.UserAgent
	if networkChanged {
		s.record(ctx, &observed, eventdomain.KindIPAddressChanged, map[string]any{
			"previous_ip": rec.IPAddress,
		})
	}
	if deviceChanged {
		s.record(ctx, &observed, eventdomain.KindUserAgentChanged, map[string]any{
			"previous_user_agent": rec.UserAgent,
			"device_fingerprint":  device.Fingerprint(device.Classify(obs.UserAgent), obs.UserAgent),
		})
	}

	kind := eventdomain.KindIPAddressChanged
	switch {
	case networkChanged && deviceChanged && geoAnomaly:
		kind = eventdomain.KindSessionHijackAttempt
		s.record(ctx, &observed, kind, map[string]any{"tags": tagStrings})
	case !networkChanged && deviceChanged:
		kind = eventdomain.KindUserAgentChanged
	}

	if s.respond(ctx, rec, kind, tagStrings, networkChanged, deviceChanged) {
		return true, nil
	}
	return false, s.sessions.UpdateLastActivity(ctx, rec.ID, now)
}

// Terminate ends the session with the given id. Returns ErrSessionNotFound
// for unknown ids; terminating an already ended session is a no-op.
func (s *Service) Terminate(ctx context.Context, sessionID, reason string) error {
	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrSessionNotFound
	}
	if !rec.Active {
		return nil
	}
	return s.terminate(ctx, rec, reason)
}

// TerminateAllOthers ends every other active session of the user, keeping
// only keepID. Returns how many sessions were ended.
func (s *Service) TerminateAllOthers(ctx context.Context, userID, keepID string) (int64, error) {
	now := s.now().UTC()
	n, err := s.sessions.TerminateAllExcept(ctx, userID, keepID, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.SessionTerminated(ctx, "terminate_others")
		s.recorder.Record(ctx, &eventdomain.Event{
			UserID:  userID,
			Kind:    eventdomain.KindSessionTerminated,
			Details: map[string]any{"reason": "terminate_others", "count": n},
		})
	}
	return n, nil
}

// Extend pushes the session's expiry forward by the given number of hours.
func (s *Service) Extend(ctx context.Context, sessionID string, hours int) error {
	if hours <= 0 {
		return ErrInvalidExtension
	}
	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrSessionNotFound
	}
	if !rec.Active {
		return ErrSessionInactive
	}
	if err := s.sessions.ExtendExpiry(ctx, rec.ID, hours); err != nil {
		return err
	}
	s.record(ctx, rec, eventdomain.KindSessionExtended, map[string]any{"extension_hours": hours})
	return nil
}

// ExtendForRememberMe applies the long remember-me extension. Only sessions
// opened with remember-me qualify.
func (s *Service) ExtendForRememberMe(ctx context.Context, sessionID string) error {
	rec, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrSessionNotFound
	}
	if !rec.RememberMe {
		return ErrNotRememberMe
	}
	if !rec.Active {
		return ErrSessionInactive
	}
	if err := s.sessions.ExtendExpiry(ctx, rec.ID, s.rememberMeHrs); err != nil {
		return err
	}
	s.record(ctx, rec, eventdomain.KindSessionExtended, map[string]any{
		"extension_hours": s.rememberMeHrs,
		"remember_me":     true,
	})
	return nil
}

// SweepExpired deactivates all expired sessions and returns the count.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := s.sessions.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("session: swept %d expired sessions", n)
	}
	s.metrics.SessionsSwept(ctx, n)
	return n, nil
}

// ListForUser returns the user's active sessions.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*domain.Record, error) {
	return s.sessions.ListActiveByUser(ctx, userID)
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListForOrg returns the org's sessions, optionally filtered by user, with
// pagination. Limits outside [1, 200] are clamped.
func (s *Service) ListForOrg(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessions.ListByOrg(ctx, orgID, userID, limit, offset)
}

// respond scores the event and enforces the policy decision. Returns true
// when the decision terminated the session.
func (s *Service) respond(ctx context.Context, rec *domain.Record, kind eventdomain.Kind, tags []string, networkChanged, deviceChanged bool) bool {
	if s.scorer == nil || s.responder == nil {
		return false
	}
	score := s.scorer.Score(ctx, risk.Input{
		Kind:           kind,
		UserID:         rec.UserID,
		NetworkChanged: networkChanged,
		DeviceChanged:  deviceChanged,
	})
	decision := s.responder.Respond(ctx, policy.Input{
		UserID:    rec.UserID,
		SessionID: rec.ID,
		Kind:      kind,
		Score:     score,
		Tags:      tags,
	})
	if decision.Action != policy.ActionTerminate {
		return false
	}
	// A terminate decision always leaves a hijack event in the log, even when
	// the triggering event was of another kind.
	if kind != eventdomain.KindSessionHijackAttempt {
		s.record(ctx, rec, eventdomain.KindSessionHijackAttempt, map[string]any{
			"tags":  tags,
			"score": score,
		})
	}
	if err := s.terminate(ctx, rec, "hijack_suspected"); err != nil {
		log.Printf("session: policy termination failed for session %s: %v", rec.ID, err)
	}
	return true
}

func (s *Service) terminate(ctx context.Context, rec *domain.Record, reason string) error {
	now := s.now().UTC()
	if err := s.sessions.Terminate(ctx, rec.ID, now); err != nil {
		return err
	}
	s.metrics.SessionTerminated(ctx, reason)
	s.record(ctx, rec, eventdomain.KindSessionTerminated, map[string]any{"reason": reason})
	return nil
}

func (s *Service) record(ctx context.Context, rec *domain.Record, kind eventdomain.Kind, details map[string]any) {
	if s.recorder == nil {
		return
	}
	id := rec.ID
	s.recorder.Record(ctx, &eventdomain.Event{
		UserID:    rec.UserID,
		OrgID:     rec.OrgID,
		SessionID: &id,
		Kind:      kind,
		IPAddress: rec.IPAddress,
		UserAgent: rec.UserAgent,
		Details:   details,
	})
}

func hasTag(tags []anomaly.Tag, want anomaly.Tag) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func tagsToStrings(tags []anomaly.Tag) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}
