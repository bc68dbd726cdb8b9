// Package anomaly compares a session's recorded baseline against observed
// request characteristics and flags deviations. Tags are heuristic signals for
// the risk scorer, not proof of compromise.
package anomaly

import (
	"context"
	"log"
	"time"

	"sessionguard/internal/geo"
	sessiondomain "sessionguard/internal/session/domain"
)

// Tag identifies one detected deviation.
type Tag string

const (
	TagNetworkChanged     Tag = "network_changed"
	TagDeviceChanged      Tag = "device_changed"
	TagGeographicAnomaly  Tag = "geographic_anomaly"
	TagConcurrentSessions Tag = "concurrent_session_anomaly"
	TagTimingAnomaly      Tag = "timing_anomaly"
)

// Defaults for the concurrent-session and timing heuristics.
const (
	DefaultMaxActiveSessions = 5

	// distinctLocationLimit flags a user whose active sessions span this many
	// distinct non-empty locations.
	distinctLocationLimit = 3
	// distinctCountryLimit flags "impossible travel": active sessions in more
	// countries than one person plausibly occupies at once.
	distinctCountryLimit = 2

	// timingHistory is how many past logins feed the timing heuristic;
	// timingMinLogins is the cold-start floor below which it never fires.
	timingHistory   = 10
	timingMinLogins = 3
	// timingSlackHours is how far outside the user's usual login-hour range a
	// login may fall before it is flagged.
	timingSlackHours = 6
)

// ActiveSessions is the minimal session store view the detector needs.
type ActiveSessions interface {
	ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Record, error)
}

// LoginHistory is the minimal event store view the detector needs.
type LoginHistory interface {
	ListLoginTimesByUser(ctx context.Context, userID string, limit int32) ([]time.Time, error)
}

// Observation carries the request characteristics compared against a baseline.
type Observation struct {
	IPAddress string
	UserAgent string
}

// Detector flags deviations between session baselines and observed requests.
type Detector struct {
	sessions  ActiveSessions
	logins    LoginHistory
	resolver  geo.Resolver
	maxActive int
}

// NewDetector returns a Detector. resolver may be nil; then geographic
// comparison always fails closed for changed networks. maxActive <= 0 uses
// the default of 5.
func NewDetector(sessions ActiveSessions, logins LoginHistory, resolver geo.Resolver, maxActive int) *Detector {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveSessions
	}
	return &Detector{
		sessions:  sessions,
		logins:    logins,
		resolver:  resolver,
		maxActive: maxActive,
	}
}

// Compare checks the observed network address and device descriptor against
// the record's baseline. Empty observed fields mean "not presented" and are
// not compared. No tags means the request matches its baseline.
func (d *Detector) Compare(ctx context.Context, rec *sessiondomain.Record, obs Observation) []Tag {
	var tags []Tag
	networkChanged := obs.IPAddress != "" && obs.IPAddress != rec.IPAddress
	if networkChanged {
		tags = append(tags, TagNetworkChanged)
	}
	if obs.UserAgent != "" && obs.UserAgent != rec.UserAgent {
		tags = append(tags, TagDeviceChanged)
	}
	if networkChanged && d.geographicAnomaly(ctx, rec, obs.IPAddress) {
		tags = append(tags, TagGeographicAnomaly)
	}
	return tags
}

// geographicAnomaly compares the stored baseline location with the observed
// address's resolution. An unresolvable location on either side counts as
// anomalous; lookup failures never downgrade the comparison.
func (d *Detector) geographicAnomaly(ctx context.Context, rec *sessiondomain.Record, observedAddr string) bool {
	baseline := geo.Location{Country: rec.Country, Region: rec.Region, City: rec.City}
	observed := geo.ResolveOrUnknown(ctx, d.resolver, observedAddr)
	return !baseline.SameArea(observed)
}

// ConcurrentSessionAnomaly reports whether the user's active session
// population looks abnormal: too many sessions, too many distinct locations,
// or sessions spread across more than two countries at once.
func (d *Detector) ConcurrentSessionAnomaly(ctx context.Context, userID string) bool {
	if d.sessions == nil {
		return false
	}
	active, err := d.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		log.Printf("anomaly: active session lookup failed for user %s: %v", userID, err)
		return false
	}
	if len(active) > d.maxActive {
		return true
	}
	locations := make(map[string]struct{})
	countries := make(map[string]struct{})
	for _, rec := range active {
		if key := rec.LocationKey(); key != "" {
			locations[key] = struct{}{}
		}
		if rec.Country != "" {
			countries[rec.Country] = struct{}{}
		}
	}
	if len(locations) >= distinctLocationLimit {
		return true
	}
	return len(countries) > distinctCountryLimit
}

// TimingAnomaly reports whether a login at the given time falls far outside
// the hour-of-day range of the user's recent logins. Never fires with fewer
// than three historical logins, so new users are not flagged on their first
// sessions.
func (d *Detector) TimingAnomaly(ctx context.Context, userID string, at time.Time) bool {
	if d.logins == nil {
		return false
	}
	history, err := d.logins.ListLoginTimesByUser(ctx, userID, timingHistory)
	if err != nil {
		log.Printf("anomaly: login history lookup failed for user %s: %v", userID, err)
		return false
	}
	if len(history) < timingMinLogins {
		return false
	}
	minHour, maxHour := 24, -1
	for _, t := range history {
		h := t.UTC().Hour()
		if h < minHour {
			minHour = h
		}
		if h > maxHour {
			maxHour = h
		}
	}
	hour := at.UTC().Hour()
	return hour > maxHour+timingSlackHours || hour < minHour-timingSlackHours
}
