// Package risk scores how likely an observed deviation reflects a real attack.
// The default scorer is a deterministic weighted sum so every score is
// reproducible and explainable; it hides behind the Scorer interface so a
// learned model can replace it without touching callers.
package risk

import (
	"context"
	"log"
	"time"

	eventdomain "sessionguard/internal/event/domain"
)

// AddressHistory is the minimal event store view the default scorer needs.
type AddressHistory interface {
	CountDistinctAddressesSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// MaxScore bounds every assessment; scores are clamped to [0, MaxScore].
const MaxScore = 10.0

// Input carries the signals a scorer may consume.
type Input struct {
	Kind           eventdomain.Kind
	UserID         string
	NetworkChanged bool
	DeviceChanged  bool
}

// Scorer computes a bounded [0,10] risk score for the given input.
type Scorer interface {
	Score(ctx context.Context, in Input) float64
}

// Base scores per event kind.
const (
	baseUnknown = 3.0

	bonusNetworkChanged = 2.0
	bonusDeviceChanged  = 1.5
	bonusManyAddresses  = 1.0

	// manyAddressThreshold is the distinct-address count above which the
	// trailing-24h bonus applies.
	manyAddressThreshold = 3
	addressWindow        = 24 * time.Hour
)

var baseScores = map[eventdomain.Kind]float64{
	eventdomain.KindLoginSuccess:           1.0,
	eventdomain.KindLoginFailed:            3.0,
	eventdomain.KindSuspiciousActivity:     6.0,
	eventdomain.KindIPAddressChanged:       5.0,
	eventdomain.KindUserAgentChanged:       4.0,
	eventdomain.KindSessionHijackAttempt:   9.5,
	eventdomain.KindConcurrentSessionLimit: 7.0,
}

// LinearScorer is the default deterministic scorer: a base score per event
// kind plus fixed bonuses for changed network, changed device, and a user
// spraying requests from many addresses in the trailing 24 hours.
type LinearScorer struct {
	events AddressHistory
	now    func() time.Time
}

// NewLinearScorer returns the default scorer. events may be nil; then the
// distinct-address bonus never applies.
func NewLinearScorer(events AddressHistory) *LinearScorer {
	return &LinearScorer{events: events, now: time.Now}
}

// Score computes the weighted sum for in, clamped to [0,10]. The address
// bonus lookup is best-effort: a failing event store skips the bonus rather
// than failing the request.
func (s *LinearScorer) Score(ctx context.Context, in Input) float64 {
	score, ok := baseScores[in.Kind]
	if !ok {
		score = baseUnknown
	}
	if in.NetworkChanged {
		score += bonusNetworkChanged
	}
	if in.DeviceChanged {
		score += bonusDeviceChanged
	}
	if s.manyRecentAddresses(ctx, in.UserID) {
		score += bonusManyAddresses
	}
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s *LinearScorer) manyRecentAddresses(ctx context.Context, userID string) bool {
	if s.events == nil || userID == "" {
		return false
	}
	since := s.now().UTC().Add(-addressWindow)
	n, err := s.events.CountDistinctAddressesSince(ctx, userID, since)
	if err != nil {
		log.Printf("risk: distinct address lookup failed for user %s: %v", userID, err)
		return false
	}
	return n > manyAddressThreshold
}
