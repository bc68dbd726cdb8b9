package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	eventdomain "sessionguard/internal/event/domain"
)

type fixedAddressHistory struct {
	distinct int64
	err      error
}

func (f *fixedAddressHistory) CountDistinctAddressesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return f.distinct, f.err
}

func TestLinearScorer_BaseScores(t *testing.T) {
	s := NewLinearScorer(nil)
	ctx := context.Background()

	testCases := []struct {
		kind eventdomain.Kind
		want float64
	}{
		{eventdomain.KindLoginSuccess, 1.0},
		{eventdomain.KindLoginFailed, 3.0},
		{eventdomain.KindSuspiciousActivity, 6.0},
		{eventdomain.KindIPAddressChanged, 5.0},
		{eventdomain.KindUserAgentChanged, 4.0},
		{eventdomain.KindSessionHijackAttempt, 9.5},
		{eventdomain.KindConcurrentSessionLimit, 7.0},
		{eventdomain.Kind("something_new"), 3.0},
	}
	for _, tc := range testCases {
		got := s.Score(ctx, Input{Kind: tc.kind, UserID: "u"})
		if got != tc.want {
			t.Errorf("Score(%s) = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestLinearScorer_Bonuses(t *testing.T) {
	s := NewLinearScorer(nil)
	ctx := context.Background()
	in := Input{Kind: eventdomain.KindIPAddressChanged, UserID: "u"}

	base := s.Score(ctx, in)

	in.NetworkChanged = true
	withNet := s.Score(ctx, in)
	if withNet != base+2.0 {
		t.Errorf("network bonus: got %v, want %v", withNet, base+2.0)
	}

	in.DeviceChanged = true
	withBoth := s.Score(ctx, in)
	if withBoth != base+3.5 {
		t.Errorf("network+device bonus: got %v, want %v", withBoth, base+3.5)
	}
}

func TestLinearScorer_DistinctAddressBonus(t *testing.T) {
	ctx := context.Background()
	in := Input{Kind: eventdomain.KindLoginSuccess, UserID: "u"}

	few := NewLinearScorer(&fixedAddressHistory{distinct: 3})
	if got := few.Score(ctx, in); got != 1.0 {
		t.Errorf("3 addresses should not add bonus, got %v", got)
	}

	many := NewLinearScorer(&fixedAddressHistory{distinct: 4})
	if got := many.Score(ctx, in); got != 2.0 {
		t.Errorf("4 addresses should add 1.0 bonus, got %v", got)
	}
}

func TestLinearScorer_HistoryFailureSkipsBonus(t *testing.T) {
	s := NewLinearScorer(&fixedAddressHistory{err: errors.New("db down")})
	got := s.Score(context.Background(), Input{Kind: eventdomain.KindLoginSuccess, UserID: "u"})
	if got != 1.0 {
		t.Errorf("failed lookup should skip bonus, got %v", got)
	}
}

func TestLinearScorer_ClampedToMax(t *testing.T) {
	s := NewLinearScorer(&fixedAddressHistory{distinct: 10})
	got := s.Score(context.Background(), Input{
		Kind:           eventdomain.KindSessionHijackAttempt,
		UserID:         "u",
		NetworkChanged: true,
		DeviceChanged:  true,
	})
	if got != MaxScore {
		t.Errorf("score = %v, want clamp at %v", got, MaxScore)
	}
}

// Turning any boolean input on never decreases the score.
func TestLinearScorer_MonotonicInBooleans(t *testing.T) {
	ctx := context.Background()
	kinds := []eventdomain.Kind{
		eventdomain.KindLoginSuccess,
		eventdomain.KindSuspiciousActivity,
		eventdomain.KindSessionHijackAttempt,
	}
	for _, kind := range kinds {
		for _, distinct := range []int64{0, 10} {
			s := NewLinearScorer(&fixedAddressHistory{distinct: distinct})
			prev := -1.0
			for _, flags := range [][2]bool{{false, false}, {true, false}, {true, true}} {
				got := s.Score(ctx, Input{
					Kind:           kind,
					UserID:         "u",
					NetworkChanged: flags[0],
					DeviceChanged:  flags[1],
				})
				if got < prev {
					t.Errorf("kind %s: score decreased from %v to %v", kind, prev, got)
				}
				if got < 0 || got > MaxScore {
					t.Errorf("kind %s: score %v outside [0,10]", kind, got)
				}
				prev = got
			}
		}
	}
}
