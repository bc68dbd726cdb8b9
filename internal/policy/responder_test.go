package policy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	eventdomain "sessionguard/internal/event/domain"
)

type captureAlerter struct {
	mu    sync.Mutex
	sent  int
	ok    bool
	users []string
}

func (c *captureAlerter) Send(ctx context.Context, userID string, kind eventdomain.Kind, details map[string]any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
	c.users = append(c.users, userID)
	return c.ok
}

type failingEvaluator struct{}

func (failingEvaluator) Decide(context.Context, Input, Thresholds) (Action, error) {
	return ActionLog, errors.New("engine down")
}

func TestResponder_Bands(t *testing.T) {
	alerter := &captureAlerter{ok: true}
	r := NewResponder(NewOPAEvaluator(), alerter, ResponderOptions{})
	ctx := context.Background()

	cases := []struct {
		score     float64
		want      Action
		wantAlert bool
	}{
		{3.0, ActionLog, false},
		{8.0, ActionAlert, true},
		{8.5, ActionAlert, true},
		{9.0, ActionTerminate, true},
	}
	for _, tc := range cases {
		d := r.Respond(ctx, Input{
			UserID: "user-1",
			Kind:   eventdomain.KindSuspiciousActivity,
			Score:  tc.score,
		})
		if d.Action != tc.want {
			t.Errorf("score %v: action = %s, want %s", tc.score, d.Action, tc.want)
		}
		if d.AlertSent != tc.wantAlert {
			t.Errorf("score %v: AlertSent = %v, want %v", tc.score, d.AlertSent, tc.wantAlert)
		}
	}
}

func TestResponder_AlertRateLimit(t *testing.T) {
	alerter := &captureAlerter{ok: true}
	r := NewResponder(nil, alerter, ResponderOptions{
		AlertWindow:       time.Hour,
		MaxAlertsInWindow: 3,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := r.Respond(ctx, Input{
			UserID: "user-1",
			Kind:   eventdomain.KindSuspiciousActivity,
			Score:  8.5,
		})
		if d.Action != ActionAlert {
			t.Fatalf("call %d: action = %s, want alert", i, d.Action)
		}
		wantSent := i < 3
		if d.AlertSent != wantSent {
			t.Errorf("call %d: AlertSent = %v, want %v", i, d.AlertSent, wantSent)
		}
	}
	if alerter.sent != 3 {
		t.Errorf("delivered %d alerts, want 3", alerter.sent)
	}
}

// The cap applies to any trailing window, not to a bucket that refills
// mid-window: after three deliveries, a fourth attempt 21 minutes later is
// still inside the 60-minute window and must be suppressed.
func TestAlertLimiter_RollingWindow(t *testing.T) {
	l := newAlertLimiter(time.Hour, 3)
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		now = base.Add(time.Duration(i) * 10 * time.Minute)
		if !l.allow("user-1") {
			t.Fatalf("delivery %d should be allowed", i)
		}
	}

	now = base.Add(21 * time.Minute)
	if l.allow("user-1") {
		t.Error("4th delivery 21m into the window should be suppressed")
	}
	now = base.Add(59 * time.Minute)
	if l.allow("user-1") {
		t.Error("4th delivery 59m into the window should be suppressed")
	}

	// The first delivery ages out of the trailing hour.
	now = base.Add(65 * time.Minute)
	if !l.allow("user-1") {
		t.Error("delivery should be allowed once the oldest ages out")
	}
	if l.allow("user-1") {
		t.Error("window is full again after the replacement delivery")
	}
}

func TestResponder_RateLimitIsPerUser(t *testing.T) {
	alerter := &captureAlerter{ok: true}
	r := NewResponder(nil, alerter, ResponderOptions{
		AlertWindow:       time.Hour,
		MaxAlertsInWindow: 1,
	})
	ctx := context.Background()

	first := r.Respond(ctx, Input{UserID: "user-1", Score: 8.5})
	second := r.Respond(ctx, Input{UserID: "user-2", Score: 8.5})
	if !first.AlertSent || !second.AlertSent {
		t.Error("independent users should each get their first alert")
	}
}

func TestResponder_EvaluatorFailureFallsBack(t *testing.T) {
	alerter := &captureAlerter{ok: true}
	r := NewResponder(failingEvaluator{}, alerter, ResponderOptions{})
	d := r.Respond(context.Background(), Input{UserID: "user-1", Score: 9.5})
	if d.Action != ActionTerminate {
		t.Errorf("fallback action = %s, want terminate", d.Action)
	}
}

func TestResponder_FailedSendKeepsAction(t *testing.T) {
	alerter := &captureAlerter{ok: false}
	r := NewResponder(nil, alerter, ResponderOptions{})
	d := r.Respond(context.Background(), Input{UserID: "user-1", Score: 9.5})
	if d.Action != ActionTerminate {
		t.Errorf("action = %s, want terminate despite failed send", d.Action)
	}
	if d.AlertSent {
		t.Error("AlertSent should be false when delivery fails")
	}
}
