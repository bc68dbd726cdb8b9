package policy

import (
	"sync"
	"time"
)

// Defaults for per-user alert throttling.
const (
	DefaultAlertWindow       = time.Hour
	DefaultMaxAlertsInWindow = 3
)

// alertLimiter throttles alert delivery per user: at most max deliveries
// within any trailing window. It never changes the decided action, only
// whether the notification is actually sent.
type alertLimiter struct {
	mu     sync.Mutex
	sent   map[string][]time.Time
	window time.Duration
	max    int
	now    func() time.Time
}

func newAlertLimiter(window time.Duration, max int) *alertLimiter {
	if window <= 0 {
		window = DefaultAlertWindow
	}
	if max <= 0 {
		max = DefaultMaxAlertsInWindow
	}
	return &alertLimiter{
		sent:   make(map[string][]time.Time),
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// allow reports whether another alert may be sent to the user right now, and
// records the delivery when permitted. Deliveries older than the window no
// longer count against the user.
func (l *alertLimiter) allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	recent := l.sent[userID][:0]
	for _, at := range l.sent[userID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	if len(recent) >= l.max {
		l.sent[userID] = recent
		return false
	}
	l.sent[userID] = append(recent, now)
	return true
}
