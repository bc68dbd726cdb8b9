// Package alert delivers security alerts to the external notification
// service. Delivery is best-effort: a failed send is reported as false, never
// as an error that could leak into request handling.
package alert

import (
	"context"

	eventdomain "sessionguard/internal/event/domain"
)

// Alerter sends one alert about a security event for a user. Returns true
// only when the alert was accepted by the delivery provider.
type Alerter interface {
	Send(ctx context.Context, userID string, kind eventdomain.Kind, details map[string]any) bool
}

// Noop discards alerts. Used when no delivery endpoint is configured.
type Noop struct{}

func (Noop) Send(context.Context, string, eventdomain.Kind, map[string]any) bool { return false }
