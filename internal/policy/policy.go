// Package policy maps risk assessments to response actions. Decisions are
// evaluated with OPA Rego so the thresholds and bands can be replaced without
// a rebuild; a plain Go fallback covers evaluation failures.
package policy

import (
	eventdomain "sessionguard/internal/event/domain"
)

// Action is the response chosen for a scored security event.
type Action string

const (
	ActionLog       Action = "log"
	ActionAlert     Action = "alert"
	ActionTerminate Action = "terminate"
)

// Default risk bands. Scores at or above Terminate end the session; scores at
// or above Alert notify the user; everything below is logged only.
const (
	DefaultTerminateThreshold = 9.0
	DefaultAlertThreshold     = 8.0
)

// Thresholds holds the score bands for the response decision.
type Thresholds struct {
	Terminate float64
	Alert     float64
}

// DefaultThresholds returns the standard 9.0/8.0 bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Terminate: DefaultTerminateThreshold, Alert: DefaultAlertThreshold}
}

// Input carries everything the policy sees when choosing an action.
type Input struct {
	UserID    string
	SessionID string
	Kind      eventdomain.Kind
	Score     float64
	Tags      []string
}

// Decision is the outcome of evaluating one scored event.
type Decision struct {
	Action    Action
	Score     float64
	Tags      []string
	AlertSent bool
}

// fallbackAction applies the threshold bands directly, bypassing Rego.
func fallbackAction(score float64, t Thresholds) Action {
	switch {
	case score >= t.Terminate:
		return ActionTerminate
	case score >= t.Alert:
		return ActionAlert
	default:
		return ActionLog
	}
}
