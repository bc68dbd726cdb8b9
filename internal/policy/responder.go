package policy

import (
	"context"
	"log"
	"time"

	"sessionguard/internal/alert"
)

// Responder turns a scored security event into a response decision and
// delivers the alert when one is due. Session termination itself is carried
// out by the caller; the responder only decides.
type Responder struct {
	evaluator  Evaluator
	alerter    alert.Alerter
	limiter    *alertLimiter
	thresholds Thresholds
}

// ResponderOptions configures a Responder. Zero values fall back to the
// standard bands and throttle.
type ResponderOptions struct {
	Thresholds        Thresholds
	AlertWindow       time.Duration
	MaxAlertsInWindow int
}

// NewResponder wires an evaluator and an alert sender into a responder.
// evaluator may be nil; then the threshold bands apply directly.
func NewResponder(evaluator Evaluator, alerter alert.Alerter, opts ResponderOptions) *Responder {
	t := opts.Thresholds
	if t.Terminate == 0 && t.Alert == 0 {
		t = DefaultThresholds()
	}
	if alerter == nil {
		alerter = alert.Noop{}
	}
	return &Responder{
		evaluator:  evaluator,
		alerter:    alerter,
		limiter:    newAlertLimiter(opts.AlertWindow, opts.MaxAlertsInWindow),
		thresholds: t,
	}
}

// Respond decides the action for one scored event. Alert and terminate
// decisions both notify the user; delivery is throttled per user and a
// suppressed or failed send never downgrades the action.
func (r *Responder) Respond(ctx context.Context, in Input) Decision {
	action := fallbackAction(in.Score, r.thresholds)
	if r.evaluator != nil {
		decided, err := r.evaluator.Decide(ctx, in, r.thresholds)
		if err != nil {
			log.Printf("policy: evaluation failed for user %s, using threshold bands: %v", in.UserID, err)
		} else {
			action = decided
		}
	}

	decision := Decision{Action: action, Score: in.Score, Tags: in.Tags}
	if action == ActionLog {
		return decision
	}
	if !r.limiter.allow(in.UserID) {
		log.Printf("policy: alert throttled for user %s (kind %s)", in.UserID, in.Kind)
		return decision
	}
	decision.AlertSent = r.alerter.Send(ctx, in.UserID, in.Kind, map[string]any{
		"session_id": in.SessionID,
		"action":     string(action),
		"score":      in.Score,
		"tags":       in.Tags,
	})
	return decision
}
