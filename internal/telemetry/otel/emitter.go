package otel

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"sessionguard/internal/event"
	"sessionguard/internal/event/domain"
)

// NewEventEmitter returns an emitter that sends security events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op
// emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) event.Emitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("sessionguard.events")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the security event to an OTel log record and emits it.
// Best-effort; errors are logged by the provider's processor.
func (e *otelEmitter) Emit(ctx context.Context, ev *domain.Event) error {
	if ev == nil {
		return nil
	}
	rec := otellog.Record{}
	if !ev.CreatedAt.IsZero() {
		rec.SetTimestamp(ev.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(ev.Details) > 0 {
		if body, err := json.Marshal(ev.Details); err == nil {
			rec.SetBody(otellog.BytesValue(body))
		}
	}
	if ev.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", ev.OrgID))
	}
	if ev.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", ev.UserID))
	}
	if ev.SessionID != nil && *ev.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", *ev.SessionID))
	}
	rec.AddAttributes(otellog.String("kind", string(ev.Kind)))
	if ev.IPAddress != "" {
		rec.AddAttributes(otellog.String("ip_address", ev.IPAddress))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
