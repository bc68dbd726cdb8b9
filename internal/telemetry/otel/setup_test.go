package otel

import (
	"context"
	"testing"
	"time"

	"sessionguard/internal/event/domain"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	p, err := NewProviders(ctx, "", "sessionguard-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if p.MeterProvider == nil || p.LoggerProvider == nil {
		t.Fatal("providers should be non-nil even when unconfigured")
	}
	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	if _, err := NewProviders(context.Background(), "://", "sessionguard-test", false); err == nil {
		t.Fatal("malformed endpoint should return an error")
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	p, err := NewProviders(ctx, "", "sessionguard-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	m, err := NewMetrics(p.MeterProvider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.SessionCreated(ctx)
	m.SessionTerminated(ctx, "logout")
	m.AnomalyDetected(ctx, "network_changed")
	m.SessionsSwept(ctx, 3)
	m.SessionsSwept(ctx, 0)
}

func TestEventEmitter(t *testing.T) {
	ctx := context.Background()
	if err := NewEventEmitter(nil).Emit(ctx, &domain.Event{Kind: domain.KindLoginSuccess}); err != nil {
		t.Errorf("noop emitter: %v", err)
	}

	p, err := NewProviders(ctx, "", "sessionguard-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	emitter := NewEventEmitter(p.LoggerProvider)
	sessionID := "sess-1"
	err = emitter.Emit(ctx, &domain.Event{
		UserID:    "user-1",
		OrgID:     "org-1",
		SessionID: &sessionID,
		Kind:      domain.KindIPAddressChanged,
		IPAddress: "203.0.113.7",
		Details:   map[string]any{"previous_ip": "203.0.113.1"},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Errorf("Emit: %v", err)
	}
}
