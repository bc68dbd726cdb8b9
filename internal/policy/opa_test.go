package policy

import (
	"context"
	"testing"

	eventdomain "sessionguard/internal/event/domain"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	if err := NewOPAEvaluator().HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultBands(t *testing.T) {
	e := NewOPAEvaluator()
	ctx := context.Background()
	cases := []struct {
		score float64
		want  Action
	}{
		{0, ActionLog},
		{7.9, ActionLog},
		{8.0, ActionAlert},
		{8.9, ActionAlert},
		{9.0, ActionTerminate},
		{10.0, ActionTerminate},
	}
	for _, tc := range cases {
		got, err := e.Decide(ctx, Input{
			UserID: "user-1",
			Kind:   eventdomain.KindSuspiciousActivity,
			Score:  tc.score,
		}, DefaultThresholds())
		if err != nil {
			t.Fatalf("Decide(%v): %v", tc.score, err)
		}
		if got != tc.want {
			t.Errorf("Decide(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	custom := `package sessionguard.response

default action = "log"

action = "terminate" if {
	input.kind == "session_hijack_attempt"
}
`
	e := NewOPAEvaluator(custom)
	ctx := context.Background()

	got, err := e.Decide(ctx, Input{
		UserID: "user-1",
		Kind:   eventdomain.KindSessionHijackAttempt,
		Score:  1.0,
	}, DefaultThresholds())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got != ActionTerminate {
		t.Errorf("custom policy: got %s, want terminate", got)
	}

	got, err = e.Decide(ctx, Input{
		UserID: "user-1",
		Kind:   eventdomain.KindLoginSuccess,
		Score:  10.0,
	}, DefaultThresholds())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got != ActionLog {
		t.Errorf("custom policy ignores score: got %s, want log", got)
	}
}

func TestOPAEvaluator_InvalidPolicy(t *testing.T) {
	e := NewOPAEvaluator("package sessionguard.response\n\nnot valid rego\n")
	_, err := e.Decide(context.Background(), Input{Score: 9.5}, DefaultThresholds())
	if err == nil {
		t.Fatal("invalid policy should return an error")
	}
}

func TestOPAEvaluator_UnknownAction(t *testing.T) {
	e := NewOPAEvaluator(`package sessionguard.response

default action = "escalate"
`)
	_, err := e.Decide(context.Background(), Input{Score: 1.0}, DefaultThresholds())
	if err == nil {
		t.Fatal("unknown action should return an error")
	}
}
