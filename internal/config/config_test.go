package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.MaxActiveSessions != 5 {
		t.Errorf("MaxActiveSessions = %d, want 5", cfg.MaxActiveSessions)
	}
	if cfg.RememberMeExtensionHours != 720 {
		t.Errorf("RememberMeExtensionHours = %d, want 720", cfg.RememberMeExtensionHours)
	}
	if cfg.RiskTerminateThreshold != 9.0 {
		t.Errorf("RiskTerminateThreshold = %v, want 9.0", cfg.RiskTerminateThreshold)
	}
	if cfg.RiskAlertThreshold != 8.0 {
		t.Errorf("RiskAlertThreshold = %v, want 8.0", cfg.RiskAlertThreshold)
	}
	if cfg.AlertMaxPerCooldown != 3 {
		t.Errorf("AlertMaxPerCooldown = %d, want 3", cfg.AlertMaxPerCooldown)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("MAX_ACTIVE_SESSIONS", "10")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9999")
	}
	if cfg.MaxActiveSessions != 10 {
		t.Errorf("MaxActiveSessions = %d, want 10", cfg.MaxActiveSessions)
	}
	brokers := cfg.KafkaBrokersList()
	if len(brokers) != 2 || brokers[0] != "k1:9092" || brokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokersList = %v, want [k1:9092 k2:9092]", brokers)
	}
}

func TestLoad_InvertedThresholdsRejected(t *testing.T) {
	t.Setenv("RISK_ALERT_THRESHOLD", "9.5")
	t.Setenv("RISK_TERMINATE_THRESHOLD", "9.0")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject alert threshold above terminate threshold")
	}
}

func TestDurationAccessors_Fallbacks(t *testing.T) {
	cfg := &Config{SessionTTL: "bogus", AlertCooldown: "", GeoIPTimeout: "-1s", SweepInterval: "x"}
	if got := cfg.SessionLifetime(); got != 24*time.Hour {
		t.Errorf("SessionLifetime = %v, want 24h", got)
	}
	if got := cfg.AlertWindow(); got != 60*time.Minute {
		t.Errorf("AlertWindow = %v, want 60m", got)
	}
	if got := cfg.GeoLookupTimeout(); got != 2*time.Second {
		t.Errorf("GeoLookupTimeout = %v, want 2s", got)
	}
	if got := cfg.SweepEvery(); got != 5*time.Minute {
		t.Errorf("SweepEvery = %v, want 5m", got)
	}
}

func TestDurationAccessors_Parsed(t *testing.T) {
	cfg := &Config{SessionTTL: "12h", AlertCooldown: "30m", GeoIPTimeout: "500ms", SweepInterval: "1m"}
	if got := cfg.SessionLifetime(); got != 12*time.Hour {
		t.Errorf("SessionLifetime = %v, want 12h", got)
	}
	if got := cfg.AlertWindow(); got != 30*time.Minute {
		t.Errorf("AlertWindow = %v, want 30m", got)
	}
	if got := cfg.GeoLookupTimeout(); got != 500*time.Millisecond {
		t.Errorf("GeoLookupTimeout = %v, want 500ms", got)
	}
	if got := cfg.SweepEvery(); got != time.Minute {
		t.Errorf("SweepEvery = %v, want 1m", got)
	}
}
