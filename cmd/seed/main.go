// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the demo session token is already registered.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"sessionguard/internal/config"
	"sessionguard/internal/db"
	"sessionguard/internal/device"
	eventdomain "sessionguard/internal/event/domain"
	eventrepo "sessionguard/internal/event/repository"
	"sessionguard/internal/security"
	sessiondomain "sessionguard/internal/session/domain"
	sessionrepo "sessionguard/internal/session/repository"
)

const (
	demoUserID   = "demo-user-001"
	demoUser2ID  = "demo-user-002"
	demoOrgID    = "demo-org-001"
	demoToken    = "demo-session-token-001"
	demo2Token   = "demo-session-token-002"
	demoIP       = "203.0.113.10"
	demoMobileIP = "203.0.113.44"

	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	sessions := sessionrepo.NewPostgresRepository(conn)
	events := eventrepo.NewPostgresRepository(conn)

	existing, err := sessions.GetByTokenHash(ctx, security.HashSessionToken(demoToken))
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (demo session exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()

	desktopSession := demoSession(demoToken, demoUserID, demoIP, desktopUA, now)
	desktopSession.Country = "Germany"
	desktopSession.Region = "Berlin"
	desktopSession.City = "Berlin"
	if err := sessions.Create(ctx, desktopSession); err != nil {
		log.Fatalf("create desktop session: %v", err)
	}

	mobileSession := demoSession(demo2Token, demoUser2ID, demoMobileIP, mobileUA, now)
	mobileSession.RememberMe = true
	mobileSession.ExpiresAt = now.Add(720 * time.Hour)
	if err := sessions.Create(ctx, mobileSession); err != nil {
		log.Fatalf("create mobile session: %v", err)
	}

	// A short event history per user so the dashboard and the timing
	// heuristic have something to chew on.
	for i, s := range []*sessiondomain.Record{desktopSession, mobileSession} {
		for day := 3; day >= 1; day-- {
			at := now.AddDate(0, 0, -day).Add(time.Duration(i) * time.Hour)
			if err := events.Create(ctx, &eventdomain.Event{
				UserID:    s.UserID,
				OrgID:     s.OrgID,
				Kind:      eventdomain.KindLoginSuccess,
				IPAddress: s.IPAddress,
				UserAgent: s.UserAgent,
				CreatedAt: at,
			}); err != nil {
				log.Fatalf("create login event: %v", err)
			}
		}
	}

	sessionID := desktopSession.ID
	if err := events.Create(ctx, &eventdomain.Event{
		UserID:    demoUserID,
		OrgID:     demoOrgID,
		SessionID: &sessionID,
		Kind:      eventdomain.KindLoginSuccess,
		IPAddress: demoIP,
		UserAgent: desktopUA,
		Details:   map[string]any{"seed": true},
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create session event: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Demo sessions: %s (user %s), %s (user %s, remember-me)\n",
		desktopSession.ID, demoUserID, mobileSession.ID, demoUser2ID)
	fmt.Printf("Demo org: %s\n", demoOrgID)
}

func demoSession(token, userID, ip, ua string, now time.Time) *sessiondomain.Record {
	profile := device.Classify(ua)
	return &sessiondomain.Record{
		ID:         uuid.NewString(),
		TokenHash:  security.HashSessionToken(token),
		UserID:     userID,
		OrgID:      demoOrgID,
		IPAddress:  ip,
		UserAgent:  ua,
		DeviceType: profile.Type,
		Browser:    profile.Browser,
		OS:         profile.OS,
		Active:     true,
		ExpiresAt:  now.Add(24 * time.Hour),
		CreatedAt:  now,
	}
}
