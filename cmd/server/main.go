// Server runs the session security HTTP API: the internal lifecycle endpoints
// for the auth layer, the authenticated self-service surface, and the
// background expiry sweep.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sessionguard/internal/alert"
	"sessionguard/internal/anomaly"
	"sessionguard/internal/config"
	"sessionguard/internal/dashboard"
	"sessionguard/internal/db"
	"sessionguard/internal/event"
	eventrepo "sessionguard/internal/event/repository"
	"sessionguard/internal/geo"
	"sessionguard/internal/policy"
	"sessionguard/internal/risk"
	"sessionguard/internal/security"
	"sessionguard/internal/server"
	sessionrepo "sessionguard/internal/session/repository"
	"sessionguard/internal/session/service"
	"sessionguard/internal/stream"
	"sessionguard/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("server: DATABASE_URL is required")
	}
	if cfg.JWTPublicKey == "" {
		log.Fatal("server: JWT_PUBLIC_KEY is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "sessionguard", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	metrics, err := otel.NewMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}

	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("security: JWT_PUBLIC_KEY: %v", err)
	}
	verifier := security.NewVerifier(pub, cfg.JWTIssuer, cfg.JWTAudience)

	sessions := sessionrepo.NewPostgresRepository(database)
	events := eventrepo.NewPostgresRepository(database)

	resolver := geo.NewHTTPResolver(cfg.GeoIPBaseURL, cfg.GeoLookupTimeout(), cfg.GeoIPRatePerSecond)

	producer := stream.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.KafkaTopic)
	defer producer.Close()
	recorder := event.NewLogger(events, event.Emitters{
		producer,
		otel.NewEventEmitter(providers.LoggerProvider),
	})

	evaluator := policy.NewOPAEvaluator()
	var alerter alert.Alerter
	if cfg.AlertWebhookURL != "" {
		alerter = alert.NewWebhookAlerter(cfg.AlertWebhookURL)
	}
	responder := policy.NewResponder(evaluator, alerter, policy.ResponderOptions{
		Thresholds: policy.Thresholds{
			Terminate: cfg.RiskTerminateThreshold,
			Alert:     cfg.RiskAlertThreshold,
		},
		AlertWindow:       cfg.AlertWindow(),
		MaxAlertsInWindow: cfg.AlertMaxPerCooldown,
	})

	lifecycle := service.NewService(service.Deps{
		Sessions:  sessions,
		Recorder:  recorder,
		Detector:  anomaly.NewDetector(sessions, events, resolver, cfg.MaxActiveSessions),
		Scorer:    risk.NewLinearScorer(events),
		Responder: responder,
		Resolver:  resolver,
		Metrics:   metrics,
	}, service.Config{
		SessionTTL:               cfg.SessionLifetime(),
		RememberMeExtensionHours: cfg.RememberMeExtensionHours,
	})

	dash := dashboard.NewService(events, sessions)
	srv := server.New(database, verifier, lifecycle, dash, evaluator)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Router(),
	}

	go sweepLoop(ctx, lifecycle, cfg.SweepEvery())

	go func() {
		log.Printf("server: listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("server: shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel: shutdown: %v", err)
	}
	log.Println("server: stopped")
}

// sweepLoop deactivates expired sessions on a fixed interval until ctx is done.
func sweepLoop(ctx context.Context, lifecycle *service.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := lifecycle.SweepExpired(ctx)
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweep: deactivated %d expired sessions", n)
			}
		}
	}
}
