// Package event records security events: an append-only, best-effort audit
// trail of security-relevant occurrences tied to a user and optionally a session.
package event

import (
	"context"
	"log"
	"time"

	"sessionguard/internal/event/domain"
	eventrepo "sessionguard/internal/event/repository"
)

// Emitter forwards recorded events to an external stream (e.g. Kafka).
// Best-effort; callers log and ignore errors.
type Emitter interface {
	Emit(ctx context.Context, e *domain.Event) error
}

// Recorder writes a single security event. Record is best-effort: failures are
// logged and never affect the caller, so a broken event store cannot break
// request handling.
type Recorder interface {
	Record(ctx context.Context, e *domain.Event)
}

// Logger implements Recorder using the event repository and an optional stream emitter.
type Logger struct {
	repo    eventrepo.Repository
	emitter Emitter
}

// NewLogger returns a Recorder that persists to repo and forwards to emitter.
// emitter may be nil; then events are only persisted.
func NewLogger(repo eventrepo.Repository, emitter Emitter) *Logger {
	return &Logger{repo: repo, emitter: emitter}
}

// Record writes one security event and forwards it to the stream.
// Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, e *domain.Event) {
	if l == nil || l.repo == nil || e == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := l.repo.Create(ctx, e); err != nil {
		log.Printf("event: failed to record %s for user %s: %v", e.Kind, e.UserID, err)
		return
	}
	if l.emitter != nil {
		EmitAsync(l.emitter, e)
	}
}

// Emitters fans one event out to several streams. A failing member does not
// stop the others; the first error is returned.
type Emitters []Emitter

func (es Emitters) Emit(ctx context.Context, e *domain.Event) error {
	var firstErr error
	for _, em := range es {
		if em == nil {
			continue
		}
		if err := em.Emit(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// The goroutine uses context.Background() so request cancellation does not abort an in-flight emit.
func EmitAsync(emitter Emitter, e *domain.Event) {
	if emitter == nil || e == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, e); err != nil {
			log.Printf("event: async emit failed: %v", err)
		}
	}()
}
