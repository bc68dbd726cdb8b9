package repository

import (
	"context"
	"time"

	"sessionguard/internal/event/domain"
)

// Repository defines persistence for security events. Events are append-only;
// there is no update or delete path.
type Repository interface {
	Create(ctx context.Context, e *domain.Event) error
	ListRecentByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error)
	ListRecentSecurityByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	CountSecurityByUser(ctx context.Context, userID string) (int64, error)
	CountByUserKindSince(ctx context.Context, userID string, kind domain.Kind, since time.Time) (int64, error)
	CountSecuritySensitiveSince(ctx context.Context, userID string, since time.Time) (int64, error)
	CountDistinctAddressesSince(ctx context.Context, userID string, since time.Time) (int64, error)
	ListLoginTimesByUser(ctx context.Context, userID string, limit int32) ([]time.Time, error)
}
