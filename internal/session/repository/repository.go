package repository

import (
	"context"
	"time"

	"sessionguard/internal/session/domain"
)

// Repository defines persistence for session records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Record, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Record, error)
	ListByOrg(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.Record, error)
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
	Create(ctx context.Context, rec *domain.Record) error
	Terminate(ctx context.Context, id string, endedAt time.Time) error
	TerminateAllExcept(ctx context.Context, userID, keepID string, endedAt time.Time) (int64, error)
	UpdateLastActivity(ctx context.Context, id string, at time.Time) error
	ExtendExpiry(ctx context.Context, id string, hours int) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
