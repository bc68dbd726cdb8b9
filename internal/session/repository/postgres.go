package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sessionguard/internal/session/domain"
)

const recordColumns = `id, token_hash, user_id, org_id, ip_address, user_agent,
	device_type, browser, os, country, region, city,
	active, remember_me, expires_at, last_activity_at, ended_at, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM sessions WHERE id = $1`, id)
	return scanRecord(row)
}

// GetByTokenHash returns the session whose token hashes to tokenHash, or nil
// if no such session exists.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM sessions WHERE token_hash = $1`, tokenHash)
	return scanRecord(row)
}

// ListActiveByUser returns the user's active sessions, newest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM sessions
		WHERE user_id = $1 AND active
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByOrg returns sessions for the org, optionally filtered by user, with limit and offset.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, userID *string, limit, offset int32) ([]*domain.Record, error) {
	filter := sql.NullString{}
	if userID != nil && *userID != "" {
		filter = sql.NullString{String: *userID, Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM sessions
		WHERE org_id = $1 AND ($2::text IS NULL OR user_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, orgID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CountActiveByUser returns how many active sessions the user currently has.
func (r *PostgresRepository) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1 AND active`, userID).Scan(&n)
	return n, err
}

// Create persists the session record. The record must have ID and TokenHash set.
func (r *PostgresRepository) Create(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, user_id, org_id, ip_address, user_agent,
			device_type, browser, os, country, region, city,
			active, remember_me, expires_at, last_activity_at, ended_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, rec.TokenHash, rec.UserID, rec.OrgID, rec.IPAddress, rec.UserAgent,
		rec.DeviceType, rec.Browser, rec.OS, rec.Country, rec.Region, rec.City,
		rec.Active, rec.RememberMe, rec.ExpiresAt,
		timeToNullTime(rec.LastActivityAt), timeToNullTime(rec.EndedAt), rec.CreatedAt)
	return err
}

// Terminate marks the session inactive and stamps its end time. Already
// terminated sessions are left untouched, so the first end time survives.
func (r *PostgresRepository) Terminate(ctx context.Context, id string, endedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $2
		WHERE id = $1 AND active`, id, endedAt)
	return err
}

// TerminateAllExcept ends every active session of the user except keepID.
// Returns the number of sessions ended.
func (r *PostgresRepository) TerminateAllExcept(ctx context.Context, userID, keepID string, endedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $3
		WHERE user_id = $1 AND id <> $2 AND active`, userID, keepID, endedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateLastActivity sets the session's last-activity timestamp.
func (r *PostgresRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = $2 WHERE id = $1`, id, at)
	return err
}

// ExtendExpiry pushes the session's expiry forward by the given number of
// hours. The shift is applied in SQL against the stored expiry, so concurrent
// extensions compose instead of overwriting each other.
func (r *PostgresRepository) ExtendExpiry(ctx context.Context, id string, hours int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET expires_at = expires_at + make_interval(hours => $2)
		WHERE id = $1 AND active`, id, hours)
	return err
}

// SweepExpired deactivates every active session whose expiry has passed and
// returns how many were swept. Running it again immediately sweeps nothing.
func (r *PostgresRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $1
		WHERE active AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func scanRecord(row *sql.Row) (*domain.Record, error) {
	rec, err := scanFrom(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func scanRecords(rows *sql.Rows) ([]*domain.Record, error) {
	var out []*domain.Record
	for rows.Next() {
		rec, err := scanFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanFrom(scan func(...any) error) (*domain.Record, error) {
	var (
		rec            domain.Record
		lastActivityAt sql.NullTime
		endedAt        sql.NullTime
	)
	err := scan(&rec.ID, &rec.TokenHash, &rec.UserID, &rec.OrgID, &rec.IPAddress, &rec.UserAgent,
		&rec.DeviceType, &rec.Browser, &rec.OS, &rec.Country, &rec.Region, &rec.City,
		&rec.Active, &rec.RememberMe, &rec.ExpiresAt, &lastActivityAt, &endedAt, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastActivityAt.Valid {
		rec.LastActivityAt = &lastActivityAt.Time
	}
	if endedAt.Valid {
		rec.EndedAt = &endedAt.Time
	}
	return &rec, nil
}
