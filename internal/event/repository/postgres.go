package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"

	"sessionguard/internal/event/domain"
)

// securityKindsSQL is the fixed security-sensitive subset, inlined because the
// tags are compile-time constants, never user input.
const securityKindsSQL = `('session_hijack_attempt', 'suspicious_activity', 'ip_address_changed', 'user_agent_changed', 'concurrent_session_limit', 'account_locked')`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a security event repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the event and fills in its auto-increment ID.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Event) error {
	var details []byte
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}
	sessionID := sql.NullString{}
	if e.SessionID != nil && *e.SessionID != "" {
		sessionID = sql.NullString{String: *e.SessionID, Valid: true}
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO security_events (user_id, org_id, session_id, kind, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.UserID, e.OrgID, sessionID, string(e.Kind), e.IPAddress, e.UserAgent, details, e.CreatedAt,
	).Scan(&e.ID)
}

// ListRecentByUser returns the user's newest events first, up to limit.
func (r *PostgresRepository) ListRecentByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, org_id, session_id, kind, ip_address, user_agent, details, created_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecentSecurityByUser returns the user's newest security-sensitive events first, up to limit.
func (r *PostgresRepository) ListRecentSecurityByUser(ctx context.Context, userID string, limit int32) ([]*domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, org_id, session_id, kind, ip_address, user_agent, details, created_at
		FROM security_events
		WHERE user_id = $1 AND kind IN `+securityKindsSQL+`
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CountByUser returns the user's total event count.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM security_events WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// CountSecurityByUser returns the user's security-sensitive event count.
func (r *PostgresRepository) CountSecurityByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM security_events WHERE user_id = $1 AND kind IN `+securityKindsSQL, userID).Scan(&n)
	return n, err
}

// CountByUserKindSince returns how many events of the given kind the user produced since the given time.
func (r *PostgresRepository) CountByUserKindSince(ctx context.Context, userID string, kind domain.Kind, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM security_events WHERE user_id = $1 AND kind = $2 AND created_at >= $3`,
		userID, string(kind), since).Scan(&n)
	return n, err
}

// CountSecuritySensitiveSince returns how many security-sensitive events the user produced since the given time.
// Drives the dashboard risk level.
func (r *PostgresRepository) CountSecuritySensitiveSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM security_events WHERE user_id = $1 AND created_at >= $2 AND kind IN `+securityKindsSQL,
		userID, since).Scan(&n)
	return n, err
}

// CountDistinctAddressesSince returns the number of distinct non-empty source addresses
// across the user's events since the given time.
func (r *PostgresRepository) CountDistinctAddressesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(DISTINCT ip_address) FROM security_events
		 WHERE user_id = $1 AND created_at >= $2 AND ip_address <> ''`,
		userID, since).Scan(&n)
	return n, err
}

// ListLoginTimesByUser returns the timestamps of the user's most recent successful logins, newest first.
func (r *PostgresRepository) ListLoginTimesByUser(ctx context.Context, userID string, limit int32) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT created_at FROM security_events
		WHERE user_id = $1 AND kind = 'login_success'
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var out []*domain.Event
	for rows.Next() {
		var (
			e         domain.Event
			sessionID sql.NullString
			kind      string
			details   []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrgID, &sessionID, &kind, &e.IPAddress, &e.UserAgent, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = domain.Kind(kind)
		if sessionID.Valid {
			s := sessionID.String
			e.SessionID = &s
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
