package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/storage"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = "id, user_id, user_agent, ip_address, refresh_token, created_at, updated_at"

func (r *SessionRepository) FindSessions(ctx context.Context, filter storage.SessionFilter) ([]models.RefreshSession, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("user_id", filter.UserID)
	add("user_agent", filter.UserAgent)
	add("ip_address", filter.IPAddress)
	add("refresh_token", filter.RefreshToken)

	query := "SELECT " + sessionColumns + " FROM refresh_sessions"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.RefreshSession
	for rows.Next() {
		var s models.RefreshSession
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&s.UserAgent,
			&s.IPAddress,
			&s.RefreshToken,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.RefreshSession) (*models.RefreshSession, error) {
	query := `INSERT INTO refresh_sessions (user_id, user_agent, ip_address, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) RETURNING ` + sessionColumns
	now := time.Now().UTC()

	var s models.RefreshSession
	err := r.db.QueryRowContext(
		ctx,
		query,
		session.UserID,
		session.UserAgent,
		session.IPAddress,
		session.RefreshToken,
		now,
	).Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IPAddress, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) UpdateSessionByUser(ctx context.Context, userID, refreshToken string) (*models.RefreshSession, error) {
	// Exactly one row: a bare WHERE user_id would rotate every device's
	// session, invalidating tokens that other devices still hold.
	query := `UPDATE refresh_sessions SET refresh_token = $2, updated_at = $3 WHERE id = (SELECT id FROM refresh_sessions WHERE user_id = $1 ORDER BY id LIMIT 1) RETURNING ` + sessionColumns

	var s models.RefreshSession
	err := r.db.QueryRowContext(ctx, query, userID, refreshToken, time.Now().UTC()).
		Scan(&s.ID, &s.UserID, &s.UserAgent, &s.IPAddress, &s.RefreshToken, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session for user %s: %w", userID, storage.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) DeleteSessions(ctx context.Context, userID string, fingerprint *models.Fingerprint) error {
	if fingerprint == nil {
		query := `DELETE FROM refresh_sessions WHERE user_id = $1`
		if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("delete user sessions: %w", err)
		}
		return nil
	}

	query := `DELETE FROM refresh_sessions WHERE user_id = $1 AND user_agent = $2 AND ip_address = $3`
	if _, err := r.db.ExecContext(ctx, query, userID, fingerprint.UserAgent, fingerprint.IPAddress); err != nil {
		return fmt.Errorf("delete device session: %w", err)
	}
	return nil
}
