package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ndenisov/authd/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateUser   = errors.New("user already exists")
)

// DBTX lets repositories run either on *sql.DB or inside *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Storage interface {
	SessionRepository
	UserRepository
}

// SessionFilter selects sessions by any combination of criteria. Nil fields
// are not matched on.
type SessionFilter struct {
	UserID       *string
	UserAgent    *string
	IPAddress    *string
	RefreshToken *string
}

type SessionRepository interface {
	FindSessions(ctx context.Context, filter SessionFilter) ([]models.RefreshSession, error)
	CreateSession(ctx context.Context, session models.RefreshSession) (*models.RefreshSession, error)
	// UpdateSessionByUser overwrites the stored refresh token for the user's
	// session. Returns ErrSessionNotFound when no record matches.
	UpdateSessionByUser(ctx context.Context, userID, refreshToken string) (*models.RefreshSession, error)
	// DeleteSessions removes the session matching userID and fingerprint, or
	// every session of the user when fingerprint is nil. Deleting nothing is
	// not an error.
	DeleteSessions(ctx context.Context, userID string, fingerprint *models.Fingerprint) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserPasswordByEmail(ctx context.Context, email, passwordHash string) error
}
