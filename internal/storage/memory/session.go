package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/storage"
)

// InMemorySessionManager is a map-backed SessionRepository for tests and
// local development.
type InMemorySessionManager struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[int64]models.RefreshSession
}

func NewSessionRepository() *InMemorySessionManager {
	return &InMemorySessionManager{
		sessions: make(map[int64]models.RefreshSession),
	}
}

func (m *InMemorySessionManager) FindSessions(_ context.Context, filter storage.SessionFilter) ([]models.RefreshSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.RefreshSession
	for _, s := range m.sessions {
		if matches(s, filter) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *InMemorySessionManager) CreateSession(_ context.Context, session models.RefreshSession) (*models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	session.ID = m.nextID
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	m.sessions[session.ID] = session

	return &session, nil
}

func (m *InMemorySessionManager) UpdateSessionByUser(_ context.Context, userID, refreshToken string) (*models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.UserID == userID {
			s.RefreshToken = refreshToken
			s.UpdatedAt = time.Now().UTC()
			m.sessions[id] = s
			return &s, nil
		}
	}
	return nil, storage.ErrSessionNotFound
}

func (m *InMemorySessionManager) DeleteSessions(_ context.Context, userID string, fingerprint *models.Fingerprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		if fingerprint != nil && (s.UserAgent != fingerprint.UserAgent || s.IPAddress != fingerprint.IPAddress) {
			continue
		}
		delete(m.sessions, id)
	}
	return nil
}

func matches(s models.RefreshSession, f storage.SessionFilter) bool {
	if f.UserID != nil && s.UserID != *f.UserID {
		return false
	}
	if f.UserAgent != nil && s.UserAgent != *f.UserAgent {
		return false
	}
	if f.IPAddress != nil && s.IPAddress != *f.IPAddress {
		return false
	}
	if f.RefreshToken != nil && s.RefreshToken != *f.RefreshToken {
		return false
	}
	return true
}
