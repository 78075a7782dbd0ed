package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ndenisov/authd/internal/models"
	"github.com/ndenisov/authd/internal/storage"
)

type InMemoryUserManager struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserRepository() *InMemoryUserManager {
	return &InMemoryUserManager{
		users: make(map[string]models.User),
	}
}

func (m *InMemoryUserManager) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Login == user.Login {
			return nil, storage.ErrDuplicateUser
		}
	}
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user

	return &user, nil
}

func (m *InMemoryUserManager) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Login == login {
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *InMemoryUserManager) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *InMemoryUserManager) UpdateUserPasswordByEmail(_ context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, u := range m.users {
		if u.Email == email {
			u.PasswordHash = passwordHash
			m.users[id] = u
			return nil
		}
	}
	return storage.ErrUserNotFound
}
