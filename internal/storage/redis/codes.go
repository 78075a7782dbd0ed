package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeStorage keeps verification codes keyed by email address. Entries live
// until the TTL fires or the caller deletes them after a successful reset.
type CodeStorage struct {
	client *redis.Client
}

func NewCodeStorage(client *redis.Client) *CodeStorage {
	return &CodeStorage{client: client}
}

func (s *CodeStorage) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.client.Set(ctx, key(email), code, ttl).Err()
}

// Get returns the stored code, or "" when no code is on file. Absence is not
// an error: callers must treat it the same as a mismatch.
func (s *CodeStorage) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, key(email)).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return code, nil
}

func (s *CodeStorage) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, key(email)).Err()
}

func key(email string) string {
	return "verification:" + email
}
