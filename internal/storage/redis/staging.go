package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kboni/auth-server/internal/model"
)

const defaultPrefix = "staging"

var _ model.StagingStore = (*StagingStore)(nil)

// StagingStore keeps in-flight flow tokens in Redis, one key per e-mail.
type StagingStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStagingStore creates a StagingStore. Keys are "<prefix>:<email>".
func NewStagingStore(client redis.UniversalClient, prefix string) *StagingStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &StagingStore{redis: client, prefix: prefix}
}

func (s *StagingStore) key(email string) string {
	return s.prefix + ":" + email
}

// Put stores token for email, replacing any previous entry.
func (s *StagingStore) Put(ctx context.Context, email, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid staging ttl %s", ttl)
	}
	if err := s.redis.Set(ctx, s.key(email), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to put staging entry: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the staged token for email or model.ErrNotFound.
func (s *StagingStore) Get(ctx context.Context, email string) (string, error) {
	token, err := s.redis.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("%w: failed to get staging entry: %v", model.ErrStoreUnavailable, err)
	}
	return token, nil
}

// Delete removes the staged token for email. Missing entries are not an error.
func (s *StagingStore) Delete(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete staging entry: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *StagingStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}
