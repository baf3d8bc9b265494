package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetStore keeps short-lived password reset codes. Codes expire on
// their own and are consumed on a successful confirmation.
type ResetStore struct {
	client *redis.Client
}

// NewResetStore constructs a reset code store.
func NewResetStore(client *redis.Client) *ResetStore {
	return &ResetStore{client: client}
}

func resetKey(userID string) string {
	return "auth:reset:" + userID
}

// Save stores the user's reset code with the given TTL, replacing any
// outstanding one.
func (s *ResetStore) Save(ctx context.Context, userID, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(userID), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset code for %s: %w", userID, err)
	}
	return nil
}

// Load returns the user's outstanding code, or false when none is held.
func (s *ResetStore) Load(ctx context.Context, userID string) (string, bool, error) {
	code, err := s.client.Get(ctx, resetKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get reset code for %s: %w", userID, err)
	}
	return code, true, nil
}

// Consume drops the user's code after a successful reset.
func (s *ResetStore) Consume(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, resetKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del reset code for %s: %w", userID, err)
	}
	return nil
}
