package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/tutoring-api/internal/dto"
)

// ProposalStore holds match proposals between the match request and the
// student's selection. Entries expire on their own, so an abandoned
// request never commits anything.
type ProposalStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewProposalStore constructs a proposal store.
func NewProposalStore(client *redis.Client, logger *zap.Logger) *ProposalStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalStore{client: client, logger: logger}
}

func proposalKey(userID string) string {
	return "match:proposals:" + userID
}

// Save replaces the user's held proposals.
func (s *ProposalStore) Save(ctx context.Context, userID string, proposals []dto.MatchProposal, ttl time.Duration) error {
	payload, err := json.Marshal(proposals)
	if err != nil {
		return fmt.Errorf("marshal proposals for %s: %w", userID, err)
	}
	if err := s.client.Set(ctx, proposalKey(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set proposals for %s: %w", userID, err)
	}
	return nil
}

// Load returns the user's held proposals. The second return is false
// when none are held or they have already expired.
func (s *ProposalStore) Load(ctx context.Context, userID string) ([]dto.MatchProposal, bool, error) {
	raw, err := s.client.Get(ctx, proposalKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get proposals for %s: %w", userID, err)
	}

	var proposals []dto.MatchProposal
	if err := json.Unmarshal(raw, &proposals); err != nil {
		return nil, false, fmt.Errorf("unmarshal proposals for %s: %w", userID, err)
	}
	return proposals, true, nil
}

// Clear drops the user's held proposals after a selection.
func (s *ProposalStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, proposalKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del proposals for %s: %w", userID, err)
	}
	return nil
}
