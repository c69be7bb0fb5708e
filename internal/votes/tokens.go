package votes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore issues and redeems single-use anonymous vote tokens, backed by
// Redis. A token is bound to one poll and disappears on first redemption.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore creates a token store with the given token lifetime.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a fresh token for the poll.
func (s *TokenStore) Issue(ctx context.Context, pollID uuid.UUID) (string, error) {
	token := uuid.New().String()
	if err := s.client.Set(ctx, tokenKey(pollID, token), 1, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store vote token: %w", err)
	}
	return token, nil
}

// Redeem consumes a token. GETDEL makes redemption atomic: of two
// concurrent casts presenting the same token, exactly one wins.
func (s *TokenStore) Redeem(ctx context.Context, pollID uuid.UUID, token string) (bool, error) {
	_, err := s.client.GetDel(ctx, tokenKey(pollID, token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redeem vote token: %w", err)
	}
	return true, nil
}

func tokenKey(pollID uuid.UUID, token string) string {
	return "vote_token:" + pollID.String() + ":" + token
}
