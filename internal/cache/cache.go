// Package cache is a Redis read-through cache for rendered poll views.
// Only responses that are identical for every viewer are cached; anything
// carrying per-user state is rendered fresh by the handlers.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listViewKey = "polls:list"

// ViewCache stores rendered JSON response bodies keyed by poll. A cache miss
// or Redis failure is never an error for the caller; the handler just renders
// fresh.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewViewCache creates a view cache with the given entry lifetime.
func NewViewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache{client: client, ttl: ttl, logger: logger}
}

// GetPollView returns the cached rendered view of a poll, if present.
func (vc *ViewCache) GetPollView(ctx context.Context, pollID uuid.UUID) ([]byte, bool) {
	return vc.get(ctx, pollViewKey(pollID))
}

// SetPollView caches the rendered view of a poll.
func (vc *ViewCache) SetPollView(ctx context.Context, pollID uuid.UUID, body []byte) {
	vc.set(ctx, pollViewKey(pollID), body)
}

// GetListView returns the cached poll listing, if present.
func (vc *ViewCache) GetListView(ctx context.Context) ([]byte, bool) {
	return vc.get(ctx, listViewKey)
}

// SetListView caches the poll listing.
func (vc *ViewCache) SetListView(ctx context.Context, body []byte) {
	vc.set(ctx, listViewKey, body)
}

// InvalidatePoll drops the cached view of one poll plus the listing, since
// the listing embeds every poll.
func (vc *ViewCache) InvalidatePoll(ctx context.Context, pollID uuid.UUID) {
	if err := vc.client.Del(ctx, pollViewKey(pollID), listViewKey).Err(); err != nil {
		vc.logger.Warn("cache invalidate failed", zap.Error(err), zap.String("poll_id", pollID.String()))
	}
}

// InvalidateList drops the cached poll listing.
func (vc *ViewCache) InvalidateList(ctx context.Context) {
	if err := vc.client.Del(ctx, listViewKey).Err(); err != nil {
		vc.logger.Warn("cache invalidate failed", zap.Error(err))
	}
}

func (vc *ViewCache) get(ctx context.Context, key string) ([]byte, bool) {
	body, err := vc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		vc.logger.Warn("cache read failed", zap.Error(err), zap.String("key", key))
		return nil, false
	}
	return body, true
}

func (vc *ViewCache) set(ctx context.Context, key string, body []byte) {
	if err := vc.client.Set(ctx, key, body, vc.ttl).Err(); err != nil {
		vc.logger.Warn("cache write failed", zap.Error(err), zap.String("key", key))
	}
}

func pollViewKey(pollID uuid.UUID) string {
	return "poll:" + pollID.String() + ":view"
}
