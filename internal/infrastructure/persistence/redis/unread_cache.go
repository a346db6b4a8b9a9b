package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNREAD COUNT CACHE
// Decorator around the persistent notification repository. Only UnreadCount is
// served from cache; every write path invalidates the key instead of patching
// the counter. A missing key recomputes from storage, so the cached value can
// go stale-low for one request but never stale-high.
// ══════════════════════════════════════════════════════════════════════════════

// unreadCountTTL bounds how long a count survives without a write.
const unreadCountTTL = 10 * time.Minute

// unreadStore is the slice of Cache the decorator needs.
type unreadStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// UnreadCountCache implements notification.Repository with a cached unread
// count. All other operations delegate straight to the inner repository.
type UnreadCountCache struct {
	inner  notification.Repository
	cache  unreadStore
	logger *slog.Logger
}

// NewUnreadCountCache wraps a notification repository with unread-count
// caching.
func NewUnreadCountCache(inner notification.Repository, cache *Cache, logger *slog.Logger) *UnreadCountCache {
	return &UnreadCountCache{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// Create stores the notification and invalidates the user's cached count.
func (c *UnreadCountCache) Create(ctx context.Context, n *notification.Notification) error {
	if err := c.inner.Create(ctx, n); err != nil {
		return err
	}
	c.invalidate(ctx, n.UserID)
	return nil
}

// ListByUser delegates to the inner repository.
func (c *UnreadCountCache) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	return c.inner.ListByUser(ctx, userID, limit)
}

// UnreadCount returns the cached count, recomputing from storage on a miss.
// Cache failures degrade to a storage read rather than an error.
func (c *UnreadCountCache) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := UnreadKey(userID)

	var cached int
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("unread count cache read failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	count, err := c.inner.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	// SetNX: a plain set here could overwrite a value written by a concurrent
	// invalidate-and-recompute, pinning a stale-high count until the TTL.
	if _, err := c.cache.SetNX(ctx, key, count, unreadCountTTL); err != nil {
		c.logger.Warn("unread count cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return count, nil
}

// MarkRead marks one notification read and invalidates the cached count.
func (c *UnreadCountCache) MarkRead(ctx context.Context, userID, id string) error {
	if err := c.inner.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification read and invalidates the cached
// count.
func (c *UnreadCountCache) MarkAllRead(ctx context.Context, userID string) (int, error) {
	count, err := c.inner.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, userID)
	return count, nil
}

func (c *UnreadCountCache) invalidate(ctx context.Context, userID string) {
	if err := c.cache.Delete(ctx, UnreadKey(userID)); err != nil {
		// The TTL is the backstop; log and move on.
		c.logger.Warn("unread count invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
