package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
)

type fakeUnreadStore struct {
	values map[string]int
}

func newFakeUnreadStore() *fakeUnreadStore {
	return &fakeUnreadStore{values: map[string]int{}}
}

func (s *fakeUnreadStore) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := s.values[key]
	if !ok {
		return ErrCacheMiss
	}
	*dest.(*int) = v
	return nil
}

func (s *fakeUnreadStore) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(int)
	return true, nil
}

func (s *fakeUnreadStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type fakeNotifRepo struct {
	notification.Repository

	unread        int
	unreadCalls   int
	onUnreadCount func()
}

func (r *fakeNotifRepo) Create(context.Context, *notification.Notification) error {
	return nil
}

func (r *fakeNotifRepo) UnreadCount(context.Context, string) (int, error) {
	r.unreadCalls++
	if r.onUnreadCount != nil {
		r.onUnreadCount()
	}
	return r.unread, nil
}

func (r *fakeNotifRepo) MarkRead(context.Context, string, string) error {
	return nil
}

func (r *fakeNotifRepo) MarkAllRead(context.Context, string) (int, error) {
	return 1, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUnreadCountRecomputesOnMissAndCaches(t *testing.T) {
	store := newFakeUnreadStore()
	repo := &fakeNotifRepo{unread: 5}
	cache := &UnreadCountCache{inner: repo, cache: store, logger: discardLogger()}

	count, err := cache.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Second read is served from cache.
	count, err = cache.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, repo.unreadCalls)
}

func TestUnreadCountWriteBackDoesNotClobberFresherValue(t *testing.T) {
	// A recompute that overlaps an invalidate-and-recompute must not overwrite
	// the fresher count with the one it read before the invalidation.
	store := newFakeUnreadStore()
	repo := &fakeNotifRepo{unread: 5}
	repo.onUnreadCount = func() {
		// While this request is reading storage, a concurrent request lands
		// the post-MarkRead count.
		store.values[UnreadKey("u1")] = 4
	}
	cache := &UnreadCountCache{inner: repo, cache: store, logger: discardLogger()}

	count, err := cache.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// The cached value is the fresher one, not this request's write-back.
	assert.Equal(t, 4, store.values[UnreadKey("u1")])
}

func TestUnreadCountWritePathsInvalidate(t *testing.T) {
	store := newFakeUnreadStore()
	repo := &fakeNotifRepo{}
	cache := &UnreadCountCache{inner: repo, cache: store, logger: discardLogger()}

	store.values[UnreadKey("u1")] = 7
	require.NoError(t, cache.MarkRead(context.Background(), "u1", "n1"))
	assert.NotContains(t, store.values, UnreadKey("u1"))

	store.values[UnreadKey("u1")] = 7
	_, err := cache.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotContains(t, store.values, UnreadKey("u1"))

	store.values[UnreadKey("u1")] = 7
	require.NoError(t, cache.Create(context.Background(), &notification.Notification{UserID: "u1"}))
	assert.NotContains(t, store.values, UnreadKey("u1"))
}
