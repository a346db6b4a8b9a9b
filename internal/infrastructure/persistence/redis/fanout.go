package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/compass-cohort/compass-engagement/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION FAN-OUT
// Redis pub/sub carries freshly created notifications to connected delivery
// channels. Delivery is at-least-once: the row is already persisted before
// Broadcast runs, and readers dedup by notification id.
// ══════════════════════════════════════════════════════════════════════════════

// fanoutMessage is the wire form of a broadcast notification.
type fanoutMessage struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Fanout broadcasts notifications over Redis pub/sub and feeds subscribed
// delivery channels.
type Fanout struct {
	cache  *Cache
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string][]*Subscription
}

// NewFanout creates a new Fanout.
func NewFanout(cache *Cache, logger *slog.Logger) *Fanout {
	return &Fanout{
		cache:  cache,
		logger: logger,
		subs:   make(map[string][]*Subscription),
	}
}

// Broadcast publishes the notification to the user's channel. Publish failure
// is an error for the caller to log; the notification row is already durable.
func (f *Fanout) Broadcast(ctx context.Context, n *notification.Notification) error {
	msg := fanoutMessage{
		ID:        n.ID,
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}

	if err := f.cache.Publish(ctx, NotifyChannel(n.UserID), msg); err != nil {
		return fmt.Errorf("fanout: publish: %w", err)
	}
	return nil
}

// Subscription is one live delivery channel for a user.
type Subscription struct {
	userID string
	ch     chan *notification.Notification
	cancel context.CancelFunc
	fanout *Fanout
	once   sync.Once
}

// Notifications returns the delivery channel. It is closed when the
// subscription ends.
func (s *Subscription) Notifications() <-chan *notification.Notification {
	return s.ch
}

// Close ends the subscription and releases the channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cancel()
		s.fanout.remove(s)
	})
}

// Subscribe opens a delivery channel for one user's notifications. The
// returned subscription must be closed when the consumer disconnects. Slow
// consumers drop messages rather than blocking the pump; the inbox in storage
// remains the source of truth.
func (f *Fanout) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	pubsub := f.cache.Subscribe(ctx, NotifyChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("fanout: subscribe: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		userID: userID,
		ch:     make(chan *notification.Notification, 16),
		cancel: cancel,
		fanout: f,
	}

	f.mu.Lock()
	f.subs[userID] = append(f.subs[userID], sub)
	f.mu.Unlock()

	go f.pump(subCtx, pubsub, sub)

	return sub, nil
}

func (f *Fanout) pump(ctx context.Context, pubsub *goredis.PubSub, sub *Subscription) {
	defer func() {
		_ = pubsub.Close()
		close(sub.ch)
	}()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var wire fanoutMessage
			if err := json.Unmarshal([]byte(msg.Payload), &wire); err != nil {
				f.logger.Warn("fanout: bad payload",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
				)
				continue
			}

			n := &notification.Notification{
				ID:        wire.ID,
				UserID:    wire.UserID,
				Kind:      notification.Kind(wire.Kind),
				Title:     wire.Title,
				Body:      wire.Body,
				Metadata:  wire.Metadata,
				CreatedAt: wire.CreatedAt,
			}

			select {
			case sub.ch <- n:
			default:
				// Consumer is not keeping up. Drop; the inbox has the row.
				f.logger.Warn("fanout: dropping message for slow consumer",
					slog.String("user_id", sub.userID),
					slog.String("notification_id", n.ID),
				)
			}
		}
	}
}

func (f *Fanout) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs := f.subs[sub.userID]
	for i, s := range subs {
		if s == sub {
			f.subs[sub.userID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(f.subs[sub.userID]) == 0 {
		delete(f.subs, sub.userID)
	}
}

// SubscriberCount returns how many live subscriptions a user has. Used by the
// health endpoint.
func (f *Fanout) SubscriberCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}
