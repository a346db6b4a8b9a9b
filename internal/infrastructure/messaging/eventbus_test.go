package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-cohort/compass-engagement/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestPublishRoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var flagEvents, achievementEvents int
	require.NoError(t, bus.Subscribe(shared.EventFlagRaised, func(e shared.Event) error {
		flagEvents++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, func(e shared.Event) error {
		achievementEvents++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewActivityRecordedEvent("u1", "post_created", "2026-03-02")))
	require.NoError(t, bus.Publish(shared.NewFlagRaisedEvent("f1", "u1", "red", "missed_commitments")))

	assert.Equal(t, 1, flagEvents)
	assert.Equal(t, 0, achievementEvents)
}

func TestSubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var seen []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		seen = append(seen, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewActivityRecordedEvent("u1", "login", "2026-03-02")))
	require.NoError(t, bus.Publish(shared.NewFlagRaisedEvent("f1", "u1", "yellow", "lurking")))

	assert.Equal(t, []shared.EventType{shared.EventActivityRecorded, shared.EventFlagRaised}, seen)
}

func TestPublishSurvivesHandlerErrors(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventFlagRaised, func(e shared.Event) error {
		calls++
		return errors.New("handler down")
	}))
	require.NoError(t, bus.Subscribe(shared.EventFlagRaised, func(e shared.Event) error {
		calls++
		return nil
	}))

	// A failing handler must not prevent the others from running.
	require.NoError(t, bus.Publish(shared.NewFlagRaisedEvent("f1", "u1", "red", "inactive")))
	assert.Equal(t, 2, calls)
}

func TestAsyncPublishDoesNotBlock(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var wg sync.WaitGroup
	wg.Add(3)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		return nil
	}))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(shared.NewActivityRecordedEvent("u1", "login", "2026-03-02")))
	}
	assert.Less(t, time.Since(start), 5*time.Millisecond)

	wg.Wait()
	require.NoError(t, bus.Close())
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewActivityRecordedEvent("u1", "login", "2026-03-02")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventFlagRaised, func(e shared.Event) error { return nil }), ErrEventBusClosed)

	// Closing twice is a no-op.
	assert.NoError(t, bus.Close())
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventFlagRaised, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
