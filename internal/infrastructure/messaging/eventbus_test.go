package messaging_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
	"github.com/neuroclass/neuroclass-hub/internal/infrastructure/messaging"
)

func newSyncBus() *messaging.InMemoryEventBus {
	return messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
}

func blockFinished(blockID string) shared.BlockFinishedEvent {
	return shared.BlockFinishedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventBlockFinished, blockID),
		StudentID: "student-1",
	}
}

func TestEventBus_DeliversToSubscribedHandler(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var got []string
	err := bus.Subscribe(shared.EventBlockFinished, func(e shared.Event) error {
		got = append(got, e.AggregateID())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(blockFinished("block-1")))
	require.NoError(t, bus.Publish(blockFinished("block-2")))

	assert.Equal(t, []string{"block-1", "block-2"}, got)
}

func TestEventBus_SubscribeAllSeesEveryEvent(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var count int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(blockFinished("block-1")))
	assert.Equal(t, 1, count)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var reached bool
	require.NoError(t, bus.Subscribe(shared.EventBlockFinished, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventBlockFinished, func(shared.Event) error {
		reached = true
		return nil
	}))

	require.NoError(t, bus.Publish(blockFinished("block-1")))
	assert.True(t, reached)
}

func TestEventBus_NilHandlerIsRejected(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventBlockFinished, nil), messaging.ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), messaging.ErrNilHandler)
}

func TestEventBus_AsyncModeDeliversOnWorkerPool(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
	})
	defer bus.Close()

	var (
		mu    sync.Mutex
		count int
	)
	require.NoError(t, bus.Subscribe(shared.EventBlockFinished, func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(blockFinished("block-1")))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := count == 4
		mu.Unlock()
		if done {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected 4 deliveries, got %d", count)
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(blockFinished("block-1")), messaging.ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventBlockFinished, func(shared.Event) error { return nil }),
		messaging.ErrEventBusClosed)
	// Close is idempotent.
	require.NoError(t, bus.Close())
}
