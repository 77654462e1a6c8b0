package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SharedMindsApp/accesskit/pkg/entity"
	"github.com/SharedMindsApp/accesskit/pkg/events"
)

func newInvalidation() events.Invalidation {
	return events.Invalidation{
		Entity:    entity.NewRef(entity.TypeTrack, uuid.New()),
		ProjectID: uuid.New(),
	}
}

func TestBus_PublishFanOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := events.NewBus(4)
	defer bus.Close()

	sub1 := bus.Subscribe(ctx)
	sub2 := bus.Subscribe(ctx)

	ev := newInvalidation()
	bus.Publish(ctx, ev)

	for _, sub := range []*events.Subscriber{sub1, sub2} {
		select {
		case got := <-sub.C():
			assert.Equal(t, ev, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBus_SlowSubscriberDropped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := events.NewBus(1)
	defer bus.Close()

	slow := bus.Subscribe(ctx)
	fast := bus.Subscribe(ctx)

	// First event fills both buffers; only the fast subscriber drains.
	bus.Publish(ctx, newInvalidation())
	<-fast.C()

	// Second event overflows the slow subscriber, which gets dropped.
	bus.Publish(ctx, newInvalidation())
	<-fast.C()

	// The slow subscriber still drains its buffered event, then its
	// channel closes.
	<-slow.C()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-slow.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBus_ContextUnsubscribes(t *testing.T) {
	t.Parallel()
	bus := events.NewBus(1)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBus_CloseIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := events.NewBus(1)

	sub := bus.Subscribe(ctx)
	bus.Close()
	bus.Close()

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Subscribing after close yields an already-closed subscriber, and
	// publishing is a no-op.
	late := bus.Subscribe(ctx)
	_, ok = <-late.C()
	assert.False(t, ok)
	bus.Publish(ctx, newInvalidation())
}

func TestSubscriber_CloseIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus := events.NewBus(1)
	defer bus.Close()

	sub := bus.Subscribe(ctx)
	sub.Close()
	sub.Close()

	// Publishing to a closed subscriber must not panic.
	bus.Publish(ctx, newInvalidation())
}
