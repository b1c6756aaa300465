package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireClosed(t *testing.T, ch <-chan any) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel was not closed")
		}
	}
}

func requireEmpty(t *testing.T, ch <-chan any) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected event %v", v)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_DeliversInPublishOrderToEveryListener(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx := context.Background()
	a, err := bus.Subscribe(ctx, TopicBookAdded)
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx, TopicBookAdded)
	require.NoError(t, err)

	for i := range 10 {
		bus.Publish(TopicBookAdded, i)
	}

	for _, ch := range []<-chan any{a, b} {
		for i := range 10 {
			assert.Equal(t, i, receive(t, ch))
		}
	}
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := New()
	defer bus.Close()

	other, err := bus.Subscribe(context.Background(), "other")
	require.NoError(t, err)

	bus.Publish(TopicBookAdded, "dune")
	requireEmpty(t, other)
}

func TestBus_NoReplay(t *testing.T) {
	bus := New()
	defer bus.Close()

	early, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)

	bus.Publish(TopicBookAdded, "first")
	assert.Equal(t, "first", receive(t, early))

	late, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)

	bus.Publish(TopicBookAdded, "second")
	assert.Equal(t, "second", receive(t, late))
	assert.Equal(t, "second", receive(t, early))
	requireEmpty(t, late)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	for i := range 100 {
		bus := New()

		for j := range 200 {
			bus.Publish(TopicBookAdded, j)
		}
		ch, err := bus.Subscribe(context.Background(), TopicBookAdded)
		require.NoError(t, err)

		select {
		case v := <-ch:
			bus.Close()
			t.Fatalf("iteration %d: subscriber received %v published before it subscribed", i, v)
		case <-time.After(2 * time.Millisecond):
		}
		bus.Close()
	}
}

func TestBus_LateSubscriberOnlySeesLaterEvents(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx := context.Background()
	early, err := bus.Subscribe(ctx, TopicBookAdded)
	require.NoError(t, err)

	for i := range 50 {
		bus.Publish(TopicBookAdded, i)
	}
	late, err := bus.Subscribe(ctx, TopicBookAdded)
	require.NoError(t, err)
	bus.Publish(TopicBookAdded, "after")

	assert.Equal(t, "after", receive(t, late))
	requireEmpty(t, late)

	for i := range 50 {
		assert.Equal(t, i, receive(t, early))
	}
	assert.Equal(t, "after", receive(t, early))
}

func TestBus_PublishDiscardsWhenInboxFull(t *testing.T) {
	bus := newBus(WithInboxSize(2))
	before := testutil.ToFloat64(discardedCounter.WithLabelValues(TopicBookAdded))

	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := range 5 {
			bus.Publish(TopicBookAdded, i)
		}
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full inbox")
	}

	assert.Len(t, bus.inbox, 2)
	assert.Equal(t, before+3, testutil.ToFloat64(discardedCounter.WithLabelValues(TopicBookAdded)))

	go bus.run()
	bus.Close()
}

func TestBus_ContextCancelUnsubscribes(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	gone, err := bus.Subscribe(ctx, TopicBookAdded)
	require.NoError(t, err)
	stay, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)

	cancel()
	requireClosed(t, gone)

	bus.Publish(TopicBookAdded, "after cancel")
	assert.Equal(t, "after cancel", receive(t, stay))
}

func TestBus_SubscribeWithDoneContext(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bus.Subscribe(ctx, TopicBookAdded)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBus_SlowListenerIsDetached(t *testing.T) {
	bus := New(WithListenerBuffer(2))
	defer bus.Close()

	slow, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)
	fast, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)

	for i := range 5 {
		bus.Publish(TopicBookAdded, i)
		assert.Equal(t, i, receive(t, fast))
	}

	// The slow listener keeps what fit in its buffer, then is closed.
	assert.Equal(t, 0, receive(t, slow))
	assert.Equal(t, 1, receive(t, slow))
	requireClosed(t, slow)
}

func TestBus_Close(t *testing.T) {
	bus := New()

	ch, err := bus.Subscribe(context.Background(), TopicBookAdded)
	require.NoError(t, err)

	bus.Close()
	requireClosed(t, ch)

	// Both are no-ops once closed.
	bus.Publish(TopicBookAdded, "late")
	bus.Close()

	_, err = bus.Subscribe(context.Background(), TopicBookAdded)
	assert.ErrorIs(t, err, ErrClosed)
}
