package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch1, cancel1, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	defer cancel2()

	require.NoError(t, ps.Publish(ctx, "battle.events", `{"event":"battle_end"}`))

	for _, ch := range []<-chan *LocalMessage{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal(t, "battle.events", msg.Channel)
			assert.Equal(t, `{"event":"battle_end"}`, msg.Payload)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestCancelClosesChannel(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing with no subscribers must not block or fail.
	assert.NoError(t, ps.Publish(ctx, "battle.events", "msg"))
}

func TestCancelIsIdempotent(t *testing.T) {
	ps := NewPubSub(16)
	_, cancel, err := ps.Subscribe(context.Background(), "battle.events")
	require.NoError(t, err)
	cancel()
	cancel() // second call must not panic on the closed channel
}

func TestSubscribersAreIndependent(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch1, cancel1, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	defer cancel1()
	_, cancel2, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	cancel2()

	require.NoError(t, ps.Publish(ctx, "battle.events", "still delivered"))
	select {
	case msg := <-ch1:
		assert.Equal(t, "still delivered", msg.Payload)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("remaining subscriber should keep receiving after another cancels")
	}
}

// A slow subscriber must never stall the publisher: the buffer fills and
// further messages are dropped for that subscriber only.
func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "battle.events")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = ps.Publish(ctx, "battle.events", "event")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
	assert.LessOrEqual(t, len(ch), 1)
}
