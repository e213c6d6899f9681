package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MoJuiceX/clawcombat/config"
	"github.com/MoJuiceX/clawcombat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDelivery(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body["event"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotifyConfig{QueueSize: 8, RatePerS: 100}, nil, nil)
	defer n.Stop()

	n.Notify(srv.URL, EventBattleEnd, map[string]int{"winner": 1})

	select {
	case ev := <-received:
		assert.JSONEq(t, `"battle_end"`, string(ev))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

// Notify must return immediately even when nothing consumes the queue and
// the endpoint is unreachable.
func TestNotifyNeverBlocks(t *testing.T) {
	n := NewWebhookNotifier(config.NotifyConfig{QueueSize: 2, RatePerS: 1}, nil, nil)
	defer n.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.Notify("http://127.0.0.1:1/unreachable", EventTurnResult, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Notify blocked")
	}
}

func TestEventsMirroredToPubSub(t *testing.T) {
	_, ps := testutil.SetupTestCache(t)
	ch, cancel, err := ps.Subscribe(context.Background(), Channel)
	require.NoError(t, err)
	defer cancel()

	n := NewWebhookNotifier(config.NotifyConfig{QueueSize: 8, RatePerS: 100}, ps, nil)
	defer n.Stop()

	// Empty recipient: pub/sub broadcast only, no webhook.
	n.Notify("", EventBattleStart, map[string]string{"battle": "b-1"})

	select {
	case msg := <-ch:
		assert.Equal(t, Channel, msg.Channel)
		assert.Contains(t, msg.Payload, "battle_start")
	case <-time.After(2 * time.Second):
		t.Fatal("event not broadcast")
	}
}

func TestFailedDeliveryIsSwallowed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotifyConfig{QueueSize: 8, RatePerS: 100}, nil, nil)
	defer n.Stop()

	n.Notify(srv.URL, EventForfeit, nil)

	assert.Eventually(t, func() bool { return calls.Load() == 1 },
		2*time.Second, 10*time.Millisecond, "one attempt, no retries")
}
