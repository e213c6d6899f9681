package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/MoJuiceX/clawcombat/cache"
	"github.com/MoJuiceX/clawcombat/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Event types delivered to external participants.
const (
	EventBattleStart = "battle_start"
	EventTurnResult  = "turn_result"
	EventBattleEnd   = "battle_end"
	EventForfeit     = "forfeit"
)

// Channel is the pub/sub channel battle events are broadcast on.
const Channel = "battle.events"

// Notifier is the fire-and-forget delivery boundary. Callers never block on
// delivery and never observe delivery failures.
type Notifier interface {
	Notify(recipient string, eventType string, payload interface{})
}

type envelope struct {
	Recipient string
	Event     string
	Payload   json.RawMessage
}

// WebhookNotifier POSTs battle events to each recipient's webhook URL and
// mirrors every event onto the pub/sub channel. A bounded queue and a
// token-bucket limiter keep a slow or hostile endpoint from backing up into
// the resolver.
type WebhookNotifier struct {
	client  *http.Client
	queue   chan envelope
	limiter *rate.Limiter
	pubsub  cache.PubSub
	logger  *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewWebhookNotifier(cfg config.NotifyConfig, ps cache.PubSub, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	rps := cfg.RatePerS
	if rps <= 0 {
		rps = 20
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	n := &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		queue:   make(chan envelope, queueSize),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		pubsub:  ps,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	n.wg.Add(1)
	go n.worker()
	return n
}

// Notify enqueues an event. A full queue drops the event with a warning;
// the battle core never waits on a webhook.
func (n *WebhookNotifier) Notify(recipient, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("notify payload marshal failed", zap.Error(err))
		return
	}
	select {
	case n.queue <- envelope{Recipient: recipient, Event: eventType, Payload: body}:
	default:
		n.logger.Warn("notify queue full, dropping event",
			zap.String("event", eventType), zap.String("recipient", recipient))
	}
}

// Stop drains nothing: pending deliveries are abandoned, matching the
// fire-and-forget contract. It blocks until the worker exits.
func (n *WebhookNotifier) Stop() {
	select {
	case <-n.stopCh:
	default:
		close(n.stopCh)
	}
	n.wg.Wait()
}

func (n *WebhookNotifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case env := <-n.queue:
			n.deliver(env)
		case <-n.stopCh:
			return
		}
	}
}

func (n *WebhookNotifier) deliver(env envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
	defer cancel()

	if n.pubsub != nil {
		msg, _ := json.Marshal(map[string]interface{}{
			"recipient": env.Recipient,
			"event":     env.Event,
			"payload":   env.Payload,
		})
		if err := n.pubsub.Publish(ctx, Channel, string(msg)); err != nil {
			n.logger.Debug("pubsub publish failed", zap.Error(err))
		}
	}

	if env.Recipient == "" {
		return
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	doc, _ := json.Marshal(map[string]interface{}{
		"event":   env.Event,
		"payload": env.Payload,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, env.Recipient, bytes.NewReader(doc))
	if err != nil {
		n.logger.Warn("webhook request build failed",
			zap.String("recipient", env.Recipient), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("recipient", env.Recipient),
			zap.String("event", env.Event), zap.Error(err))
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook rejected",
			zap.String("recipient", env.Recipient),
			zap.Int("status", resp.StatusCode))
	}
}
