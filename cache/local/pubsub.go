package local

import (
	"context"
	"sync"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

// LocalPubSub is the in-process fan-out used for battle event broadcast when
// no Redis is configured. Delivery is best-effort: a full subscriber buffer
// drops the message rather than blocking the publisher, matching the
// fire-and-forget contract of the notifier that publishes here.
type LocalPubSub struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[string]map[int]chan *LocalMessage
	bufSize int
}

// NewPubSub creates a LocalPubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subs:    make(map[string]map[int]chan *LocalMessage),
		bufSize: bufSize,
	}
}

// Publish fans a message out to every subscriber of the channel. Slow
// subscribers miss messages; the publisher never waits.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, ch := range ps.subs[channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe returns a message channel fed by all the given channels and a
// cancel function that detaches the subscriber and closes the channel.
// Cancel is idempotent.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	ch := make(chan *LocalMessage, ps.bufSize)

	ps.mu.Lock()
	ps.nextID++
	id := ps.nextID
	for _, c := range channels {
		if ps.subs[c] == nil {
			ps.subs[c] = make(map[int]chan *LocalMessage)
		}
		ps.subs[c][id] = ch
	}
	ps.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			ps.mu.Lock()
			defer ps.mu.Unlock()
			for _, c := range channels {
				delete(ps.subs[c], id)
				if len(ps.subs[c]) == 0 {
					delete(ps.subs, c)
				}
			}
			close(ch)
		})
	}

	return ch, cancel, nil
}
