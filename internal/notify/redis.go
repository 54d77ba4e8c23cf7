package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes local change events so that other instances sharing
// the database can refresh their clients and caches.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a sink publishing to channel.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Deliver publishes ev. Events relayed from other instances are not
// published again.
func (s *RedisSink) Deliver(ctx context.Context, ev Event) error {
	if ev.Origin == "" {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.channel, err)
	}
	return nil
}

// RelayFromRedis subscribes to channel and republishes events raised by other
// instances through d. It returns when ctx is done.
func RelayFromRedis(ctx context.Context, client *redis.Client, channel string, d *Dispatcher) {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	ch := sub.Channel()

	log.Printf("[relay] listening for change events on %s", channel)
	for {
		select {
		case <-ctx.Done():
			log.Println("[relay] shutting down")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, relay := decodeRemote(msg.Payload, d.Origin())
			if !relay {
				continue
			}
			d.Publish(ctx, ev)
		}
	}
}

// decodeRemote parses a published event. Events from self and unreadable
// payloads are skipped. The origin is cleared so sinks know the event is
// a relay.
func decodeRemote(payload, self string) (Event, bool) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[relay] failed to parse event: %v", err)
		return Event{}, false
	}
	if ev.Origin == self {
		return Event{}, false
	}
	ev.Origin = ""
	return ev, true
}
