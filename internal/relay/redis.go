package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	kindFrame = "frame"
	kindClose = "close"
)

type envelope struct {
	Kind    string  `json:"kind"`
	Message Message `json:"message"`
}

// RedisBroadcaster relays frames between server instances over redis pub/sub.
// Sessions stay local; every instance delivers what it receives through its
// own Hub, so a frame published once reaches members on all instances.
type RedisBroadcaster struct {
	client *redis.Client
	local  *Hub
	pubsub *redis.PubSub
	done   chan struct{}
	log    zerolog.Logger
}

// NewRedisBroadcaster subscribes to every document group and starts
// forwarding to local. Close stops it.
func NewRedisBroadcaster(ctx context.Context, client *redis.Client, local *Hub, log zerolog.Logger) (*RedisBroadcaster, error) {
	pubsub := client.PSubscribe(ctx, groupPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to document groups: %w", err)
	}
	b := &RedisBroadcaster{
		client: client,
		local:  local,
		pubsub: pubsub,
		done:   make(chan struct{}),
		log:    log.With().Str("component", "relay_redis").Logger(),
	}
	go b.run()
	return b, nil
}

func (b *RedisBroadcaster) run() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.log.Warn().Err(err).Str("group", msg.Channel).Msg("dropping malformed relay payload")
			continue
		}
		ctx := context.Background()
		switch env.Kind {
		case kindFrame:
			_ = b.local.Send(ctx, msg.Channel, env.Message)
		case kindClose:
			_ = b.local.CloseGroup(ctx, msg.Channel)
		}
	}
}

func (b *RedisBroadcaster) Join(ctx context.Context, s *Session) error {
	return b.local.Join(ctx, s)
}

func (b *RedisBroadcaster) Leave(s *Session) {
	b.local.Leave(s)
}

func (b *RedisBroadcaster) Send(ctx context.Context, group string, m Message) error {
	return b.publish(ctx, group, envelope{Kind: kindFrame, Message: m})
}

func (b *RedisBroadcaster) CloseGroup(ctx context.Context, group string) error {
	return b.publish(ctx, group, envelope{Kind: kindClose})
}

func (b *RedisBroadcaster) publish(ctx context.Context, group string, env envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, group, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", group, err)
	}
	return nil
}

// Close unsubscribes and waits for the forwarding loop to exit.
func (b *RedisBroadcaster) Close() error {
	err := b.pubsub.Close()
	<-b.done
	return err
}
