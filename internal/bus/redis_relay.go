package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
)

const relayBuffer = 256

// relayMessage is the Pub/Sub wire format between instances.
type relayMessage struct {
	Origin     string `json:"origin"`
	Key        string `json:"key,omitempty"`
	StorageKey string `json:"storageKey,omitempty"`
}

// RedisRelay mirrors local bus changes onto a Redis Pub/Sub channel and
// replays changes from other instances on the local bus. There is no
// locking between instances: the last write to a key wins.
type RedisRelay struct {
	rdb        *redis.Client
	bus        *Bus
	channel    string
	instanceID string
	outbox     chan Change
	ready      chan struct{}
	log        zerolog.Logger
}

// NewRedisRelay creates a relay. Call Start to run it.
func NewRedisRelay(rdb *redis.Client, b *Bus, channel string, log zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		rdb:        rdb,
		bus:        b,
		channel:    channel,
		instanceID: uuid.New().String(),
		outbox:     make(chan Change, relayBuffer),
		ready:      make(chan struct{}),
		log:        log.With().Str("component", "redis_relay").Logger(),
	}
}

// Ready is closed once the relay listens on the bus and the channel.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Start runs the relay until ctx is cancelled. Local changes still queued
// at that point are published before Start returns. Call in a goroutine.
func (r *RedisRelay) Start(ctx context.Context) {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so no early message is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		r.log.Error().Err(err).Msg("Subscribe failed")
		return
	}

	unsubscribe := r.bus.OnAny(func(c Change) {
		if c.Remote {
			return
		}
		select {
		case r.outbox <- c:
		default:
			r.log.Warn().Str("key", c.StorageKey()).Msg("Relay outbox full, dropping change")
		}
	})
	defer unsubscribe()
	close(r.ready)

	r.log.Info().Str("channel", r.channel).Str("instance", r.instanceID).Msg("Relay started")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.log.Info().Msg("Relay stopped")
			return
		case c := <-r.outbox:
			r.publish(ctx, c)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *RedisRelay) drain() {
	for {
		select {
		case c := <-r.outbox:
			r.publish(context.Background(), c)
		default:
			return
		}
	}
}

func (r *RedisRelay) publish(ctx context.Context, c Change) {
	m := relayMessage{Origin: r.instanceID}
	if c.Inbox != nil {
		m.StorageKey = c.Inbox.StorageKey()
	} else {
		m.Key = c.Key
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.rdb.Publish(pubCtx, r.channel, raw).Err(); err != nil {
		r.log.Error().Err(err).Str("key", c.StorageKey()).Msg("Publish failed")
	}
}

func (r *RedisRelay) deliver(payload string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		r.log.Warn().Err(err).Msg("Malformed relay message")
		return
	}
	if m.Origin == r.instanceID {
		return
	}

	switch {
	case m.Key != "":
		r.bus.Publish(Change{Key: m.Key, Remote: true})
	case m.StorageKey != "":
		role, email, ok := config.StoreKey.ParseInbox(m.StorageKey)
		if !ok {
			return
		}
		r.bus.Publish(Change{Inbox: &model.InboxKey{Role: model.Role(role), Email: email}, Remote: true})
	}
}
