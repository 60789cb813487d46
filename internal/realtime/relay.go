package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// RedisRelay spreads hub publications over a redis pub/sub channel so that
// rooms span every server process subscribed to it.
type RedisRelay struct {
	rc      *redis.Client
	channel string
	hub     *Hub
	logger  log.FieldLogger

	readyOnce sync.Once
	ready     chan struct{}
}

var _ Relay = (*RedisRelay)(nil)

func NewRedisRelay(rc *redis.Client, channel string, hub *Hub, logger log.FieldLogger) *RedisRelay {
	return &RedisRelay{
		rc:      rc,
		channel: channel,
		hub:     hub,
		logger:  logger.WithField("channel", channel),
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the first subscription is confirmed.
func (r *RedisRelay) Ready() <-chan struct{} { return r.ready }

// Forward publishes the envelope. Failures only cost remote delivery.
func (r *RedisRelay) Forward(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		r.logger.WithError(err).Error("encode envelope")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.rc.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.WithError(err).WithField("event", env.Message.Event).Warn("relay publish failed")
	}
}

// Run feeds envelopes published by other processes into the local hub
// until ctx is done, resubscribing when the subscription drops.
func (r *RedisRelay) Run(ctx context.Context) {
	for {
		r.subscribe(ctx)
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (r *RedisRelay) subscribe(ctx context.Context) {
	sub := r.rc.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			r.logger.WithError(err).Error("subscribe")
		}
		return
	}
	r.readyOnce.Do(func() { close(r.ready) })

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.WithError(err).Error("unable to parse envelope")
				continue
			}
			if env.Origin == r.hub.ID() {
				continue
			}
			r.hub.Deliver(env)
		}
	}
}
