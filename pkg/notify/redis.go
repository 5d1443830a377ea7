package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the Redis pub/sub channel used for the book collection.
const DefaultChannel = "catalog:changed:book_book"

// Prometheus metrics for cross-process notifications.
var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_notify_published_total",
		Help: "Total number of change notifications published by outcome",
	}, []string{"outcome"})

	receivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_notify_received_total",
		Help: "Total number of change notifications received from other processes",
	})
)

// RedisPublisher is a Notifier that publishes each signal on a Redis channel
// so lists in other processes refresh too.
type RedisPublisher struct {
	redis   *redis.Client
	channel string
	origin  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher on channel.
func NewRedisPublisher(redisClient *redis.Client, channel string, logger zerolog.Logger) *RedisPublisher {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		redis:   redisClient,
		channel: channel,
		origin:  processOrigin(),
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Origin identifies messages published by this process.
func (p *RedisPublisher) Origin() string {
	return p.origin
}

// Publish sends one change signal.
func (p *RedisPublisher) Publish(ctx context.Context) error {
	if err := p.redis.Publish(ctx, p.channel, p.origin).Err(); err != nil {
		publishedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("redis publish: %w", err)
	}
	publishedTotal.WithLabelValues("ok").Inc()
	p.logger.Debug().Str("channel", p.channel).Msg("Published change notification")
	return nil
}

// NotifyChanged publishes with a bounded timeout. A failure is logged; the
// local create already succeeded and must not fail because of it.
func (p *RedisPublisher) NotifyChanged() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.Publish(ctx); err != nil {
		p.logger.Warn().Err(err).Str("channel", p.channel).Msg("Failed to publish change notification")
	}
}

// RedisSubscriber relays signals from a Redis channel to a local Notifier.
type RedisSubscriber struct {
	redis      *redis.Client
	channel    string
	target     Notifier
	skipOrigin string
	logger     zerolog.Logger
}

// NewRedisSubscriber creates a subscriber that forwards to target.
func NewRedisSubscriber(redisClient *redis.Client, channel string, target Notifier, logger zerolog.Logger) *RedisSubscriber {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSubscriber{
		redis:   redisClient,
		channel: channel,
		target:  target,
		logger:  logger,
	}
}

// SkipOrigin ignores messages published with origin, typically the local
// publisher whose signal the target already received directly.
func (s *RedisSubscriber) SkipOrigin(origin string) {
	s.skipOrigin = origin
}

// Run subscribes and forwards messages until ctx is done.
// It returns nil on context cancellation.
func (s *RedisSubscriber) Run(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe %s: %w", s.channel, err)
	}

	s.logger.Info().Str("channel", s.channel).Msg("Listening for change notifications")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", s.channel)
			}
			if s.skipOrigin != "" && msg.Payload == s.skipOrigin {
				continue
			}
			receivedTotal.Inc()
			s.logger.Debug().
				Str("channel", msg.Channel).
				Str("origin", msg.Payload).
				Msg("Received change notification")
			s.target.NotifyChanged()
		}
	}
}

func processOrigin() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return host + ":" + ulid.Make().String()
}
