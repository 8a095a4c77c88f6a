package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultMaxLen = 10000

// Publisher appends meal events to a Redis stream.
type Publisher struct {
	rdb    redis.UniversalClient
	stream string
	logger zerolog.Logger
}

// NewPublisher connects to redisURL and verifies the connection.
func NewPublisher(ctx context.Context, redisURL, stream string, logger zerolog.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewPublisherWithClient(client, stream, logger), nil
}

func NewPublisherWithClient(rdb redis.UniversalClient, stream string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		rdb:    rdb,
		stream: stream,
		logger: logger.With().Str("component", "meal_events").Str("stream", stream).Logger(),
	}
}

// PublishMealEvent appends ev to the stream and returns the entry id.
// Failures are logged before being returned.
func (p *Publisher) PublishMealEvent(ctx context.Context, ev MealEvent) (string, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("marshal meal event: %w", err)
	}

	result := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: defaultMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"type":           ev.Type,
			"payload":        string(payload),
			"published_at":   time.Now().Unix(),
			"schema_version": SchemaVersionV1,
		},
	})
	if err := result.Err(); err != nil {
		p.logger.Warn().Err(err).Str("event", ev.Type).Str("meal_id", ev.MealID).Msg("publish meal event failed")
		return "", fmt.Errorf("publish to stream: %w", err)
	}

	p.logger.Debug().Str("event", ev.Type).Str("meal_id", ev.MealID).Str("entry_id", result.Val()).Msg("meal event published")
	return result.Val(), nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
