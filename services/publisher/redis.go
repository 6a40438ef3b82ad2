package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"sjsage522/dealaggregator/pkg/errors"
)

// MessageField is the stream entry field holding the base64 payload
const MessageField = "b64_deals"

// RedisPublisher implements Publisher using Redis streams, one stream per
// source named <prefix>:<source>.
type RedisPublisher struct {
	client          *redis.Client
	streamPrefix    string
	streamMaxLength int64
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(addr string, db int, streamPrefix string, streamMaxLength int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		streamPrefix:    streamPrefix,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Stream returns the stream name of a source
func (p *RedisPublisher) Stream(sourceID string) string {
	return p.streamPrefix + ":" + sourceID
}

// Publish publishes a message to the source's Redis stream
// The message is base64 encoded before publishing
func (p *RedisPublisher) Publish(ctx context.Context, sourceID string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream(sourceID),
		MaxLen: p.streamMaxLength,
		Approx: true,
		Values: map[string]interface{}{
			MessageField: encodedMessage,
		},
	}).Err()
	if err != nil {
		return errors.NewPublisher(sourceID, "xadd failed", err)
	}
	return nil
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	iter := p.client.Scan(ctx, 0, p.streamPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := p.client.XTrimMaxLen(ctx, iter.Val(), p.streamMaxLength).Err(); err != nil {
			return errors.NewPublisher(iter.Val(), "xtrim failed", err)
		}
	}
	if err := iter.Err(); err != nil {
		return errors.NewPublisher("", "scan failed", err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
