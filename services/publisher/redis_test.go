package publisher

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher("localhost:6379", 0, "test_deals", 5)
	defer publisher.Close()

	if err := publisher.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	stream := publisher.Stream("zuzu")
	assert.Equal(t, "test_deals:zuzu", stream)
	require.NoError(t, client.Del(ctx, stream).Err())

	for i := 0; i < 20; i++ {
		require.NoError(t, publisher.Publish(ctx, "zuzu", []byte("test_message")))
	}

	messages, err := client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	// base64 of "test_message"
	assert.Equal(t, "dGVzdF9tZXNzYWdl", messages[0].Values[MessageField])

	require.NoError(t, publisher.TrimStreams(ctx))
	length, err := client.XLen(ctx, stream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(5), length)

	require.NoError(t, client.Del(ctx, stream).Err())
}
