package publisher

import "context"

// Publisher represents a service for publishing scrape results
type Publisher interface {
	// Publish appends a message to the stream of a source
	Publish(ctx context.Context, sourceID string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
