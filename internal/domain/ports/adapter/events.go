package adapter

import "context"

const TopicOrderSettled = "order.settled"

// EventPublisher emits integration events after a transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}
