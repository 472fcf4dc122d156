package pubsub

import (
	"context"
)

type Publisher interface {
	// Publish topic to message broker with payload.
	Publish(ctx context.Context, topic string, payload []byte) error
}

type PubSub interface {
	Publisher
	Subscribe(ctx context.Context, topic string, handler func(payload []byte) error) (Subscription, error)
	Close()
}

type Subscription interface {
	Unsubscribe() error
}

// FeedMessagesSubject carries every published or edited message as its full
// JSON encoding. Each live connection holds its own subscription, so all
// clients observe the same delivery order.
const FeedMessagesSubject = "feed.messages"
