package ports

import (
	"context"

	"github.com/slothsintel/AutoVisuals/internal/domain/entity/event"
)

// EventHandler processes one decoded gateway message. A non-nil error tells
// the source the message was not consumed; what happens next (requeue, drop,
// dead-letter) is the adapter's business.
type EventHandler func(ctx context.Context, msg *event.Message) error

// EventSource is a subscription to the stream of chat messages the gateway
// publishes.
type EventSource interface {
	// Subscribe delivers messages to handler one at a time until ctx is
	// canceled or Close is called. It blocks for the life of the
	// subscription and returns nil on a clean shutdown.
	Subscribe(ctx context.Context, handler EventHandler) error

	// Close tears the subscription down and releases the connection.
	// Safe to call more than once.
	Close() error
}
