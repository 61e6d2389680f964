package webhook

import (
	"context"
	"time"
)

/* Small, focused interfaces over the delivery log
 * The sync dispatch path needs none of them
 */

// Reader provides read operations for deliveries
type Reader interface {
	Get(ctx context.Context, id string) (Delivery, error)
}

// Writer provides write operations for deliveries
type Writer interface {
	// Store records a pending delivery and appends it to its destination stream
	Store(ctx context.Context, d Delivery) (string, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	// SetTTL expires a delivery record once it reached a terminal state
	SetTTL(ctx context.Context, id string, ttl time.Duration) error
}

// StreamConsumer provides operations for consuming deliveries from streams
type StreamConsumer interface {
	/* Consume reads deliveries queued for a destination
	 * Blocks briefly and returns an empty slice when nothing is waiting
	 */
	Consume(ctx context.Context, destinationID string) ([]Delivery, error)
	// Acknowledge removes a delivery from the consumer group's pending list and
	// drops its stream message ID key
	Acknowledge(ctx context.Context, destinationID, deliveryID string) error
}

type Repository interface {
	Reader
	Writer
	StreamConsumer
	Close(ctx context.Context) error
}
