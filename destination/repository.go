package destination

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("destination not found")
	ErrAlreadyExists = errors.New("destination already exists")
	ErrInvalid       = errors.New("invalid destination")
)

// Reader provides read operations for destinations
type Reader interface {
	Get(ctx context.Context, id string) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
}

// Writer provides write operations for destinations
type Writer interface {
	Save(ctx context.Context, d Destination) error
	Delete(ctx context.Context, id string) error
	/* RecordOutcome stamps LastTriggered with at
	 * A failure increments FailureCount, a success resets it to zero
	 */
	RecordOutcome(ctx context.Context, id string, delivered bool, at time.Time) error
}

type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
