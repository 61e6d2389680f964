package webhook

import (
	"time"

	"github.com/marcelsud/webhook-dispatch/webhook/payload"
)

/* Delivery is a dispatch queued for a worker
 * Uses value semantics as it represents data, not behavior
 */
type Delivery struct {
	ID            string
	DestinationID string
	Kind          Kind
	Payload       payload.Payload
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
