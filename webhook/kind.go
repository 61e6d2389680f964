package webhook

import "fmt"

/* Kind says how a queued delivery is dispatched
 * Raw goes through TriggerWebhook, Notification through TriggerNotification
 */
type Kind int

const (
	Raw Kind = iota + 1
	Notification
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Notification:
		return "notification"
	default:
		return "unknown"
	}
}

// NewKind creates a Kind from a string
func NewKind(s string) Kind {
	switch s {
	case "notification":
		return Notification
	default:
		return Raw
	}
}

// Validate checks if the kind is valid
func (k Kind) Validate() error {
	if k != Raw && k != Notification {
		return fmt.Errorf("invalid delivery kind: %d", k)
	}
	return nil
}
