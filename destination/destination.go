package destination

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/marcelsud/webhook-dispatch/webhook/signature"
)

const redacted = "********"

var validate = validator.New(validator.WithRequiredStructEnabled())

/* Destination is a registered webhook endpoint
 * MaxRetries, RetryDelay and SuccessStatusCodes override the service-wide
 * delivery defaults when set
 */
type Destination struct {
	ID                 string `validate:"required,max=128"`
	URL                string `validate:"required,http_url"`
	Channel            Channel
	Headers            map[string]string
	Secret             string
	Active             bool
	MaxRetries         *int           `validate:"omitempty,min=0,max=10"`
	RetryDelay         *time.Duration `validate:"omitempty,min=0,max=5m"`
	SuccessStatusCodes []int          `validate:"omitempty,dive,min=100,max=599"`
	FailureCount       int
	LastTriggered      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks the destination fields and, when set, the signing secret
func (d Destination) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, d.ID, err)
	}
	if d.Secret != "" {
		if _, err := signature.ParseSecret(d.Secret); err != nil {
			return fmt.Errorf("%w %q: secret: %w", ErrInvalid, d.ID, err)
		}
	}
	return nil
}

// SigningSecret returns the parsed secret, or false when the destination is unsigned
func (d Destination) SigningSecret() (signature.Secret, bool, error) {
	if d.Secret == "" {
		return signature.Secret{}, false, nil
	}
	s, err := signature.ParseSecret(d.Secret)
	if err != nil {
		return signature.Secret{}, false, fmt.Errorf("parsing secret: %w", err)
	}
	return s, true, nil
}

// Redacted returns a copy safe to show to API clients
func (d Destination) Redacted() Destination {
	out := d
	if out.Secret != "" {
		out.Secret = redacted
	}
	if len(d.Headers) > 0 {
		out.Headers = make(map[string]string, len(d.Headers))
		for k := range d.Headers {
			out.Headers[k] = redacted
		}
	}
	return out
}
