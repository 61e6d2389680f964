package webhook

import "errors"

// Dispatch errors are returned wrapped with the webhook ID; compare with errors.Is
var (
	ErrNotFound            = errors.New("webhook not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidChannel      = errors.New("invalid channel for payload")
	ErrDestinationInactive = errors.New("webhook destination is inactive")
	ErrDeliveryNotFound    = errors.New("delivery not found")
	ErrQueueUnavailable    = errors.New("delivery queue not configured")
)
