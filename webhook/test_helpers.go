package webhook

import (
	"github.com/stretchr/testify/mock"

	"github.com/marcelsud/webhook-dispatch/webhook/delivery"
)

// MatchDelivery creates a custom matcher for delivery arguments in mocks
func MatchDelivery(matcher func(Delivery) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchConfig creates a custom matcher for delivery configuration arguments in mocks
func MatchConfig(matcher func(delivery.Config) bool) interface{} {
	return mock.MatchedBy(matcher)
}
