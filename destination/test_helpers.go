package destination

import "github.com/stretchr/testify/mock"

// MatchDestination creates a custom matcher for destination arguments in mocks
func MatchDestination(matcher func(Destination) bool) interface{} {
	return mock.MatchedBy(matcher)
}
