package destination

import "strings"

/* Channel selects how notification messages are shaped before delivery
 * The set is open: unknown tags fall back to Generic
 */
type Channel int

const (
	Generic Channel = iota + 1
	Discord
	Slack
)

// String returns the string representation of the channel
func (c Channel) String() string {
	switch c {
	case Discord:
		return "discord"
	case Slack:
		return "slack"
	default:
		return "generic"
	}
}

// NewChannel creates a Channel from a tag; anything unrecognized is Generic
func NewChannel(s string) Channel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "discord":
		return Discord
	case "slack":
		return Slack
	default:
		return Generic
	}
}
