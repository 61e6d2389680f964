package format

import "github.com/marcelsud/webhook-dispatch/webhook/payload"

/* Channel formatters turn a plain notification message into the body a
 * channel's incoming-webhook endpoint expects. They are pure functions:
 * the same message always yields the same structure.
 */

const slackHeading = "*Notification:*\n"

// DiscordPayload is the body accepted by a Discord incoming webhook
type DiscordPayload struct {
	Content string `json:"content"`
}

// SlackPayload is the body accepted by a Slack incoming webhook.
// Text is the fallback shown in notifications, Blocks the rendered message.
type SlackPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type string    `json:"type"`
	Text SlackText `json:"text"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Discord formats a message for a Discord webhook
func Discord(message string) DiscordPayload {
	return DiscordPayload{Content: message}
}

// Slack formats a message as a single mrkdwn section
func Slack(message string) SlackPayload {
	return SlackPayload{
		Text: message,
		Blocks: []SlackBlock{
			{
				Type: "section",
				Text: SlackText{
					Type: "mrkdwn",
					Text: slackHeading + message,
				},
			},
		},
	}
}

// Generic passes the payload through untouched
func Generic(p payload.Payload) payload.Payload {
	return p
}
