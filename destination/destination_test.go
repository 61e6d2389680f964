package destination_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelsud/webhook-dispatch/destination"
	"github.com/marcelsud/webhook-dispatch/webhook/signature"
)

func intPtr(v int) *int { return &v }

func durPtr(v time.Duration) *time.Duration { return &v }

func TestNewChannel(t *testing.T) {
	tests := []struct {
		in   string
		want destination.Channel
	}{
		{"discord", destination.Discord},
		{"Slack", destination.Slack},
		{" slack ", destination.Slack},
		{"generic", destination.Generic},
		{"teams", destination.Generic},
		{"", destination.Generic},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, destination.NewChannel(tt.in), tt.in)
	}

	assert.Equal(t, "discord", destination.Discord.String())
	assert.Equal(t, "slack", destination.Slack.String())
	assert.Equal(t, "generic", destination.Generic.String())
	assert.Equal(t, "generic", destination.Channel(0).String())
}

func TestDestination_Validate(t *testing.T) {
	secret, err := signature.GenerateSecret(32)
	require.NoError(t, err)

	valid := destination.Destination{
		ID:      "wh-1",
		URL:     "https://hooks.example.com/in",
		Channel: destination.Slack,
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())

		withOverrides := valid
		withOverrides.MaxRetries = intPtr(3)
		withOverrides.RetryDelay = durPtr(2 * time.Second)
		withOverrides.SuccessStatusCodes = []int{200, 202}
		withOverrides.Secret = secret.String()
		assert.NoError(t, withOverrides.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*destination.Destination)
	}{
		{"missing id", func(d *destination.Destination) { d.ID = "" }},
		{"missing url", func(d *destination.Destination) { d.URL = "" }},
		{"non http url", func(d *destination.Destination) { d.URL = "not a url" }},
		{"negative retries", func(d *destination.Destination) { d.MaxRetries = intPtr(-1) }},
		{"too many retries", func(d *destination.Destination) { d.MaxRetries = intPtr(50) }},
		{"delay too long", func(d *destination.Destination) { d.RetryDelay = durPtr(time.Hour) }},
		{"bad status code", func(d *destination.Destination) { d.SuccessStatusCodes = []int{200, 42} }},
		{"malformed secret", func(d *destination.Destination) { d.Secret = "whsec_short" }},
		{"secret without prefix", func(d *destination.Destination) { d.Secret = "plain-secret" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			assert.ErrorIs(t, d.Validate(), destination.ErrInvalid)
		})
	}
}

func TestDestination_SigningSecret(t *testing.T) {
	secret, err := signature.GenerateSecret(32)
	require.NoError(t, err)

	_, ok, err := destination.Destination{}.SigningSecret()
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := destination.Destination{Secret: secret.String()}.SigningSecret()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, secret.Bytes(), got.Bytes())

	_, _, err = destination.Destination{Secret: "whsec_???"}.SigningSecret()
	assert.Error(t, err)
}

func TestDestination_Redacted(t *testing.T) {
	d := destination.Destination{
		ID:      "wh-1",
		Secret:  "whsec_abc",
		Headers: map[string]string{"Authorization": "Bearer token"},
	}

	r := d.Redacted()
	assert.NotEqual(t, d.Secret, r.Secret)
	assert.NotEqual(t, "Bearer token", r.Headers["Authorization"])
	assert.Contains(t, r.Headers, "Authorization")

	// The original is untouched
	assert.Equal(t, "Bearer token", d.Headers["Authorization"])
	assert.Empty(t, destination.Destination{}.Redacted().Secret)
}
