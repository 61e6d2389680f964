package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/* Standard Webhooks signing for outbound deliveries
 * A destination holding a whsec_ secret gets every request signed with
 * HMAC-SHA256 over "{msg_id}.{unix_ts}.{body}"
 */

const (
	SecretPrefix = "whsec_"
	Version      = "v1"

	// Secrets must carry between 192 and 512 bits
	MinSecretBytes = 24
	MaxSecretBytes = 64

	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

var (
	ErrSecretSize       = fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	ErrSecretPrefix     = fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	ErrInvalidMessageID = errors.New("message ID must not contain '.'")
)

// Secret is a decoded signing key together with its encoded form
type Secret struct {
	raw     []byte
	encoded string
}

// GenerateSecret creates a random secret of size bytes
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, ErrSecretSize
	}

	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}

	return Secret{
		raw:     raw,
		encoded: SecretPrefix + base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// ParseSecret decodes a whsec_-prefixed secret
func ParseSecret(encoded string) (Secret, error) {
	b64, ok := strings.CutPrefix(encoded, SecretPrefix)
	if !ok {
		return Secret{}, ErrSecretPrefix
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, ErrSecretSize
	}

	return Secret{raw: raw, encoded: encoded}, nil
}

func (s Secret) String() string {
	return s.encoded
}

func (s Secret) Bytes() []byte {
	return s.raw
}

func (s Secret) IsZero() bool {
	return len(s.raw) == 0
}

// Signature is one versioned signature as carried in the webhook-signature header
type Signature struct {
	Version   string
	Signature string
}

// String returns "v1,<base64>"
func (s Signature) String() string {
	return s.Version + "," + s.Signature
}

// ParseSignature parses "version,signature"
func ParseSignature(sig string) (Signature, error) {
	version, value, ok := strings.Cut(sig, ",")
	if !ok {
		return Signature{}, fmt.Errorf("invalid signature format, expected 'version,signature'")
	}
	return Signature{Version: version, Signature: value}, nil
}

// Sign computes the v1 signature of body for msgID sent at timestamp
func Sign(secret Secret, msgID string, timestamp time.Time, body []byte) (Signature, error) {
	if strings.Contains(msgID, ".") {
		return Signature{}, ErrInvalidMessageID
	}
	return Signature{
		Version:   Version,
		Signature: base64.StdEncoding.EncodeToString(digest(secret, msgID, timestamp, body)),
	}, nil
}

// Headers returns the three Standard Webhooks headers for one outbound request
func Headers(secret Secret, msgID string, timestamp time.Time, body []byte) (map[string]string, error) {
	sig, err := Sign(secret, msgID, timestamp, body)
	if err != nil {
		return nil, fmt.Errorf("signing payload: %w", err)
	}
	return map[string]string{
		HeaderID:        msgID,
		HeaderTimestamp: strconv.FormatInt(timestamp.Unix(), 10),
		HeaderSignature: sig.String(),
	}, nil
}

// Verify checks sig against body in constant time
func Verify(secret Secret, msgID string, timestamp time.Time, body []byte, sig Signature) (bool, error) {
	if sig.Version != Version {
		return false, fmt.Errorf("unsupported signature version: %s", sig.Version)
	}
	if strings.Contains(msgID, ".") {
		return false, ErrInvalidMessageID
	}

	got, err := base64.StdEncoding.DecodeString(sig.Signature)
	if err != nil {
		return false, fmt.Errorf("decoding signature: %w", err)
	}

	return hmac.Equal(got, digest(secret, msgID, timestamp, body)), nil
}

// VerifyMultiple accepts the request when any signature matches any secret.
// Receivers use it while rotating secrets.
func VerifyMultiple(secrets []Secret, msgID string, timestamp time.Time, body []byte, sigs []Signature) (bool, error) {
	if len(secrets) == 0 || len(sigs) == 0 {
		return false, fmt.Errorf("must provide at least one secret and one signature")
	}

	for _, sig := range sigs {
		for _, secret := range secrets {
			if ok, err := Verify(secret, msgID, timestamp, body, sig); err == nil && ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// ParseSignatureHeader splits a space-delimited list such as "v1,abc v1,def"
func ParseSignatureHeader(header string) ([]Signature, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return nil, fmt.Errorf("signature header is empty")
	}

	sigs := make([]Signature, 0, len(fields))
	for _, f := range fields {
		sig, err := ParseSignature(f)
		if err != nil {
			return nil, fmt.Errorf("parsing signature '%s': %w", f, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// BuildSignatureHeader joins signatures into a header value
func BuildSignatureHeader(sigs []Signature) string {
	parts := make([]string, len(sigs))
	for i, sig := range sigs {
		parts[i] = sig.String()
	}
	return strings.Join(parts, " ")
}

func digest(secret Secret, msgID string, timestamp time.Time, body []byte) []byte {
	mac := hmac.New(sha256.New, secret.Bytes())
	mac.Write([]byte(msgID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
