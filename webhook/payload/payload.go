package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

/* Payload is the message handed to a dispatch
 * It is either plain text or a JSON document, never both
 * Uses value semantics as it represents data, not behavior
 */

// Kind identifies which variant a Payload holds
type Kind int

const (
	Empty Kind = iota
	Text
	JSON
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Text:
		return "text"
	case JSON:
		return "json"
	default:
		return "unknown"
	}
}

// NewKind creates a Kind from a string
func NewKind(s string) Kind {
	switch s {
	case "text":
		return Text
	case "json":
		return JSON
	default:
		return Empty
	}
}

type Payload struct {
	kind Kind
	text string
	doc  json.RawMessage
}

// NewText wraps a plain string message
func NewText(s string) Payload {
	return Payload{kind: Text, text: s}
}

// NewJSON marshals v and wraps the resulting document
func NewJSON(v any) (Payload, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("marshaling payload: %w", err)
	}
	return Payload{kind: JSON, doc: doc}, nil
}

// Raw wraps an already encoded JSON document.
// Blank input and a literal null both yield an empty payload.
func Raw(b []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, nil
	}
	if !json.Valid(trimmed) {
		return Payload{}, fmt.Errorf("payload must be valid JSON")
	}

	// A top-level JSON string is a text message
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Payload{}, fmt.Errorf("unmarshaling text payload: %w", err)
		}
		return NewText(s), nil
	}

	doc := make(json.RawMessage, len(trimmed))
	copy(doc, trimmed)
	return Payload{kind: JSON, doc: doc}, nil
}

func (p Payload) Kind() Kind {
	return p.kind
}

func (p Payload) IsZero() bool {
	return p.kind == Empty
}

// Text returns the message when the payload holds text
func (p Payload) Text() (string, bool) {
	if p.kind != Text {
		return "", false
	}
	return p.text, true
}

// Bytes returns the wire body: text is sent as a JSON string, documents as-is, empty as nil
func (p Payload) Bytes() ([]byte, error) {
	switch p.kind {
	case Text:
		b, err := json.Marshal(p.text)
		if err != nil {
			return nil, fmt.Errorf("marshaling text payload: %w", err)
		}
		return b, nil
	case JSON:
		return p.doc, nil
	default:
		return nil, nil
	}
}

// MarshalJSON returns the JSON encoding of the payload
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.kind == Empty {
		return []byte("null"), nil
	}
	return p.Bytes()
}

// UnmarshalJSON parses the JSON-encoded data and stores the result
func (p *Payload) UnmarshalJSON(data []byte) error {
	parsed, err := Raw(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

/* Encode and Decode are the storage representation used by the delivery log
 * Text is stored unquoted so it stays readable in Redis
 */

// Encode returns the kind tag and the stored body
func (p Payload) Encode() (string, []byte) {
	switch p.kind {
	case Text:
		return p.kind.String(), []byte(p.text)
	case JSON:
		return p.kind.String(), p.doc
	default:
		return p.kind.String(), nil
	}
}

// Decode rebuilds a payload from its stored representation
func Decode(kind string, body []byte) (Payload, error) {
	switch NewKind(kind) {
	case Text:
		return NewText(string(body)), nil
	case JSON:
		if !json.Valid(body) {
			return Payload{}, fmt.Errorf("stored payload is not valid JSON")
		}
		return Payload{kind: JSON, doc: body}, nil
	default:
		return Payload{}, nil
	}
}
