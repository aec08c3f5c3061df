package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Identifier is a station identifier as it appeared in the source record.
// RIS-Stations has served the same field as a JSON string in one schema
// version and as a number in another, so the literal is kept verbatim.
type Identifier struct {
	raw json.RawMessage
}

// NewIdentifier wraps a raw JSON literal. Falsy literals (null, "", 0, false)
// and non-scalar values produce the zero Identifier.
func NewIdentifier(raw json.RawMessage) Identifier {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Identifier{}
	}
	switch raw[0] {
	case 'n', 'f', '{', '[':
		return Identifier{}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return Identifier{}
		}
	case 't':
		// true is truthy but never a usable identifier.
		return Identifier{}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return Identifier{}
		}
		if f, err := n.Float64(); err != nil || f == 0 {
			return Identifier{}
		}
	}
	return Identifier{raw: append(json.RawMessage(nil), raw...)}
}

// StringIdentifier builds an Identifier holding a JSON string.
func StringIdentifier(s string) Identifier {
	b, _ := json.Marshal(s)
	return NewIdentifier(b)
}

// IsZero reports whether the identifier is absent.
func (id Identifier) IsZero() bool { return len(id.raw) == 0 }

// String renders the identifier as bare text: strings unquoted, numbers as
// written in the source. Absent identifiers render as "".
func (id Identifier) String() string {
	if id.IsZero() {
		return ""
	}
	if id.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(id.raw, &s); err == nil {
			return s
		}
		return strings.Trim(string(id.raw), `"`)
	}
	return string(id.raw)
}

// MarshalJSON writes the original literal, or null when absent.
func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON accepts any JSON value; unusable values leave the identifier absent.
func (id *Identifier) UnmarshalJSON(data []byte) error {
	*id = NewIdentifier(data)
	return nil
}
