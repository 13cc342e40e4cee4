package graph

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// PropertyBag is an open, order-preserving JSON object. Keys keep the order
// in which they first appeared; values keep their exact raw encoding. This is
// what lets arbitrary query projections round-trip through the client without
// field loss or reordering.
type PropertyBag struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewPropertyBag returns an empty bag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{values: make(map[string]json.RawMessage)}
}

// Len returns the number of keys in the bag.
func (b *PropertyBag) Len() int {
	return len(b.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (b *PropertyBag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Get returns the raw JSON value for key.
func (b *PropertyBag) Get(key string) (json.RawMessage, bool) {
	if b.values == nil {
		return nil, false
	}
	v, ok := b.values[key]
	return v, ok
}

// GetString returns the value for key if it is a JSON string.
func (b *PropertyBag) GetString(key string) (string, bool) {
	raw, ok := b.Get(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// SetRaw stores an already-encoded value. New keys append to the key order;
// existing keys keep their position.
func (b *PropertyBag) SetRaw(key string, raw json.RawMessage) {
	if b.values == nil {
		b.values = make(map[string]json.RawMessage)
	}
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = raw
}

// Set marshals value and stores it under key.
func (b *PropertyBag) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode property %q: %w", key, err)
	}
	b.SetRaw(key, raw)
	return nil
}

// Clone returns a deep copy of the bag.
func (b *PropertyBag) Clone() *PropertyBag {
	out := &PropertyBag{
		keys:   make([]string, len(b.keys)),
		values: make(map[string]json.RawMessage, len(b.values)),
	}
	copy(out.keys, b.keys)
	for k, v := range b.values {
		raw := make(json.RawMessage, len(v))
		copy(raw, v)
		out.values[k] = raw
	}
	return out
}

// MarshalJSON writes the bag as a JSON object with keys in insertion order.
func (b *PropertyBag) MarshalJSON() ([]byte, error) {
	if len(b.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(b.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, recording key order and keeping each
// value's raw bytes untouched. Duplicate keys keep the first position and the
// last value, matching ordinary JSON object semantics.
func (b *PropertyBag) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode property bag: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode property bag: expected object, got %v", tok)
	}

	b.keys = b.keys[:0]
	b.values = make(map[string]json.RawMessage)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode property key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode property key: unexpected token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode property %q: %w", key, err)
		}
		b.SetRaw(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode property bag close: %w", err)
	}
	return nil
}
