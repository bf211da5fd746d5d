package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fields is an ordered key/value mapping. Keys keep the position of their
// first insertion; setting an existing key replaces its value in place.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields builds Fields from alternating key/value pairs. It panics on an
// odd argument count or a non-string key, so it is meant for literals.
func NewFields(kv ...any) Fields {
	if len(kv)%2 != 0 {
		panic("models.NewFields: odd number of arguments")
	}
	var f Fields
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("models.NewFields: key %v is not a string", kv[i]))
		}
		f.Set(key, kv[i+1])
	}
	return f
}

// Set stores value under key.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, exists := f.values[key]; !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// GetString returns the value under key formatted as text, or "" if absent.
func (f Fields) GetString(key string) string {
	v, ok := f.values[key]
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Keys returns a copy of the keys in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f Fields) Len() int {
	return len(f.keys)
}

// Range calls fn for every entry in order.
func (f Fields) Range(fn func(key string, value any)) {
	for _, k := range f.keys {
		fn(k, f.values[k])
	}
}

// Clone returns an independent copy. Values are copied shallowly.
func (f Fields) Clone() Fields {
	var out Fields
	f.Range(out.Set)
	return out
}

// FormatValue renders a raw cell value as text. nil becomes "".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Numbers are kept as
// json.Number so their original text survives a round trip.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = Fields{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", tok)
	}

	var out Fields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("fields: decoding %q: %w", key, err)
		}
		value, err := decodeRaw(raw)
		if err != nil {
			return fmt.Errorf("fields: decoding %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}

func decodeRaw(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
