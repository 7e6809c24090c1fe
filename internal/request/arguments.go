package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/buger/jsonparser"
)

// Arguments is the caller-supplied argument map of one invocation. Key order
// is preserved so body fields serialize in the order the caller sent them.
type Arguments struct {
	keys   []string
	values map[string]any
}

func NewArguments() *Arguments {
	return &Arguments{values: make(map[string]any)}
}

// ArgumentsFromMap copies m, ordering keys alphabetically.
func ArgumentsFromMap(m map[string]any) *Arguments {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := NewArguments()
	for _, k := range keys {
		a.Set(k, m[k])
	}
	return a
}

// Set stores value under key. Re-setting a key keeps its original position.
func (a *Arguments) Set(key string, value any) *Arguments {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
	return a
}

func (a *Arguments) Get(key string) (any, bool) {
	if a == nil || a.values == nil {
		return nil, false
	}
	v, ok := a.values[key]
	return v, ok
}

func (a *Arguments) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Map returns an unordered copy of the arguments.
func (a *Arguments) Map() map[string]any {
	m := make(map[string]any, a.Len())
	if a == nil {
		return m
	}
	for _, k := range a.keys {
		m[k] = a.values[k]
	}
	return m
}

func (a *Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeJSON(k)
		if err != nil {
			return nil, err
		}
		value, err := encodeJSON(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding argument %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping its key order. Numbers decode
// as json.Number so integers keep their exact text.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	fresh := NewArguments()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = *fresh
		return nil
	}

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := jsonparser.ParseString(key)
		if err != nil {
			return err
		}
		v, err := decodeValue(value, dataType)
		if err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		fresh.Set(name, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}

	*a = *fresh
	return nil
}

func decodeValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Null:
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
