package request

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coerce renders an argument value for a URL, header or cookie. Strings pass
// through unquoted, json.Number keeps its literal text, nil becomes "null" and
// every other value is rendered as compact JSON.
func Coerce(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "null", nil
	}
	data, err := encodeJSON(v)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}
	return string(data), nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
