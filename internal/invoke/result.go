package invoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is what a caller receives from an invocation. Failures are reported
// through IsError with a human-readable Content, never as a Go error.
type Result struct {
	IsError bool   `json:"isError,omitempty"`
	Content string `json:"content"`
}

func errorResult(err error) *Result {
	return &Result{IsError: true, Content: err.Error()}
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("request failed with status %d", e.StatusCode)
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

type emptyBody struct {
	Success    bool `json:"success"`
	StatusCode int  `json:"statusCode"`
}

type rawBody struct {
	Content    string `json:"content"`
	StatusCode int    `json:"statusCode"`
}

// formatBody renders a successful response as indented JSON. Empty bodies
// and bodies that are not JSON are wrapped so the caller always gets JSON.
func formatBody(body []byte, statusCode int) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return indentValue(emptyBody{Success: true, StatusCode: statusCode})
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return indentValue(rawBody{Content: string(body), StatusCode: statusCode})
	}
	return buf.String(), nil
}

func indentValue(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
