// Package request turns an operation and a flat argument map into an HTTP request.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kolah/oink/internal/model"
)

const (
	ContentTypeJSON = "application/json"

	// bodyArgument carries a whole request body when its schema was not flattened.
	bodyArgument = "body"
)

// Target pairs an operation with the base URL it is served from.
type Target struct {
	BaseURL   string
	Operation *model.Operation
}

type Param struct {
	Name  string
	Value string
}

// Request is a fully resolved outgoing call. Query and BodyFields are kept
// alongside the encoded form because request signers need them.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
	Query       []Param
	BodyFields  map[string]any
}

// QueryValues returns the query parameters as url.Values.
func (r *Request) QueryValues() url.Values {
	values := make(url.Values, len(r.Query))
	for _, p := range r.Query {
		values.Add(p.Name, p.Value)
	}
	return values
}

// HTTPRequest materializes the request for dispatch.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, values := range r.Header {
		req.Header[name] = append([]string(nil), values...)
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	return req, nil
}

// Build routes every argument to its declared location. Arguments that match
// no declared parameter become JSON body fields, which are attached only for
// POST, PUT and PATCH. Declared parameters missing from args are skipped.
func Build(target Target, args *Arguments) (*Request, error) {
	op := target.Operation
	if op == nil {
		return nil, fmt.Errorf("no operation")
	}
	if err := op.Method.Validate(); err != nil {
		return nil, err
	}

	path := op.Path
	header := make(http.Header)
	var query []Param
	var cookies []string
	declared := make(map[string]struct{}, len(op.Parameters))

	for _, p := range op.Parameters {
		declared[p.Name] = struct{}{}

		raw, ok := args.Get(p.Name)
		if !ok {
			continue
		}
		value, err := Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}

		switch p.In {
		case model.LocationPath:
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(value))
		case model.LocationQuery:
			query = append(query, Param{Name: p.Name, Value: value})
		case model.LocationHeader:
			header.Set(p.Name, value)
		case model.LocationCookie:
			cookies = append(cookies, p.Name+"="+value)
		}
	}

	if len(cookies) > 0 {
		header.Set("Cookie", strings.Join(cookies, "; "))
	}

	body := NewArguments()
	for _, key := range args.Keys() {
		if _, ok := declared[key]; ok {
			continue
		}
		v, _ := args.Get(key)
		body.Set(key, v)
	}

	req := &Request{
		Method:     string(op.Method),
		URL:        buildURL(target.BaseURL, path, query),
		Header:     header,
		Query:      query,
		BodyFields: body.Map(),
	}

	if body.Len() > 0 && op.Method.AllowsBody() {
		payload, err := encodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		req.Body = payload
		req.ContentType = ContentTypeJSON
	}

	return req, nil
}

func encodeBody(body *Arguments) ([]byte, error) {
	if body.Len() == 1 {
		if v, ok := body.Get(bodyArgument); ok {
			return encodeJSON(v)
		}
	}
	return body.MarshalJSON()
}

func buildURL(baseURL, path string, query []Param) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(baseURL, "/"))
	sb.WriteByte('/')
	sb.WriteString(strings.TrimLeft(path, "/"))

	for i, p := range query {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}
