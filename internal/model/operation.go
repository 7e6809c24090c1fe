package model

import "fmt"

type Operation struct {
	ID          string
	Method      Method
	Path        string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []Response
	Deprecated  bool
	Security    []SecurityRequirement
	// Scalar x-* extensions, keyed by their full name (e.g. "x-rate-limit").
	Extensions map[string]string
}

// HasTag reports whether the operation carries the given tag.
func (o *Operation) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodQuery   Method = "QUERY" // OpenAPI 3.2, not invocable
)

// UnsupportedMethodError is returned for an operation whose method falls
// outside the invocable set. It is a configuration error and never retried.
type UnsupportedMethodError struct {
	Method Method
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported HTTP method: %q", string(e.Method))
}

// Validate checks that m is one of the eight invocable HTTP methods.
func (m Method) Validate() error {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete,
		MethodPatch, MethodHead, MethodOptions, MethodTrace:
		return nil
	}
	return &UnsupportedMethodError{Method: m}
}

// AllowsBody reports whether requests with this method carry a JSON body.
func (m Method) AllowsBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

type ParameterLocation string

const (
	LocationPath        ParameterLocation = "path"
	LocationQuery       ParameterLocation = "query"
	LocationHeader      ParameterLocation = "header"
	LocationCookie      ParameterLocation = "cookie"
	LocationQueryString ParameterLocation = "querystring" // OpenAPI 3.2
)

type Parameter struct {
	Name        string
	In          ParameterLocation
	Description string
	Required    bool
	Deprecated  bool
	Schema      *Schema
}

type RequestBody struct {
	Description string
	Required    bool
	Content     []MediaTypeContent
}

type MediaTypeContent struct {
	MediaType string
	Schema    *Schema
}

type Response struct {
	StatusCode  string
	Description string
	Content     []MediaTypeContent
}

type SecurityRequirement struct {
	Name   string
	Scopes []string
}
