// Package auth authenticates against token endpoints and signs outgoing requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	SchemeOAuth2 = "oauth2"
	SchemeOAuth1 = "oauth1"
)

// ErrNotSupported is returned for configurations that cannot be honored,
// such as an unknown OAuth1 signature method.
var ErrNotSupported = errors.New("not supported")

// Authenticator obtains credentials and applies them to outgoing requests.
// Sign receives the query parameters and body fields of the request so that
// schemes signing over the full parameter set can do so.
type Authenticator interface {
	IsAuthenticated() bool
	Authenticate(ctx context.Context) error
	Sign(req *http.Request, query url.Values, body map[string]any) error
}

// AuthenticationError reports a failed handshake or a malformed token response.
type AuthenticationError struct {
	Scheme     string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s authentication failed: %s", e.Scheme, e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

type options struct {
	client *http.Client
	logger zerolog.Logger
	now    func() time.Time
	nonce  func() string
}

type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for OAuth1 timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithNonceSource overrides the OAuth1 nonce generator.
func WithNonceSource(nonce func() string) Option {
	return func(o *options) {
		o.nonce = nonce
	}
}

func newOptions(opts []Option) options {
	o := options{
		client: http.DefaultClient,
		logger: zerolog.Nop(),
		now:    time.Now,
		nonce:  randomNonce,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// randomNonce returns 32 random hex characters.
func randomNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NoOp is always authenticated and never touches the request.
type NoOp struct{}

func (NoOp) IsAuthenticated() bool { return true }

func (NoOp) Authenticate(context.Context) error { return nil }

func (NoOp) Sign(*http.Request, url.Values, map[string]any) error { return nil }

// Custom adapts a pair of functions to Authenticator. A nil AuthenticateFunc
// succeeds immediately and a nil SignFunc leaves requests untouched.
//
// A Custom starts unauthenticated and Sign is a no-op until Authenticate has
// succeeded once, so requests sent before that go out unsigned. Callers
// must run Authenticate before invoking tools with it.
type Custom struct {
	AuthenticateFunc func(ctx context.Context) error
	SignFunc         func(req *http.Request, query url.Values, body map[string]any) error

	authenticated atomic.Bool
}

func (c *Custom) IsAuthenticated() bool {
	return c.authenticated.Load()
}

func (c *Custom) Authenticate(ctx context.Context) error {
	if c.AuthenticateFunc != nil {
		if err := c.AuthenticateFunc(ctx); err != nil {
			return err
		}
	}
	c.authenticated.Store(true)
	return nil
}

func (c *Custom) Sign(req *http.Request, query url.Values, body map[string]any) error {
	if !c.IsAuthenticated() || c.SignFunc == nil {
		return nil
	}
	return c.SignFunc(req, query, body)
}
