// Package invoke exposes operations as callable tools that build, sign and
// dispatch HTTP requests.
package invoke

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolah/oink/internal/auth"
	"github.com/kolah/oink/internal/inputschema"
	"github.com/kolah/oink/internal/model"
	"github.com/kolah/oink/internal/request"
)

type Option func(*toolOptions)

type toolOptions struct {
	client    *http.Client
	logger    zerolog.Logger
	validator RequestValidator
}

// RequestValidator vets a built request before it is signed and sent.
type RequestValidator interface {
	Validate(req *http.Request) error
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *toolOptions) {
		if client != nil {
			o.client = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *toolOptions) {
		o.logger = logger
	}
}

// WithRequestValidator rejects requests that fail v without sending them.
func WithRequestValidator(v RequestValidator) Option {
	return func(o *toolOptions) {
		o.validator = v
	}
}

func newToolOptions(opts []Option) toolOptions {
	o := toolOptions{client: http.DefaultClient, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tool is one invocable operation. A Tool holds no per-call state and may be
// invoked concurrently.
type Tool struct {
	Name        string
	Description string
	InputSchema *inputschema.InputSchema

	target    request.Target
	auth      auth.Authenticator
	client    *http.Client
	logger    zerolog.Logger
	validator RequestValidator
}

// NewTool fails with *model.UnsupportedMethodError when the operation uses a
// method that cannot be dispatched. A nil authenticator means no auth.
func NewTool(name string, target request.Target, resolver model.SchemaResolver, authenticator auth.Authenticator, opts ...Option) (*Tool, error) {
	if target.Operation == nil {
		return nil, fmt.Errorf("tool %s: operation is required", name)
	}
	if err := target.Operation.Method.Validate(); err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	if authenticator == nil {
		authenticator = auth.NoOp{}
	}

	o := newToolOptions(opts)
	return &Tool{
		Name:        name,
		Description: Describe(target.Operation),
		InputSchema: inputschema.Synthesize(target.Operation, resolver),
		target:      target,
		auth:        authenticator,
		client:      o.client,
		logger:      o.logger.With().Str("tool", name).Logger(),
		validator:   o.validator,
	}, nil
}

// Operation returns the operation the tool dispatches.
func (t *Tool) Operation() *model.Operation {
	return t.target.Operation
}

// Describe picks the summary, then the description, then "METHOD path".
func Describe(op *model.Operation) string {
	desc := strings.TrimSpace(op.Summary)
	if desc == "" {
		desc = strings.TrimSpace(op.Description)
	}
	if desc == "" {
		desc = string(op.Method) + " " + op.Path
	}
	if op.Deprecated {
		desc = "[DEPRECATED] " + desc
	}
	return desc
}

// Invoke builds, signs and sends the request and renders the response. The
// returned error is non-nil only when ctx is canceled or its deadline passes;
// every other failure becomes a Result with IsError set.
func (t *Tool) Invoke(ctx context.Context, args *request.Arguments) (result *Result, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Msg("invocation panicked")
			result, err = errorResult(fmt.Errorf("internal error: %v", r)), nil
		}
	}()

	result, err = t.invoke(ctx, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			t.logger.Debug().Err(ctxErr).Dur("duration", time.Since(start)).Msg("invocation canceled")
			return nil, ctxErr
		}
		t.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("invocation failed")
		return errorResult(err), nil
	}

	t.logger.Debug().Dur("duration", time.Since(start)).Msg("invocation succeeded")
	return result, nil
}

func (t *Tool) invoke(ctx context.Context, args *request.Arguments) (*Result, error) {
	built, err := request.Build(t.target, args)
	if err != nil {
		return nil, err
	}

	req, err := built.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	if t.validator != nil {
		if err := t.validator.Validate(req); err != nil {
			return nil, err
		}
	}

	if err := t.auth.Sign(req, built.QueryValues(), built.BodyFields); err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	t.logger.Debug().
		Str("method", built.Method).
		Str("url", built.URL).
		Int("status", resp.StatusCode).
		Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
			Body:       string(body),
		}
	}

	content, err := formatBody(body, resp.StatusCode)
	if err != nil {
		return nil, err
	}
	return &Result{Content: content}, nil
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
