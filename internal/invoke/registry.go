package invoke

import (
	"context"
	"fmt"
	"slices"

	"github.com/kolah/oink/internal/auth"
	"github.com/kolah/oink/internal/model"
	"github.com/kolah/oink/internal/naming"
	"github.com/kolah/oink/internal/request"
)

// Filter selects operations by tag. When IncludeTags is set only operations
// carrying one of them are kept; ExcludeTags always wins.
type Filter struct {
	IncludeTags []string
	ExcludeTags []string
}

func (f Filter) Match(op *model.Operation) bool {
	for _, tag := range f.ExcludeTags {
		if op.HasTag(tag) {
			return false
		}
	}
	if len(f.IncludeTags) == 0 {
		return true
	}
	return slices.ContainsFunc(f.IncludeTags, op.HasTag)
}

// Registry holds the tools built from a document, in document order.
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
}

// Build creates one tool per operation that passes filter. baseURL falls
// back to the document's first server. Operations with methods that cannot
// be dispatched fail the whole build.
func Build(spec *model.Spec, baseURL string, authenticator auth.Authenticator, filter Filter, opts ...Option) (*Registry, error) {
	if baseURL == "" {
		baseURL = spec.DefaultServerURL()
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base URL configured and the document declares no servers")
	}

	r := &Registry{byName: make(map[string]*Tool)}
	namer := naming.NewNamer()

	for i := range spec.Operations {
		op := &spec.Operations[i]
		if !filter.Match(op) {
			continue
		}

		target := request.Target{BaseURL: baseURL, Operation: op}
		tool, err := NewTool(namer.Name(op), target, spec, authenticator, opts...)
		if err != nil {
			return nil, err
		}

		r.tools = append(r.tools, tool)
		r.byName[tool.Name] = tool
	}

	return r, nil
}

func (r *Registry) Tools() []*Tool {
	return r.tools
}

func (r *Registry) Tool(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Call invokes the named tool. Unknown names produce an error result.
func (r *Registry) Call(ctx context.Context, name string, args *request.Arguments) (*Result, error) {
	t, ok := r.byName[name]
	if !ok {
		return errorResult(fmt.Errorf("unknown tool: %s", name)), nil
	}
	return t.Invoke(ctx, args)
}
