// Package inputschema derives the JSON Schema a tool accepts from the
// parameters and request body of an operation.
package inputschema

import (
	"strings"

	"github.com/kolah/oink/internal/model"
	"github.com/kolah/oink/internal/request"
)

// BodyProperty names the synthetic property that carries a request body which
// could not be flattened into top-level properties.
const BodyProperty = "body"

// maxDepth bounds nesting for pathological documents.
const maxDepth = 32

// InputSchema is the object schema describing a tool's arguments. Properties
// is always emitted; Required only when non-empty.
type InputSchema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties"`
	Required   []string           `json:"required,omitempty"`
}

type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Format      string             `json:"format,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinLength   *int64             `json:"minLength,omitempty"`
	MaxLength   *int64             `json:"maxLength,omitempty"`
	Pattern     string             `json:"pattern,omitempty"`
}

// Synthesize builds the input schema for op. Parameters come first; JSON body
// properties are then flattened into the same namespace, so a body field
// replaces a parameter of the same name. A body that is not an object with
// properties is exposed whole under BodyProperty. resolver may be nil when the
// operation holds no $ref schemas.
func Synthesize(op *model.Operation, resolver model.SchemaResolver) *InputSchema {
	c := &converter{resolver: resolver, visiting: make(map[string]bool)}
	out := &InputSchema{
		Type:       string(model.TypeObject),
		Properties: make(map[string]*Schema),
	}

	for _, p := range op.Parameters {
		if p.Schema == nil {
			continue
		}
		prop := c.convert(p.Schema, 0)
		if p.Description != "" {
			prop.Description = p.Description
		}
		out.Properties[p.Name] = prop
		if p.Required {
			out.Required = appendUnique(out.Required, p.Name)
		}
	}

	if body := jsonBodySchema(op.RequestBody); body != nil {
		resolved := c.resolve(body)
		if resolved != nil && resolved.Type == model.TypeObject && len(resolved.Properties) > 0 {
			for _, prop := range resolved.Properties {
				if prop.Schema == nil {
					continue
				}
				out.Properties[prop.Name] = c.convert(prop.Schema, 1)
			}
			for _, name := range resolved.Required {
				out.Required = appendUnique(out.Required, name)
			}
		} else {
			prop := c.convert(body, 0)
			if prop.Description == "" {
				prop.Description = op.RequestBody.Description
			}
			out.Properties[BodyProperty] = prop
			if op.RequestBody.Required {
				out.Required = appendUnique(out.Required, BodyProperty)
			}
		}
	}

	return out
}

func jsonBodySchema(rb *model.RequestBody) *model.Schema {
	if rb == nil {
		return nil
	}
	for _, content := range rb.Content {
		if strings.Contains(strings.ToLower(content.MediaType), "json") {
			return content.Schema
		}
	}
	return nil
}

type converter struct {
	resolver model.SchemaResolver
	// refs being expanded on the current branch
	visiting map[string]bool
}

// resolve follows a ref-only schema to its definition without converting it.
func (c *converter) resolve(s *model.Schema) *model.Schema {
	for i := 0; s != nil && s.IsRefOnly() && i < maxDepth; i++ {
		if c.resolver == nil {
			return nil
		}
		s = c.resolver.SchemaByRef(s.Ref)
	}
	return s
}

func (c *converter) convert(s *model.Schema, depth int) *Schema {
	if s == nil {
		return &Schema{}
	}

	if s.IsRefOnly() {
		if c.resolver == nil {
			return &Schema{}
		}
		target := c.resolver.SchemaByRef(s.Ref)
		if target == nil {
			return &Schema{}
		}
		if c.visiting[s.Ref] || depth >= maxDepth {
			return &Schema{Type: string(target.Type), Description: target.Description}
		}
		c.visiting[s.Ref] = true
		defer delete(c.visiting, s.Ref)
		return c.convert(target, depth+1)
	}

	out := &Schema{
		Type:        string(s.Type),
		Description: s.Description,
		Format:      s.Format,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		Pattern:     s.Pattern,
	}

	if depth >= maxDepth {
		return out
	}

	for _, e := range s.Enum {
		if v, err := request.Coerce(e); err == nil {
			out.Enum = append(out.Enum, v)
		}
	}

	if s.Type == model.TypeArray && s.Items != nil {
		out.Items = c.convert(s.Items, depth+1)
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*Schema, len(s.Properties))
		for _, prop := range s.Properties {
			out.Properties[prop.Name] = c.convert(prop.Schema, depth+1)
		}
		out.Required = append([]string(nil), s.Required...)
	}

	// allOf members contribute their properties to a single object.
	if len(s.AllOf) > 0 {
		c.mergeAllOf(out, s.AllOf, depth)
	}

	return out
}

func (c *converter) mergeAllOf(out *Schema, members []*model.Schema, depth int) {
	for _, member := range members {
		part := c.convert(member, depth+1)
		if out.Type == "" {
			out.Type = part.Type
		}
		if out.Description == "" {
			out.Description = part.Description
		}
		if len(part.Properties) > 0 && out.Properties == nil {
			out.Properties = make(map[string]*Schema, len(part.Properties))
		}
		for name, prop := range part.Properties {
			out.Properties[name] = prop
		}
		for _, name := range part.Required {
			out.Required = appendUnique(out.Required, name)
		}
	}
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
