package inputschema

import (
	"encoding/json"
	"testing"

	"github.com/kolah/oink/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func float(v float64) *float64 { return &v }
func int64p(v int64) *int64    { return &v }

func TestSynthesizeParameters(t *testing.T) {
	op := &model.Operation{
		Method: model.MethodGet,
		Path:   "/users/{id}",
		Parameters: []model.Parameter{
			{Name: "id", In: model.LocationPath, Required: true, Description: "User id", Schema: &model.Schema{Type: model.TypeInteger, Description: "ignored", Minimum: float(1)}},
			{Name: "status", In: model.LocationQuery, Schema: &model.Schema{Type: model.TypeString, Description: "Filter", Enum: []any{"active", "disabled"}}},
			{Name: "tags", In: model.LocationQuery, Schema: &model.Schema{Type: model.TypeArray, Items: &model.Schema{Type: model.TypeString, Pattern: "^[a-z]+$"}}},
			{Name: "noschema", In: model.LocationHeader, Required: true},
		},
	}

	got := Synthesize(op, nil)

	require.Equal(t, "object", got.Type)
	require.Equal(t, []string{"id"}, got.Required)
	require.Len(t, got.Properties, 3)
	require.NotContains(t, got.Properties, "noschema")

	id := got.Properties["id"]
	require.Equal(t, "integer", id.Type)
	require.Equal(t, "User id", id.Description)
	require.Equal(t, 1.0, *id.Minimum)

	status := got.Properties["status"]
	require.Equal(t, "Filter", status.Description)
	require.Equal(t, []string{"active", "disabled"}, status.Enum)

	tags := got.Properties["tags"]
	require.Equal(t, "array", tags.Type)
	require.Equal(t, "^[a-z]+$", tags.Items.Pattern)
}

func TestSynthesizeFlattensObjectBody(t *testing.T) {
	op := &model.Operation{
		Method: model.MethodPost,
		Path:   "/users",
		RequestBody: &model.RequestBody{
			Required: true,
			Content: []model.MediaTypeContent{
				{MediaType: "text/plain", Schema: &model.Schema{Type: model.TypeString}},
				{MediaType: "application/vnd.api+JSON", Schema: &model.Schema{
					Type:     model.TypeObject,
					Required: []string{"name", "email"},
					Properties: []model.Property{
						{Name: "name", Schema: &model.Schema{Type: model.TypeString, MinLength: int64p(1), MaxLength: int64p(50)}},
						{Name: "email", Schema: &model.Schema{Type: model.TypeString, Format: "email"}},
					},
				}},
			},
		},
	}

	got := Synthesize(op, nil)

	require.NotContains(t, got.Properties, BodyProperty)
	require.Equal(t, []string{"name", "email"}, got.Required)
	require.Equal(t, "email", got.Properties["email"].Format)
	require.Equal(t, int64(50), *got.Properties["name"].MaxLength)
}

func TestSynthesizeBodyOverridesParameter(t *testing.T) {
	op := &model.Operation{
		Method: model.MethodPut,
		Path:   "/items/{name}",
		Parameters: []model.Parameter{
			{Name: "name", In: model.LocationPath, Required: true, Schema: &model.Schema{Type: model.TypeString}},
		},
		RequestBody: &model.RequestBody{Content: []model.MediaTypeContent{{
			MediaType: "application/json",
			Schema: &model.Schema{Type: model.TypeObject, Required: []string{"name"}, Properties: []model.Property{
				{Name: "name", Schema: &model.Schema{Type: model.TypeInteger}},
			}},
		}}},
	}

	got := Synthesize(op, nil)
	require.Equal(t, "integer", got.Properties["name"].Type)
	require.Equal(t, []string{"name"}, got.Required)
}

func TestSynthesizeWholeBody(t *testing.T) {
	tests := []struct {
		name     string
		body     *model.RequestBody
		required []string
		typ      string
	}{
		{
			name: "array body",
			body: &model.RequestBody{Required: true, Content: []model.MediaTypeContent{{
				MediaType: "application/json",
				Schema:    &model.Schema{Type: model.TypeArray, Items: &model.Schema{Type: model.TypeInteger}},
			}}},
			required: []string{"body"},
			typ:      "array",
		},
		{
			name: "object without properties",
			body: &model.RequestBody{Content: []model.MediaTypeContent{{
				MediaType: "application/json",
				Schema:    &model.Schema{Type: model.TypeObject},
			}}},
			typ: "object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synthesize(&model.Operation{Method: model.MethodPost, Path: "/x", RequestBody: tt.body}, nil)
			require.Contains(t, got.Properties, BodyProperty)
			require.Equal(t, tt.typ, got.Properties[BodyProperty].Type)
			require.Equal(t, tt.required, got.Required)
		})
	}
}

func TestSynthesizeIgnoresNonJSONBody(t *testing.T) {
	op := &model.Operation{Method: model.MethodPost, Path: "/upload", RequestBody: &model.RequestBody{
		Required: true,
		Content:  []model.MediaTypeContent{{MediaType: "multipart/form-data", Schema: &model.Schema{Type: model.TypeObject}}},
	}}

	got := Synthesize(op, nil)
	require.Empty(t, got.Properties)
	require.Empty(t, got.Required)
}

func TestSynthesizeResolvesRefs(t *testing.T) {
	spec := &model.Spec{Schemas: []model.Schema{
		{Name: "NewUser", Type: model.TypeObject, Required: []string{"name"}, Properties: []model.Property{
			{Name: "name", Schema: &model.Schema{Type: model.TypeString}},
			{Name: "address", Schema: &model.Schema{Ref: "#/components/schemas/Address"}},
		}},
		{Name: "Address", Type: model.TypeObject, Description: "Postal address", Properties: []model.Property{
			{Name: "city", Schema: &model.Schema{Type: model.TypeString}},
		}},
	}}
	op := &model.Operation{Method: model.MethodPost, Path: "/users", RequestBody: &model.RequestBody{Content: []model.MediaTypeContent{{
		MediaType: "application/json",
		Schema:    &model.Schema{Ref: "#/components/schemas/NewUser"},
	}}}}

	got := Synthesize(op, spec)
	require.Equal(t, []string{"name"}, got.Required)
	address := got.Properties["address"]
	require.Equal(t, "object", address.Type)
	require.Equal(t, "Postal address", address.Description)
	require.Equal(t, "string", address.Properties["city"].Type)
}

func TestSynthesizeTerminatesOnCycles(t *testing.T) {
	spec := &model.Spec{Schemas: []model.Schema{
		{Name: "Node", Type: model.TypeObject, Description: "Tree node", Properties: []model.Property{
			{Name: "value", Schema: &model.Schema{Type: model.TypeString}},
			{Name: "children", Schema: &model.Schema{Type: model.TypeArray, Items: &model.Schema{Ref: "#/components/schemas/Node"}}},
		}},
	}}
	op := &model.Operation{Method: model.MethodGet, Path: "/tree", Parameters: []model.Parameter{
		{Name: "filter", In: model.LocationQuery, Schema: &model.Schema{Ref: "#/components/schemas/Node"}},
	}}

	got := Synthesize(op, spec)
	filter := got.Properties["filter"]
	require.Equal(t, "object", filter.Type)
	leaf := filter.Properties["children"].Items
	require.Equal(t, "object", leaf.Type)
	require.Equal(t, "Tree node", leaf.Description)
	require.Nil(t, leaf.Properties)
}

func TestSynthesizeMergesAllOf(t *testing.T) {
	spec := &model.Spec{Schemas: []model.Schema{
		{Name: "Base", Type: model.TypeObject, Required: []string{"id"}, Properties: []model.Property{
			{Name: "id", Schema: &model.Schema{Type: model.TypeString}},
		}},
	}}
	op := &model.Operation{Method: model.MethodGet, Path: "/x", Parameters: []model.Parameter{
		{Name: "filter", In: model.LocationQuery, Schema: &model.Schema{AllOf: []*model.Schema{
			{Ref: "#/components/schemas/Base"},
			{Type: model.TypeObject, Properties: []model.Property{{Name: "extra", Schema: &model.Schema{Type: model.TypeBoolean}}}},
		}}},
	}}

	filter := Synthesize(op, spec).Properties["filter"]
	require.Equal(t, "object", filter.Type)
	require.Contains(t, filter.Properties, "id")
	require.Contains(t, filter.Properties, "extra")
	require.Equal(t, []string{"id"}, filter.Required)
}

func TestInputSchemaJSON(t *testing.T) {
	empty, err := json.Marshal(Synthesize(&model.Operation{Method: model.MethodGet, Path: "/ping"}, nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"object","properties":{}}`, string(empty))

	op := &model.Operation{Method: model.MethodGet, Path: "/users/{id}", Parameters: []model.Parameter{
		{Name: "id", In: model.LocationPath, Required: true, Schema: &model.Schema{Type: model.TypeInteger, Enum: []any{1, 2}}},
	}}
	data, err := json.Marshal(Synthesize(op, nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"object","properties":{"id":{"type":"integer","enum":["1","2"]}},"required":["id"]}`, string(data))
}

func TestSynthesizedSchemaValidatesArguments(t *testing.T) {
	op := &model.Operation{
		Method: model.MethodPost,
		Path:   "/users/{org}",
		Parameters: []model.Parameter{
			{Name: "org", In: model.LocationPath, Required: true, Schema: &model.Schema{Type: model.TypeString}},
		},
		RequestBody: &model.RequestBody{Content: []model.MediaTypeContent{{
			MediaType: "application/json",
			Schema: &model.Schema{Type: model.TypeObject, Required: []string{"name"}, Properties: []model.Property{
				{Name: "name", Schema: &model.Schema{Type: model.TypeString, MinLength: int64p(1)}},
				{Name: "age", Schema: &model.Schema{Type: model.TypeInteger, Minimum: float(0)}},
			}},
		}}},
	}
	schema := gojsonschema.NewGoLoader(Synthesize(op, nil))

	tests := []struct {
		name  string
		args  map[string]any
		valid bool
	}{
		{"complete", map[string]any{"org": "acme", "name": "T", "age": 3}, true},
		{"missing body field", map[string]any{"org": "acme"}, false},
		{"empty name", map[string]any{"org": "acme", "name": ""}, false},
		{"negative age", map[string]any{"org": "acme", "name": "T", "age": -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(tt.args))
			require.NoError(t, err)
			require.Equal(t, tt.valid, result.Valid(), "%v", result.Errors())
		})
	}
}
