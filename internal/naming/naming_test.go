package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kolah/oink/internal/model"
)

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello_world", "hello_world"},
		{"hello-world", "hello_world"},
		{"hello world", "hello_world"},
		{"helloWorld", "hello_world"},
		{"HelloWorld", "hello_world"},
		{"getUserById", "get_user_by_id"},
		{"listAPIKeys", "list_apikeys"},
		{"get2FACodes", "get2_facodes"},
		{"users.list", "users_list"},
		{"GET /users/{id}", "get_users_id"},
		{"", ""},
		{"a", "a"},
		{"__", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, SnakeCase(tt.input))
		})
	}
}

func TestToolName(t *testing.T) {
	tests := []struct {
		name     string
		op       model.Operation
		expected string
	}{
		{
			name:     "operation id",
			op:       model.Operation{ID: "getUser", Method: model.MethodGet, Path: "/users/{id}"},
			expected: "get_user",
		},
		{
			name:     "fallback to method and path",
			op:       model.Operation{Method: model.MethodDelete, Path: "/users/{id}/sessions"},
			expected: "delete_users_id_sessions",
		},
		{
			name:     "operation id without usable characters",
			op:       model.Operation{ID: "--", Method: model.MethodPost, Path: "/users"},
			expected: "post_users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ToolName(&tt.op))
		})
	}
}

func TestToolNameTruncates(t *testing.T) {
	op := &model.Operation{ID: strings.Repeat("segment_", 20)}
	name := ToolName(op)
	require.LessOrEqual(t, len(name), MaxLength)
	require.False(t, strings.HasSuffix(name, "_"))
}

func TestNamerUnique(t *testing.T) {
	n := NewNamer()
	op := &model.Operation{ID: "listUsers"}

	require.Equal(t, "list_users", n.Name(op))
	require.Equal(t, "list_users_2", n.Name(op))
	require.Equal(t, "list_users_3", n.Name(op))
	require.Equal(t, "get_user", n.Name(&model.Operation{ID: "getUser"}))

	long := &model.Operation{ID: strings.Repeat("a", 80)}
	first := n.Name(long)
	second := n.Name(long)
	require.Len(t, first, MaxLength)
	require.Len(t, second, MaxLength)
	require.True(t, strings.HasSuffix(second, "_2"))
}
