package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgumentsUnmarshalKeepsOrder(t *testing.T) {
	var args Arguments
	err := json.Unmarshal([]byte(`{"zeta":1,"alpha":"a\"b","mid":{"k":[true,null]},"none":null}`), &args)
	require.NoError(t, err)

	require.Equal(t, []string{"zeta", "alpha", "mid", "none"}, args.Keys())

	v, ok := args.Get("zeta")
	require.True(t, ok)
	require.Equal(t, json.Number("1"), v)

	v, _ = args.Get("alpha")
	require.Equal(t, `a"b`, v)

	v, _ = args.Get("mid")
	require.Equal(t, map[string]any{"k": []any{true, nil}}, v)

	v, ok = args.Get("none")
	require.True(t, ok)
	require.Nil(t, v)
}

func TestArgumentsRoundTripPreservesOrder(t *testing.T) {
	in := `{"b":2,"a":"x<y"}`
	var args Arguments
	require.NoError(t, json.Unmarshal([]byte(in), &args))

	out, err := args.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, in, string(out))
}

func TestArgumentsUnmarshalRejectsNonObject(t *testing.T) {
	var args Arguments
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &args))
}

func TestArgumentsSetKeepsPosition(t *testing.T) {
	args := NewArguments().Set("a", 1).Set("b", 2).Set("a", 3)
	require.Equal(t, []string{"a", "b"}, args.Keys())
	v, _ := args.Get("a")
	require.Equal(t, 3, v)
}

func TestArgumentsFromMapIsSorted(t *testing.T) {
	args := ArgumentsFromMap(map[string]any{"c": 1, "a": 2, "b": 3})
	require.Equal(t, []string{"a", "b", "c"}, args.Keys())
	require.Equal(t, 3, args.Len())
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"string", "hello world", "hello world"},
		{"quoted string stays raw", `"q"`, `"q"`},
		{"json number", json.Number("12345678901234567890"), "12345678901234567890"},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"whole float", float64(3), "3"},
		{"bool", true, "true"},
		{"nil", nil, "null"},
		{"slice", []any{"a", 1}, `["a",1]`},
		{"map", map[string]any{"k": "<v>"}, `{"k":"<v>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestCoerceUnsupported(t *testing.T) {
	_, err := Coerce(make(chan int))
	require.Error(t, err)
}
