package payload_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hpc/comet/payload"
)

func TestEncodeScalars(t *testing.T) {
	cases := []struct {
		in   any
		want payload.Value
	}{
		{nil, payload.Value{Kind: payload.KindNull}},
		{true, payload.Value{Kind: payload.KindBool, Bool: true}},
		{42, payload.Value{Kind: payload.KindInt, Int: 42}},
		{int64(-7), payload.Value{Kind: payload.KindInt, Int: -7}},
		{uint8(255), payload.Value{Kind: payload.KindInt, Int: 255}},
		{3.5, payload.Value{Kind: payload.KindFloat, Float: 3.5}},
		{"hello", payload.Value{Kind: payload.KindString, Str: "hello"}},
	}
	for _, tc := range cases {
		got, err := payload.Encode(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestEncodeJSONNumber(t *testing.T) {
	cases := []struct {
		in   json.Number
		want payload.Value
	}{
		{json.Number("3"), payload.Value{Kind: payload.KindInt, Int: 3}},
		{json.Number("-17"), payload.Value{Kind: payload.KindInt, Int: -17}},
		{json.Number("3.5"), payload.Value{Kind: payload.KindFloat, Float: 3.5}},
		{json.Number("1e3"), payload.Value{Kind: payload.KindFloat, Float: 1000}},
	}
	for _, tc := range cases {
		got, err := payload.Encode(tc.in)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "number %s", tc.in)
	}
}

// A decoder with UseNumber set must deliver integers to the schema intact;
// flattening them to float64 loses the caller's type.
func TestEncodeDecodedIntegerStaysIntegral(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"epochs": 3, "lr": 0.01}`))
	dec.UseNumber()
	var kwargs map[string]any
	require.NoError(t, dec.Decode(&kwargs))

	got, err := payload.Encode(kwargs)
	require.NoError(t, err)
	assert.Equal(t, payload.Value{Kind: payload.KindInt, Int: 3}, got.Map["epochs"])
	assert.Equal(t, payload.Value{Kind: payload.KindFloat, Float: 0.01}, got.Map["lr"])
}

func TestEncodeNested(t *testing.T) {
	got, err := payload.Encode(map[string]any{
		"epochs": 10,
		"rates":  []any{0.1, 0.01},
	})
	require.NoError(t, err)

	assert.Equal(t, payload.KindMap, got.Kind)
	assert.Equal(t, payload.Value{Kind: payload.KindInt, Int: 10}, got.Map["epochs"])
	assert.Equal(t, payload.KindList, got.Map["rates"].Kind)
	assert.Len(t, got.Map["rates"].List, 2)
}

func TestEncodeNilPointer(t *testing.T) {
	var p *string
	got, err := payload.Encode(p)
	require.NoError(t, err)
	assert.Equal(t, payload.KindNull, got.Kind)
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	for _, in := range []any{
		struct{ X int }{1},
		make(chan int),
		func() {},
		map[int]string{1: "a"},
		complex(1, 2),
	} {
		_, err := payload.Encode(in)
		require.Error(t, err)
		assert.True(t, payload.IsSerializationError(err))
	}
}

func TestEncodeRejectsUnsupportedNestedElement(t *testing.T) {
	_, err := payload.Encode([]any{1, struct{}{}})
	require.Error(t, err)
	assert.True(t, payload.IsSerializationError(err))
}
