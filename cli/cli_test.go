package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTyped(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"3", json.Number("3")},
		{"-17", json.Number("-17")},
		{"3.5", json.Number("3.5")},
		{"true", true},
		{`"quoted"`, "quoted"},
		{"resnet", "resnet"},
		{"3 4", "3 4"},
		{"[1,2]", []any{json.Number("1"), json.Number("2")}},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, parseTyped(tc.raw), "raw %q", tc.raw)
	}
}

func TestParseKwarg(t *testing.T) {
	key, val, err := parseKwarg("epochs=10")
	require.NoError(t, err)
	assert.Equal(t, "epochs", key)
	assert.Equal(t, json.Number("10"), val)

	key, val, err = parseKwarg("name=resnet=50")
	require.NoError(t, err)
	assert.Equal(t, "name", key)
	assert.Equal(t, "resnet=50", val)

	_, _, err = parseKwarg("novalue")
	assert.Error(t, err)
	_, _, err = parseKwarg("=10")
	assert.Error(t, err)
}
