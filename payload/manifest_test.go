package payload_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comet-hpc/comet/payload"
)

func TestNewManifestEncodesArguments(t *testing.T) {
	m, err := payload.NewManifest(
		"trainer.models", "fit",
		[]any{"resnet", 3},
		map[string]any{"lr": 0.01, "resume": false},
	)
	require.NoError(t, err)

	assert.Equal(t, "trainer.models", m.Module)
	assert.Equal(t, "fit", m.Function)
	require.Len(t, m.Args, 2)
	assert.Equal(t, payload.KindString, m.Args[0].Kind)
	assert.Equal(t, payload.KindInt, m.Args[1].Kind)
	assert.Equal(t, payload.KindFloat, m.Kwargs["lr"].Kind)
}

func TestNewManifestRejectsBadArgument(t *testing.T) {
	_, err := payload.NewManifest("m", "f", []any{struct{}{}}, nil)
	require.Error(t, err)
	assert.True(t, payload.IsSerializationError(err))
}

func TestNewManifestRejectsEmptyReference(t *testing.T) {
	_, err := payload.NewManifest("", "f", nil, nil)
	assert.Error(t, err)
	_, err = payload.NewManifest("m", "", nil, nil)
	assert.Error(t, err)
}

func TestEncodeJSONDeterministic(t *testing.T) {
	m, err := payload.NewManifest(
		"trainer.models", "fit",
		[]any{1, 2},
		map[string]any{"b": 2, "a": 1, "c": 3},
	)
	require.NoError(t, err)

	first, err := m.EncodeJSON()
	require.NoError(t, err)
	second, err := m.EncodeJSON()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var decoded payload.Manifest
	require.NoError(t, json.Unmarshal(first, &decoded))
	assert.Equal(t, m.Module, decoded.Module)
	assert.Len(t, decoded.Kwargs, 3)
}

func TestBootstrapContent(t *testing.T) {
	src := string(payload.Bootstrap())
	assert.Contains(t, src, "importlib.import_module")
	assert.Contains(t, src, "pip")
	assert.Contains(t, src, "manifest")
}

func TestExecLine(t *testing.T) {
	line := payload.ExecLine("python3", "/jobs/a/entry_script.py", "/jobs/a/manifest.json")
	assert.Equal(t, "python3 /jobs/a/entry_script.py /jobs/a/manifest.json", line)
	assert.False(t, strings.Contains(line, "  "))
}
