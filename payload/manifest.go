package payload

import (
	"encoding/json"
	"fmt"
)

// Manifest is the serialized call: which procedure to invoke and with what.
type Manifest struct {
	Module   string           `json:"module"`
	Function string           `json:"function"`
	Args     []Value          `json:"args"`
	Kwargs   map[string]Value `json:"kwargs"`
}

// NewManifest encodes raw arguments into the tagged schema. Rejections
// surface here, before anything touches the remote side.
func NewManifest(module, function string, args []any, kwargs map[string]any) (*Manifest, error) {
	if module == "" {
		return nil, fmt.Errorf("payload: module path is empty")
	}
	if function == "" {
		return nil, fmt.Errorf("payload: function name is empty")
	}

	m := &Manifest{
		Module:   module,
		Function: function,
		Args:     make([]Value, 0, len(args)),
		Kwargs:   make(map[string]Value, len(kwargs)),
	}
	for _, a := range args {
		v, err := Encode(a)
		if err != nil {
			return nil, err
		}
		m.Args = append(m.Args, v)
	}
	for k, a := range kwargs {
		v, err := Encode(a)
		if err != nil {
			return nil, err
		}
		m.Kwargs[k] = v
	}
	return m, nil
}

// EncodeJSON renders the manifest as canonical JSON: struct field order is
// fixed and map keys are sorted, so identical calls produce identical bytes.
func (m *Manifest) EncodeJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, &SerializationError{Type: err.Error()}
	}
	return append(data, '\n'), nil
}
