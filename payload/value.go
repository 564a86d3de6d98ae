// Package payload turns a procedure reference and its arguments into a
// transferable form: a tagged, explicitly typed argument schema, a JSON
// manifest, and the remote entry point that reconstructs and runs the call.
package payload

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SerializationError reports an argument that the payload schema cannot
// represent. It is raised before any remote interaction.
type SerializationError struct {
	Type string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("payload: argument of type %s is not serializable", e.Type)
}

// Returns true if an error is of type SerializationError.
func IsSerializationError(err error) bool {
	if _, ok := err.(*SerializationError); ok {
		return true
	}
	return false
}

type Kind string

const (
	KindNull   Kind = "null"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindList   Kind = "list"
	KindMap    Kind = "map"
)

// Value is one argument in the tagged schema. Exactly one payload field is
// meaningful, selected by Kind; the remote entry point decodes against the
// same schema instead of trusting implicit runtime serialization.
type Value struct {
	Kind  Kind             `json:"kind"`
	Bool  bool             `json:"bool,omitempty"`
	Int   int64            `json:"int,omitempty"`
	Float float64          `json:"float,omitempty"`
	Str   string           `json:"str,omitempty"`
	List  []Value          `json:"list,omitempty"`
	Map   map[string]Value `json:"map,omitempty"`
}

// Encode maps a Go value onto the schema. Supported are nil, booleans,
// integers, floats, strings, and slices/maps (string keys) of supported
// values; anything else is a SerializationError.
func Encode(v any) (Value, error) {
	if v == nil {
		return Value{Kind: KindNull}, nil
	}
	if enc, ok := v.(Value); ok {
		return enc, nil
	}
	// JSON input surfaces decode numbers as json.Number (UseNumber) so that
	// integers survive as integers instead of collapsing to float64.
	if num, ok := v.(json.Number); ok {
		if !strings.ContainsAny(num.String(), ".eE") {
			i, err := num.Int64()
			if err != nil {
				return Value{}, &SerializationError{Type: "json.Number(" + num.String() + ")"}
			}
			return Value{Kind: KindInt, Int: i}, nil
		}
		f, err := num.Float64()
		if err != nil {
			return Value{}, &SerializationError{Type: "json.Number(" + num.String() + ")"}
		}
		return Value{Kind: KindFloat, Float: f}, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return Value{Kind: KindBool, Bool: rv.Bool()}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Value{Kind: KindInt, Int: rv.Int()}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Value{Kind: KindInt, Int: int64(rv.Uint())}, nil
	case reflect.Float32, reflect.Float64:
		return Value{Kind: KindFloat, Float: rv.Float()}, nil
	case reflect.String:
		return Value{Kind: KindString, Str: rv.String()}, nil
	case reflect.Slice, reflect.Array:
		list := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := Encode(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			list = append(list, ev)
		}
		return Value{Kind: KindList, List: list}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, &SerializationError{Type: rv.Type().String()}
		}
		m := make(map[string]Value, rv.Len())
		for _, key := range rv.MapKeys() {
			ev, err := Encode(rv.MapIndex(key).Interface())
			if err != nil {
				return Value{}, err
			}
			m[key.String()] = ev
		}
		return Value{Kind: KindMap, Map: m}, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Value{Kind: KindNull}, nil
		}
		return Encode(rv.Elem().Interface())
	default:
		return Value{}, &SerializationError{Type: rv.Type().String()}
	}
}
