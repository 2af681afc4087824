package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON value kinds a tool report can
// contain. Only the types in this file implement it.
type Value interface {
	payloadValue()
}

// Null is a JSON null.
type Null struct{}

func (Null) payloadValue() {}

// String is a JSON string.
type String string

func (String) payloadValue() {}

// Number is a JSON number kept as its literal text.
type Number json.Number

func (Number) payloadValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) payloadValue() {}

// Array is a JSON array.
type Array []Value

func (Array) payloadValue() {}

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) payloadValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for astral runes.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Lookup returns the member named key, or nil when absent.
func (obj Object) Lookup(key string) Value {
	if obj == nil {
		return nil
	}
	return obj[key]
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Parse decodes a JSON document into a Value.
// Trailing data after the first value is rejected.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse payload: unexpected data after top-level value")
	}
	return FromInterface(raw)
}

// ParseObject decodes data and requires the top-level value to be an object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("parse payload: top-level value is %T, want object", v)
	}
	return obj, nil
}

// FromInterface converts a decoded encoding/json value into a Value.
func FromInterface(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(val), nil
	case int:
		return Number(json.Number(fmt.Sprintf("%d", val))), nil
	case int64:
		return Number(json.Number(fmt.Sprintf("%d", val))), nil
	case float64:
		return Number(json.Number(formatFloat(val))), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromInterface(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromInterface(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported payload type: %T", v)
	}
}

// Interface converts v back into plain Go values (map[string]any, []any,
// string, json.Number, bool, nil), the shape generic JSON tooling expects.
func Interface(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Number:
		return json.Number(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Interface(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Interface(elem)
		}
		return out
	default:
		return nil
	}
}

// Document wraps a Value so it can be embedded in encoding/json structs.
// It marshals as the ordered, unnormalised JSON of the wrapped value and
// decodes any JSON value back into the Value tree.
type Document struct {
	Value Value
}

// MarshalJSON implements json.Marshaler.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Value == nil {
		return []byte("null"), nil
	}
	return MarshalOrdered(d.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	v, err := Parse(data)
	if err != nil {
		return err
	}
	if _, isNull := v.(Null); isNull {
		d.Value = nil
		return nil
	}
	d.Value = v
	return nil
}

// IsZero reports whether the document carries no value.
func (d Document) IsZero() bool {
	return d.Value == nil
}
