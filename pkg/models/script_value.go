package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ValueKind classifies a ScriptValue by its JSON shape.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// ScriptValue holds the JSON-serializable result of a script evaluated in the
// page. It keeps the raw encoding and exposes typed accessors, so callers get
// a tagged variant instead of an untyped blob.
type ScriptValue struct {
	raw json.RawMessage
}

// NewScriptValue wraps raw JSON. Empty input is treated as null.
func NewScriptValue(raw json.RawMessage) ScriptValue {
	return ScriptValue{raw: bytes.TrimSpace(raw)}
}

func (v ScriptValue) Kind() ValueKind {
	if len(v.raw) == 0 {
		return KindNull
	}
	switch v.raw[0] {
	case 't', 'f':
		return KindBool
	case '"':
		return KindString
	case '[':
		return KindArray
	case '{':
		return KindObject
	case 'n':
		return KindNull
	default:
		return KindNumber
	}
}

// Bool returns the boolean value, or false when the kind does not match.
func (v ScriptValue) Bool() bool {
	var b bool
	_ = json.Unmarshal(v.raw, &b)
	return b
}

// Number returns the numeric value, or 0 when the kind does not match.
func (v ScriptValue) Number() float64 {
	var f float64
	_ = json.Unmarshal(v.raw, &f)
	return f
}

// String returns the string value for KindString, otherwise the compact JSON
// encoding, which makes it safe for logging any result.
func (v ScriptValue) String() string {
	if v.Kind() == KindString {
		var s string
		if err := json.Unmarshal(v.raw, &s); err == nil {
			return s
		}
	}
	if len(v.raw) == 0 {
		return "null"
	}
	return string(v.raw)
}

// Array returns the element values for KindArray, nil otherwise.
func (v ScriptValue) Array() []ScriptValue {
	if v.Kind() != KindArray {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(v.raw, &elems); err != nil {
		return nil
	}
	out := make([]ScriptValue, len(elems))
	for i, e := range elems {
		out[i] = NewScriptValue(e)
	}
	return out
}

// Object returns the member values for KindObject, nil otherwise.
func (v ScriptValue) Object() map[string]ScriptValue {
	if v.Kind() != KindObject {
		return nil
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(v.raw, &members); err != nil {
		return nil
	}
	out := make(map[string]ScriptValue, len(members))
	for k, m := range members {
		out[k] = NewScriptValue(m)
	}
	return out
}

// Decode unmarshals the value into target, for callers that know the shape.
func (v ScriptValue) Decode(target any) error {
	if len(v.raw) == 0 {
		return json.Unmarshal([]byte("null"), target)
	}
	return json.Unmarshal(v.raw, target)
}

func (v ScriptValue) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

func (v *ScriptValue) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// GoString helps debugging output distinguish kinds at a glance.
func (v ScriptValue) GoString() string {
	return v.Kind().String() + "(" + strconv.Quote(v.String()) + ")"
}
