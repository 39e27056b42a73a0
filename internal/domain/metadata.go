package domain

import (
	"encoding/json"
	"fmt"
)

// MetaValue is a tagged scalar carried in event metadata bags. Exactly one
// of the fields is meaningful, selected by Kind, so the sqlite adapter and
// any future wire encoder can round-trip without losing the original type.
type MetaValue struct {
	Kind  MetaKind
	Str   string
	Bool  bool
	Int   int64
	Float float64
}

// MetaKind tags which field of a MetaValue is populated.
type MetaKind int

const (
	MetaString MetaKind = iota
	MetaBool
	MetaInt
	MetaFloat
)

func MetaStr(v string) MetaValue   { return MetaValue{Kind: MetaString, Str: v} }
func MetaBoolV(v bool) MetaValue   { return MetaValue{Kind: MetaBool, Bool: v} }
func MetaIntV(v int64) MetaValue   { return MetaValue{Kind: MetaInt, Int: v} }
func MetaFloatV(v float64) MetaValue { return MetaValue{Kind: MetaFloat, Float: v} }

// Any returns the value as an untyped interface{}, useful for JSON rendering.
func (m MetaValue) Any() interface{} {
	switch m.Kind {
	case MetaString:
		return m.Str
	case MetaBool:
		return m.Bool
	case MetaInt:
		return m.Int
	case MetaFloat:
		return m.Float
	default:
		return nil
	}
}

func (m MetaValue) String() string {
	switch m.Kind {
	case MetaString:
		return m.Str
	case MetaBool:
		return fmt.Sprintf("%t", m.Bool)
	case MetaInt:
		return fmt.Sprintf("%d", m.Int)
	case MetaFloat:
		return fmt.Sprintf("%g", m.Float)
	default:
		return ""
	}
}

// Metadata is a mapping from string keys to scalar values.
type Metadata map[string]MetaValue

// metaWire is the on-the-wire shape for a MetaValue: an explicit kind tag
// plus a single JSON-native value, so encoding/json round-trips int vs.
// float instead of collapsing both into float64.
type metaWire struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// MarshalJSON encodes the tagged value with its kind, so a decoder never
// has to guess whether a bare JSON number was an integer or a float.
func (m MetaValue) MarshalJSON() ([]byte, error) {
	w := metaWire{Value: m.Any()}
	switch m.Kind {
	case MetaString:
		w.Kind = "string"
	case MetaBool:
		w.Kind = "bool"
	case MetaInt:
		w.Kind = "int"
	case MetaFloat:
		w.Kind = "float"
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a metaWire back into the typed field matching Kind.
func (m *MetaValue) UnmarshalJSON(data []byte) error {
	var w metaWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "string":
		s, _ := w.Value.(string)
		*m = MetaStr(s)
	case "bool":
		b, _ := w.Value.(bool)
		*m = MetaBoolV(b)
	case "int":
		n, _ := w.Value.(float64)
		*m = MetaIntV(int64(n))
	case "float":
		n, _ := w.Value.(float64)
		*m = MetaFloatV(n)
	default:
		return fmt.Errorf("metadata: unknown kind %q", w.Kind)
	}
	return nil
}
