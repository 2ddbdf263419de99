// Package render implements the Carbon JSON interchange serializers (spec
// §6): compact form (bare value/array content) and extended form (wrapped
// with key/commit metadata). The order-preserving JSON object builder both
// serializers use is defined in this file.
package render

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// object is a JSON object that serializes its fields in insertion order,
// needed because Go's map/struct marshaling alphabetizes or reorders keys
// and the extended envelope's field order ("meta" before "doc") and a
// record's own property order are both semantically meaningful here.
type object struct {
	fields []objectField
}

type objectField struct {
	key   string
	value any
}

func newObject() *object { return &object{} }

func (o *object) set(key string, value any) *object {
	o.fields = append(o.fields, objectField{key, value})
	return o
}

// MarshalJSON implements order-preserving object marshaling.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := jsonCodec.Marshal(f.key)
		if err != nil {
			return nil, fmt.Errorf("render: marshal key %q: %w", f.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := jsonCodec.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("render: marshal value for key %q: %w", f.key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// array is an ordered JSON array builder mirroring object's ordering
// guarantee (trivial for slices, kept for symmetry with the rest of the
// builder API and to host future per-element formatting hooks).
type array struct {
	elements []any
}

func newArray() *array { return &array{} }

func (a *array) add(v any) *array {
	a.elements = append(a.elements, v)
	return a
}

func (a *array) MarshalJSON() ([]byte, error) {
	return jsonCodec.Marshal(a.elements)
}
