// Package jsonbuild drives a Carbon inserter from a decoded JSON value (spec
// §4.15): a single pass that chooses column vs. array encoding for each
// JSON array by a homogeneity scan, and wraps the top-level value so the
// record's mandatory root container is always an array.
package jsonbuild

import (
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/inserter"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/types"
	"github.com/rpcpool/carbondict/internal/carbonerr"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// Build decodes raw JSON and returns a freshly built Carbon record's bytes
// (key-type nokey: the header is the nokey marker byte, no key value, and
// an 8-byte commit-hash slot pinned at zero, matching a builder-only record
// with no revise session yet opened).
func Build(raw []byte) ([]byte, error) {
	var v any
	if err := jsonCodec.Unmarshal(raw, &v); err != nil {
		return nil, carbonerr.Wrap("jsonbuild.build", carbonerr.InvalidArgument, "invalid JSON", err)
	}
	f := memfile.New()
	header.Write(f, header.KeyNone, nil)

	root := inserter.Open(f, types.ArrayOpener(types.DefaultSetClass), 0)
	buildRootElement(root, v)
	root.Close()
	return f.Bytes(), nil
}

// buildRootElement encodes the top-level JSON value as the record root
// array's single element, per the wrapping rule worked out against the
// dot-path shortened-root scenarios: a top-level object or scalar is
// wrapped directly; a top-level array that is NOT homogeneous maps onto
// the root array directly (no wrap, so index paths address its elements
// without an extra level); a top-level array that IS homogeneous collapses
// to a column, which — being a leaf-shaped node rather than an array — is
// itself wrapped as the root's single element.
func buildRootElement(root *inserter.Inserter, v any) {
	if arr, ok := v.([]any); ok {
		if class, ok := homogeneousClass(arr); ok {
			emitColumn(root, "", arr, class)
			return
		}
		for _, elem := range arr {
			buildValue(root, "", false, elem)
		}
		return
	}
	buildValue(root, "", false, v)
}

// buildValue appends one JSON value as the next entry of an open container
// (array or object). key is written as the entry's property key when the
// inserter itself is keyed (an object container); the keyed argument is not
// read.
func buildValue(in *inserter.Inserter, key string, keyed bool, v any) {
	switch val := v.(type) {
	case nil:
		in.AppendNull(key)
	case bool:
		in.AppendBool(key, val)
	case float64:
		buildNumber(in, key, val)
	case string:
		in.AppendString(key, val)
	case []any:
		buildArray(in, key, val)
	case map[string]any:
		buildObject(in, key, val)
	default:
		carbonerr.Panic("jsonbuild.build_value", "unsupported decoded JSON value type")
	}
}

func buildNumber(in *inserter.Inserter, key string, f float64) {
	if f == math.Trunc(f) && !math.Signbit(f) && f <= float64(math.MaxUint64) {
		in.AppendUint64(key, uint64(f))
		return
	}
	if f == math.Trunc(f) && f >= float64(math.MinInt64) && f <= float64(math.MaxInt64) {
		in.AppendInt64(key, int64(f))
		return
	}
	in.AppendFloat64(key, f)
}

func buildArray(in *inserter.Inserter, key string, arr []any) {
	if class, ok := homogeneousClass(arr); ok {
		emitColumn(in, key, arr, class)
		return
	}
	child := in.OpenSub(key, types.ArrayOpener(types.DefaultSetClass), 0)
	for _, elem := range arr {
		buildValue(child, "", false, elem)
	}
	child.Close()
}

func buildObject(in *inserter.Inserter, key string, obj map[string]any) {
	child := in.OpenSub(key, types.ObjectOpener(types.DefaultMapClass), 0)
	for k, v := range obj {
		buildValue(child, k, true, v)
	}
	child.Close()
}

// primKind is the homogeneity scan's narrowed numeric classification.
type primKind int

const (
	primNone primKind = iota
	primBool
	primUint
	primInt
	primFloat
)

// homogeneousClass decides whether arr qualifies for column encoding (all
// elements are the same numeric primitive type or null, or all elements
// are boolean) and, if so, returns the narrowest fitting marker.
func homogeneousClass(arr []any) (types.Marker, bool) {
	if len(arr) == 0 {
		return 0, false
	}
	kind := primNone
	minI, maxI := int64(math.MaxInt64), int64(math.MinInt64)
	var maxU uint64
	sawFloat := false
	for _, v := range arr {
		switch val := v.(type) {
		case nil:
			// null is compatible with any numeric/bool column; it does not
			// constrain kind or the observed range.
		case bool:
			if kind != primNone && kind != primBool {
				return 0, false
			}
			kind = primBool
		case float64:
			if kind == primBool {
				return 0, false
			}
			if kind == primNone {
				kind = primUint
			}
			if val != math.Trunc(val) {
				sawFloat = true
			}
			if val < 0 {
				kind = primInt
			}
			if int64(val) < minI {
				minI = int64(val)
			}
			if int64(val) > maxI {
				maxI = int64(val)
			}
			if val >= 0 && uint64(val) > maxU {
				maxU = uint64(val)
			}
		default:
			return 0, false
		}
	}
	if kind == primNone {
		return 0, false // all null: not classifiable as a typed column
	}
	if kind == primBool {
		return types.MarkerBoolTrue, true // marker stands for "boolean column" request
	}
	if sawFloat {
		return types.MarkerFloat64, true
	}
	if kind == primInt {
		return narrowestSigned(minI, maxI), true
	}
	return narrowestUnsigned(maxU), true
}

func narrowestUnsigned(max uint64) types.Marker {
	switch {
	case max <= math.MaxUint8:
		return types.MarkerUint8
	case max <= math.MaxUint16:
		return types.MarkerUint16
	case max <= math.MaxUint32:
		return types.MarkerUint32
	default:
		return types.MarkerUint64
	}
}

func narrowestSigned(min, max int64) types.Marker {
	switch {
	case min >= math.MinInt8 && max <= math.MaxInt8:
		return types.MarkerInt8
	case min >= math.MinInt16 && max <= math.MaxInt16:
		return types.MarkerInt16
	case min >= math.MinInt32 && max <= math.MaxInt32:
		return types.MarkerInt32
	default:
		return types.MarkerInt64
	}
}

// emitColumn writes a column container: primitive-type marker, uintvar
// capacity, uintvar count, then count packed primitives, translating JSON
// null into the declared type's reserved null bit-pattern.
func emitColumn(in *inserter.Inserter, key string, arr []any, elemType types.Marker) {
	col := in.OpenSub(key, types.ColumnOpener(elemType, types.DefaultSetClass), len(arr))
	col.WriteColumnHeader(elemType, len(arr))
	for _, v := range arr {
		col.AppendColumnElement(elemType, v)
	}
	col.Close()
}
