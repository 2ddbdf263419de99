package render

import (
	"math"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/iterator"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/revise"
	"github.com/rpcpool/carbondict/carbon/types"
	"github.com/rpcpool/carbondict/internal/carbonerr"
)

// NilText is what a dot-path resolution that reached no field renders as
// (spec §7): a not-found result is distinct from a resolved field that
// happens to decode to JSON null, so it gets its own sentinel token rather
// than colliding with "null".
const NilText = "_nil"

// Compact renders just the root array's content — or a bare value whenever
// the root array holds exactly one child, whatever that child is (a single
// wrapped object, scalar or column renders as itself, not as a one-element
// array).
func Compact(rec *revise.Record) ([]byte, error) {
	v, err := decodeRoot(rec.File())
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(v)
}

// Extended renders the full interchange envelope: {"meta": {"key": {"type":
// <kind>, "value": <key|null>}, "commit": <hash|null>}, "doc": [...]}. The
// key kind, key value, and commit hash are all read from the record's own
// header rather than supplied by the caller.
func Extended(rec *revise.Record) ([]byte, error) {
	v, err := decodeRoot(rec.File())
	if err != nil {
		return nil, err
	}
	hdr, err := header.Read(rec.File())
	if err != nil {
		return nil, err
	}
	meta := newObject().set("key", newObject().
		set("type", hdr.Kind.String()).
		set("value", hdr.KeyValue))
	var commit any
	if hdr.Kind == header.KeyNone {
		commit = nil
	} else {
		commit = hdr.CommitHash
	}
	meta.set("commit", commit)
	env := newObject().set("meta", meta).set("doc", v)
	return jsonCodec.Marshal(env)
}

// decodeRoot skips the record header, then reads the mandatory root array
// and recursively decodes it into plain Go values (map[string]any / []any /
// scalars) ready for JSON marshaling.
func decodeRoot(f *memfile.File) (any, error) {
	hdr, err := header.Read(f)
	if err != nil {
		return nil, err
	}
	if err := f.Seek(hdr.RootStart); err != nil {
		return nil, err
	}
	markerByte, err := f.ReadU8()
	if err != nil {
		return nil, err
	}
	marker, err := types.ValidateMarker(markerByte)
	if err != nil {
		return nil, err
	}
	if !types.IsArrayOpener(marker) {
		return nil, carbonerr.New("render.decode_root", carbonerr.InternalInvariant, "record root is not an array")
	}
	body, err := iterator.ReadContainerBody(f, marker)
	if err != nil {
		return nil, err
	}
	sub := memfile.FromBytes(body)
	it := iterator.Open(sub, marker, 0, len(body))
	return decodeRootBody(it)
}

// decodeRootBody mirrors the dot-path shortened-root rule for rendering: a
// root array with exactly one child renders that child bare rather than as a
// one-element array, since the wrapping was an artifact of the root always
// being an array container on the wire.
func decodeRootBody(it *iterator.Iterator) (any, error) {
	if it.Done() {
		return []any{}, nil
	}
	first, err := it.Next()
	if err != nil {
		return nil, err
	}
	if it.Done() {
		return decodeField(it, first)
	}
	v1, err := decodeField(it, first)
	if err != nil {
		return nil, err
	}
	out := []any{v1}
	for !it.Done() {
		field, err := it.Next()
		if err != nil {
			return nil, err
		}
		v, err := decodeField(it, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeContainerToSlice(it *iterator.Iterator) (any, error) {
	var out []any
	for !it.Done() {
		field, err := it.Next()
		if err != nil {
			return nil, err
		}
		v, err := decodeField(it, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeField decodes a single resolved field (as returned by
// dotpath.Result.Field) into a plain Go value ready for JSON marshaling.
func DecodeField(f iterator.Field) (any, error) {
	return decodeField(nil, f)
}

func decodeField(parent *iterator.Iterator, f iterator.Field) (any, error) {
	switch f.Marker {
	case types.MarkerNull:
		return nil, nil
	case types.MarkerBoolTrue:
		return true, nil
	case types.MarkerBoolFalse:
		return false, nil
	case types.MarkerString:
		return string(f.Payload), nil
	case types.MarkerBinary:
		return f.Payload, nil
	default:
		if types.IsColumnOpener(f.Marker) {
			return DecodeColumnBody(f.Payload)
		}
		if types.IsArrayOpener(f.Marker) || types.IsObjectOpener(f.Marker) {
			sub, err := parent.OpenSub(f)
			if err != nil {
				return nil, err
			}
			return decodeSubContainer(sub, f.Marker)
		}
		return decodeNumeric(f)
	}
}

func decodeSubContainer(it *iterator.Iterator, marker types.Marker) (any, error) {
	if types.IsObjectOpener(marker) {
		obj := newObject()
		for !it.Done() {
			field, err := it.Next()
			if err != nil {
				return nil, err
			}
			v, err := decodeField(it, field)
			if err != nil {
				return nil, err
			}
			obj.set(field.Key, v)
		}
		return obj, nil
	}
	return decodeContainerToSlice(it)
}

func decodeNumeric(f iterator.Field) (any, error) {
	if types.IsNull(f.Marker, f.Payload) {
		return nil, nil
	}
	u := uint64(0)
	for i, b := range f.Payload {
		u |= uint64(b) << (8 * uint(i))
	}
	switch f.Marker {
	case types.MarkerUint8, types.MarkerUint16, types.MarkerUint32, types.MarkerUint64:
		return u, nil
	case types.MarkerInt8:
		return int64(int8(u)), nil
	case types.MarkerInt16:
		return int64(int16(u)), nil
	case types.MarkerInt32:
		return int64(int32(u)), nil
	case types.MarkerInt64:
		return int64(u), nil
	case types.MarkerFloat32:
		return float64(math.Float32frombits(uint32(u))), nil
	case types.MarkerFloat64:
		return math.Float64frombits(u), nil
	default:
		return nil, carbonerr.New("render.decode_numeric", carbonerr.TypeMismatch, "not a numeric marker")
	}
}

// DecodeColumnBody decodes a column's raw body bytes (as returned by a
// container field's Payload) into a []any of its packed values, honoring
// each value's null bit-pattern.
func DecodeColumnBody(body []byte) (any, error) {
	f := memfile.FromBytes(body)
	elemByte, err := f.ReadU8()
	if err != nil {
		return nil, err
	}
	elemType, err := types.ValidateMarker(elemByte)
	if err != nil {
		return nil, err
	}
	_, err = f.ReadUintvar() // capacity, unused for decode
	if err != nil {
		return nil, err
	}
	count, err := f.ReadUintvar()
	if err != nil {
		return nil, err
	}
	width := elemType.Width()
	if width < 0 {
		width = 1 // bool columns pack one byte per element
	}
	out := make([]any, 0, count)
	for i := uint64(0); i < count; i++ {
		raw, err := f.ReadBytes(width)
		if err != nil {
			return nil, err
		}
		v, err := decodeColumnElement(elemType, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeColumnElement(elemType types.Marker, raw []byte) (any, error) {
	if elemType == types.MarkerBoolTrue || elemType == types.MarkerBoolFalse {
		return raw[0] != 0, nil
	}
	if types.IsNull(elemType, raw) {
		return nil, nil
	}
	u := uint64(0)
	for i, b := range raw {
		u |= uint64(b) << (8 * uint(i))
	}
	switch elemType {
	case types.MarkerUint8, types.MarkerUint16, types.MarkerUint32, types.MarkerUint64:
		return u, nil
	case types.MarkerInt8:
		return int64(int8(u)), nil
	case types.MarkerInt16:
		return int64(int16(u)), nil
	case types.MarkerInt32:
		return int64(int32(u)), nil
	case types.MarkerInt64:
		return int64(u), nil
	case types.MarkerFloat32:
		return float64(math.Float32frombits(uint32(u))), nil
	case types.MarkerFloat64:
		return math.Float64frombits(u), nil
	default:
		return nil, carbonerr.New("render.decode_column_element", carbonerr.TypeMismatch, "unsupported column element type")
	}
}
