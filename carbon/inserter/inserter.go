// Package inserter implements append-only writers for Carbon arrays,
// objects, and columns (spec §4.12): scalar field appends, opening a
// sub-container with a capacity hint, and closing a container by writing
// its class-matched closer marker (arrays/objects) or simply returning the
// element count (columns, which are self-delimited by their own header).
package inserter

import (
	"math"

	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/types"
	"github.com/rpcpool/carbondict/internal/carbonerr"
)

// Inserter appends entries to one open container at the end of file. Every
// entry is written marker-byte first, whether or not the container is
// keyed: this makes the very next byte of any entry a safe peek point for
// a reader scanning forward for this container's closer, since a key's
// uintvar length byte never leads an entry the way it would if the key
// preceded the marker.
type Inserter struct {
	file      *memfile.File
	opener    types.Marker
	closer    types.Marker
	hasCloser bool
	keyed     bool // set for object openers only
	count     int
}

// Open begins a new container of the given opener marker at the file's
// current cursor, writing only the opener byte. capacityHint is advisory
// (it informs the caller's batching strategy upstream; Carbon itself grows
// lazily and does not materialize a physical reservation).
func Open(f *memfile.File, opener types.Marker, capacityHint int) *Inserter {
	f.WriteU8(byte(opener))
	in := &Inserter{file: f, opener: opener}
	if types.IsObjectOpener(opener) {
		in.keyed = true
	}
	if c, ok := types.CloserFor(opener); ok {
		in.closer = c
		in.hasCloser = true
	}
	_ = capacityHint
	return in
}

// AppendNull appends a null field, optionally keyed.
func (in *Inserter) AppendNull(key string) {
	in.file.WriteU8(byte(types.MarkerNull))
	in.writeKey(key)
	in.count++
}

// AppendBool appends a boolean field.
func (in *Inserter) AppendBool(key string, v bool) {
	if v {
		in.file.WriteU8(byte(types.MarkerBoolTrue))
	} else {
		in.file.WriteU8(byte(types.MarkerBoolFalse))
	}
	in.writeKey(key)
	in.count++
}

// AppendInt64 appends a signed 64-bit field. v == NullInt64 is written and
// read back as an explicit null on later decode.
func (in *Inserter) AppendInt64(key string, v int64) {
	in.file.WriteU8(byte(types.MarkerInt64))
	in.writeKey(key)
	in.file.WriteI64(v)
	in.count++
}

// AppendUint64 appends an unsigned 64-bit field.
func (in *Inserter) AppendUint64(key string, v uint64) {
	in.file.WriteU8(byte(types.MarkerUint64))
	in.writeKey(key)
	in.file.WriteU64(v)
	in.count++
}

// AppendFloat64 appends a double-precision field.
func (in *Inserter) AppendFloat64(key string, v float64) {
	in.file.WriteU8(byte(types.MarkerFloat64))
	in.writeKey(key)
	in.file.WriteU64(math.Float64bits(v))
	in.count++
}

// AppendString appends a UTF-8 string field, length-prefixed with a
// uintvar.
func (in *Inserter) AppendString(key string, v string) {
	in.file.WriteU8(byte(types.MarkerString))
	in.writeKey(key)
	in.file.WriteUintvar(uint64(len(v)))
	in.file.WriteBytes([]byte(v))
	in.count++
}

// AppendBinary appends an arbitrary MIME/custom binary payload.
func (in *Inserter) AppendBinary(key string, v []byte) {
	in.file.WriteU8(byte(types.MarkerBinary))
	in.writeKey(key)
	in.file.WriteUintvar(uint64(len(v)))
	in.file.WriteBytes(v)
	in.count++
}

// Keyed reports whether this container writes a property key with each
// entry, which is the case for object containers only.
func (in *Inserter) Keyed() bool { return in.keyed }

// WriteColumnHeader writes a column's type-marker + capacity + count header
// as the first bytes of its body (spec §4.10): declared primitive type
// marker, uintvar capacity, uintvar count. Capacity is pinned to count: the
// builder never over-reserves.
func (in *Inserter) WriteColumnHeader(elemType types.Marker, count int) {
	in.file.WriteU8(byte(elemType))
	in.file.WriteUintvar(uint64(count))
	in.file.WriteUintvar(uint64(count))
}

// AppendColumnElement packs one raw primitive value of elemType into an
// open column body (no per-element marker byte — the column's header
// already declared the type). A nil v writes the type's reserved null
// bit-pattern.
func (in *Inserter) AppendColumnElement(elemType types.Marker, v any) {
	f := in.file
	switch elemType {
	case types.MarkerBoolTrue, types.MarkerBoolFalse:
		b, _ := v.(bool)
		if v == nil {
			b = false
		}
		if b {
			f.WriteU8(1)
		} else {
			f.WriteU8(0)
		}
	case types.MarkerUint8:
		if v == nil {
			f.WriteU8(types.NullUint8)
		} else {
			f.WriteU8(uint8(asFloat(v)))
		}
	case types.MarkerUint16:
		if v == nil {
			f.WriteU16(types.NullUint16)
		} else {
			f.WriteU16(uint16(asFloat(v)))
		}
	case types.MarkerUint32:
		if v == nil {
			f.WriteU32(types.NullUint32)
		} else {
			f.WriteU32(uint32(asFloat(v)))
		}
	case types.MarkerUint64:
		if v == nil {
			f.WriteU64(types.NullUint64)
		} else {
			f.WriteU64(uint64(asFloat(v)))
		}
	case types.MarkerInt8:
		if v == nil {
			f.WriteU8(uint8(types.NullInt8))
		} else {
			f.WriteU8(uint8(int8(asFloat(v))))
		}
	case types.MarkerInt16:
		if v == nil {
			f.WriteU16(uint16(types.NullInt16))
		} else {
			f.WriteU16(uint16(int16(asFloat(v))))
		}
	case types.MarkerInt32:
		if v == nil {
			f.WriteU32(uint32(types.NullInt32))
		} else {
			f.WriteU32(uint32(int32(asFloat(v))))
		}
	case types.MarkerInt64:
		if v == nil {
			f.WriteI64(types.NullInt64)
		} else {
			f.WriteI64(int64(asFloat(v)))
		}
	case types.MarkerFloat32:
		if v == nil {
			f.WriteU32(types.NullFloat32Bits)
		} else {
			f.WriteU32(math.Float32bits(float32(asFloat(v))))
		}
	case types.MarkerFloat64:
		if v == nil {
			f.WriteU64(types.NullFloat64Bits)
		} else {
			f.WriteU64(math.Float64bits(asFloat(v)))
		}
	default:
		carbonerr.Panic("inserter.append_column_element", "unsupported column element type")
	}
	in.count++
}

func asFloat(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		carbonerr.Panic("inserter.append_column_element", "column element not a decoded JSON number")
	}
	return f
}

func (in *Inserter) writeKey(key string) {
	if !in.keyed {
		return
	}
	in.file.WriteUintvar(uint64(len(key)))
	in.file.WriteBytes([]byte(key))
}

// OpenSub opens a nested container as the next entry of in, returning the
// child inserter the caller must Close before continuing to append to in.
// The child's opener marker is written first (by Open), then the parent's
// key (if the parent is keyed) — preserving the marker-byte-first layout
// uniformly across scalar and container entries.
func (in *Inserter) OpenSub(key string, opener types.Marker, capacityHint int) *Inserter {
	child := Open(in.file, opener, capacityHint)
	in.writeKey(key)
	in.count++
	return child
}

// Close finalizes the container. Arrays and objects write their
// class-matched closer byte; columns have no closer, since a column's
// header already declares its own count and is therefore self-delimited.
func (in *Inserter) Close() int {
	if in.hasCloser {
		in.file.WriteU8(byte(in.closer))
	}
	return in.count
}
