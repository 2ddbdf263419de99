// Package types defines the Carbon field taxonomy (spec §4.10): the
// marker-byte alphabet, the numeric null bit-patterns reserved out of each
// fixed-width encoding, and the abstract-type-class derivation that every
// container marker encodes directly in its own byte value.
package types

import "github.com/rpcpool/carbondict/internal/carbonerr"

// Marker is the one-byte tag that precedes every field's payload.
type Marker byte

const (
	MarkerNull Marker = iota
	MarkerBoolTrue
	MarkerBoolFalse
	MarkerInt8
	MarkerInt16
	MarkerInt32
	MarkerInt64
	MarkerUint8
	MarkerUint16
	MarkerUint32
	MarkerUint64
	MarkerFloat32
	MarkerFloat64
	MarkerString
	MarkerBinary // arbitrary MIME/custom binary payload

	// markerArrayOpenBase is the first of a run of per-class container
	// markers (spec §3/§4.10): every array/object/column marker encodes
	// both its shape and its abstract class (unsorted/sorted x
	// multi/unique, values-only or key-value), so a reader can tell a
	// sorted-set array from an unsorted-multiset array from the opener
	// byte alone, with no separate class field anywhere on the wire.
	markerArrayOpenBase
)

// numClasses is the size of the Ordering x Multiplicity cross product every
// array/object/column opener is stamped with.
const numClasses = 4

const (
	markerArrayCloseBase  = markerArrayOpenBase + numClasses
	markerObjectOpenBase  = markerArrayCloseBase + numClasses
	markerObjectCloseBase = markerObjectOpenBase + numClasses
	markerColumnOpenBase  = markerObjectCloseBase + numClasses
)

// numColumnPrimitives is the count of distinct primitive kinds a column may
// declare: the ten fixed-width numerics plus one packed-boolean kind.
const numColumnPrimitives = 11

var columnPrimitiveMarkers = [numColumnPrimitives]Marker{
	MarkerBoolTrue,
	MarkerInt8, MarkerInt16, MarkerInt32, MarkerInt64,
	MarkerUint8, MarkerUint16, MarkerUint32, MarkerUint64,
	MarkerFloat32, MarkerFloat64,
}

const markerCount = int(markerColumnOpenBase) + numColumnPrimitives*numClasses

func columnPrimitiveIndex(m Marker) (int, bool) {
	for i, p := range columnPrimitiveMarkers {
		if p == m {
			return i, true
		}
	}
	return 0, false
}

// String renders the marker's name for diagnostics.
func (m Marker) String() string {
	switch m {
	case MarkerNull:
		return "null"
	case MarkerBoolTrue:
		return "bool(true)"
	case MarkerBoolFalse:
		return "bool(false)"
	case MarkerInt8:
		return "int8"
	case MarkerInt16:
		return "int16"
	case MarkerInt32:
		return "int32"
	case MarkerInt64:
		return "int64"
	case MarkerUint8:
		return "uint8"
	case MarkerUint16:
		return "uint16"
	case MarkerUint32:
		return "uint32"
	case MarkerUint64:
		return "uint64"
	case MarkerFloat32:
		return "float32"
	case MarkerFloat64:
		return "float64"
	case MarkerString:
		return "string"
	case MarkerBinary:
		return "binary"
	}
	if c, ok := ArrayClassOf(m); ok {
		return "array-open(" + c.Name() + ")"
	}
	if c, ok := ArrayCloserClassOf(m); ok {
		return "array-close(" + c.Name() + ")"
	}
	if c, ok := ObjectClassOf(m); ok {
		return "object-open(" + c.Name() + ")"
	}
	if c, ok := ObjectCloserClassOf(m); ok {
		return "object-close(" + c.Name() + ")"
	}
	if p, c, ok := ColumnInfoOf(m); ok {
		return "column(" + p.String() + "," + c.Name() + ")"
	}
	return "unknown"
}

// IsNumeric reports whether m is one of the fixed-width numeric markers.
func (m Marker) IsNumeric() bool {
	return m >= MarkerInt8 && m <= MarkerFloat64
}

// IsContainer reports whether m opens a sub-container (array/object/column).
func (m Marker) IsContainer() bool {
	return IsArrayOpener(m) || IsObjectOpener(m) || IsColumnOpener(m)
}

// Width returns the fixed payload width in bytes for a numeric marker, or
// -1 for variable-width/container markers.
func (m Marker) Width() int {
	switch m {
	case MarkerInt8, MarkerUint8:
		return 1
	case MarkerInt16, MarkerUint16:
		return 2
	case MarkerInt32, MarkerUint32, MarkerFloat32:
		return 4
	case MarkerInt64, MarkerUint64, MarkerFloat64:
		return 8
	default:
		return -1
	}
}

// Null bit-patterns reserved out of each numeric domain's value space (spec
// §4.10): all-ones for unsigned, the maximum positive value for signed, and
// a quiet-NaN bit pattern for floats, so
// readers can distinguish an explicit column null from a present value
// without a separate presence bitmap.
const (
	NullInt8   int8   = 0x7F
	NullInt16  int16  = 0x7FFF
	NullInt32  int32  = 0x7FFFFFFF
	NullInt64  int64  = 0x7FFFFFFFFFFFFFFF
	NullUint8  uint8  = 0xFF
	NullUint16 uint16 = 0xFFFF
	NullUint32 uint32 = 0xFFFFFFFF
	NullUint64 uint64 = 0xFFFFFFFFFFFFFFFF
)

// NullFloat32Bits / NullFloat64Bits are the canonical quiet-NaN bit patterns
// used as the float null sentinel (an IEEE payload that never arises from
// ordinary arithmetic).
const (
	NullFloat32Bits uint32 = 0x7FC00000
	NullFloat64Bits uint64 = 0x7FF8000000000000
)

// Ordering selects whether a container's entries are maintained in sorted
// order (enabling binary-search lookup) or insertion order (scan-only).
type Ordering int

const (
	Unsorted Ordering = iota
	Sorted
)

// Multiplicity selects whether a container permits duplicate keys/values.
type Multiplicity int

const (
	Multi  Multiplicity = iota // multiset / multimap: duplicates allowed
	Unique                     // set / map: duplicates rejected
)

// Shape selects whether a container stores bare values (set/multiset) or
// key-value pairs (map/multimap). Arrays and columns are always ValuesOnly;
// objects are always KeyValue; Shape only varies the *name* a ColumnClass
// renders as.
type Shape int

const (
	ValuesOnly Shape = iota
	KeyValue
)

// ColumnClass is the abstract type class a container marker is stamped
// with: the cross product of Ordering x Multiplicity gives the four
// concrete variants, rendered together with Shape as one of the eight names
// (sorted-set, unsorted-multimap, ...).
type ColumnClass struct {
	Ordering     Ordering
	Multiplicity Multiplicity
	Shape        Shape
}

// DefaultSetClass is the class assigned to arrays/columns built from JSON,
// which carries no ordering or uniqueness declaration of its own.
var DefaultSetClass = ColumnClass{Ordering: Unsorted, Multiplicity: Multi, Shape: ValuesOnly}

// DefaultMapClass is the class assigned to objects built from JSON.
var DefaultMapClass = ColumnClass{Ordering: Unsorted, Multiplicity: Multi, Shape: KeyValue}

// Derive computes the abstract type class implied by a container's declared
// ordering/uniqueness/shape flags, matching the source's class lookup table.
func Derive(sorted, unique, keyed bool) ColumnClass {
	c := ColumnClass{Ordering: Unsorted, Multiplicity: Multi, Shape: ValuesOnly}
	if sorted {
		c.Ordering = Sorted
	}
	if unique {
		c.Multiplicity = Unique
	}
	if keyed {
		c.Shape = KeyValue
	}
	return c
}

// Name renders the class the way the dot-path/JSON layer names it, e.g.
// "sorted-unique-map" or "unsorted-multiset".
func (c ColumnClass) Name() string {
	order := "unsorted"
	if c.Ordering == Sorted {
		order = "sorted"
	}
	mult := "multi"
	if c.Multiplicity == Unique {
		mult = "unique"
	}
	shape := "set"
	if c.Shape == KeyValue {
		shape = "map"
	}
	if mult == "multi" && shape == "map" {
		shape = "multimap"
		mult = ""
	}
	if mult == "multi" && shape == "set" {
		shape = "multiset"
		mult = ""
	}
	if mult == "" {
		return order + "-" + shape
	}
	return order + "-" + mult + "-" + shape
}

// DeriveSorted upgrades c to Sorted ordering, the no-rewrite path available
// when the existing elements already satisfy sortedness.
func (c ColumnClass) DeriveSorted() ColumnClass {
	c.Ordering = Sorted
	return c
}

// DeriveDistinct upgrades c to Unique multiplicity, the no-rewrite path
// available when the existing elements already contain no duplicates.
func (c ColumnClass) DeriveDistinct() ColumnClass {
	c.Multiplicity = Unique
	return c
}

func classIndex(c ColumnClass) int {
	idx := 0
	if c.Ordering == Sorted {
		idx |= 1
	}
	if c.Multiplicity == Unique {
		idx |= 2
	}
	return idx
}

func classFromIndex(idx int) (Ordering, Multiplicity) {
	ord := Unsorted
	if idx&1 != 0 {
		ord = Sorted
	}
	mult := Multi
	if idx&2 != 0 {
		mult = Unique
	}
	return ord, mult
}

// ArrayOpener returns the opener marker for an array of the given abstract
// class.
func ArrayOpener(c ColumnClass) Marker {
	return markerArrayOpenBase + Marker(classIndex(c))
}

// ArrayCloser returns the closer marker matching ArrayOpener(c).
func ArrayCloser(c ColumnClass) Marker {
	return markerArrayCloseBase + Marker(classIndex(c))
}

// ObjectOpener returns the opener marker for an object of the given
// abstract class.
func ObjectOpener(c ColumnClass) Marker {
	return markerObjectOpenBase + Marker(classIndex(c))
}

// ObjectCloser returns the closer marker matching ObjectOpener(c).
func ObjectCloser(c ColumnClass) Marker {
	return markerObjectCloseBase + Marker(classIndex(c))
}

// ColumnOpener returns the opener marker for a column of primitive and
// class, panicking if primitive isn't one of the eleven column-eligible
// primitive markers.
func ColumnOpener(primitive Marker, c ColumnClass) Marker {
	pidx, ok := columnPrimitiveIndex(primitive)
	if !ok {
		carbonerr.Panic("types.column_opener", "not a column-eligible primitive marker")
	}
	return markerColumnOpenBase + Marker(pidx*numClasses+classIndex(c))
}

// ArrayClassOf reports the class encoded by m if m is any array opener.
func ArrayClassOf(m Marker) (ColumnClass, bool) {
	if m < markerArrayOpenBase || m >= markerArrayCloseBase {
		return ColumnClass{}, false
	}
	ord, mult := classFromIndex(int(m - markerArrayOpenBase))
	return ColumnClass{Ordering: ord, Multiplicity: mult, Shape: ValuesOnly}, true
}

// ArrayCloserClassOf reports the class encoded by m if m is any array
// closer.
func ArrayCloserClassOf(m Marker) (ColumnClass, bool) {
	if m < markerArrayCloseBase || m >= markerObjectOpenBase {
		return ColumnClass{}, false
	}
	ord, mult := classFromIndex(int(m - markerArrayCloseBase))
	return ColumnClass{Ordering: ord, Multiplicity: mult, Shape: ValuesOnly}, true
}

// ObjectClassOf reports the class encoded by m if m is any object opener.
func ObjectClassOf(m Marker) (ColumnClass, bool) {
	if m < markerObjectOpenBase || m >= markerObjectCloseBase {
		return ColumnClass{}, false
	}
	ord, mult := classFromIndex(int(m - markerObjectOpenBase))
	return ColumnClass{Ordering: ord, Multiplicity: mult, Shape: KeyValue}, true
}

// ObjectCloserClassOf reports the class encoded by m if m is any object
// closer.
func ObjectCloserClassOf(m Marker) (ColumnClass, bool) {
	if m < markerObjectCloseBase || m >= markerColumnOpenBase {
		return ColumnClass{}, false
	}
	ord, mult := classFromIndex(int(m - markerObjectCloseBase))
	return ColumnClass{Ordering: ord, Multiplicity: mult, Shape: KeyValue}, true
}

// ColumnInfoOf reports the declared primitive and class encoded by m if m
// is any column opener.
func ColumnInfoOf(m Marker) (primitive Marker, class ColumnClass, ok bool) {
	if int(m) < int(markerColumnOpenBase) || int(m) >= markerCount {
		return 0, ColumnClass{}, false
	}
	rel := int(m) - int(markerColumnOpenBase)
	pidx := rel / numClasses
	cidx := rel % numClasses
	ord, mult := classFromIndex(cidx)
	return columnPrimitiveMarkers[pidx], ColumnClass{Ordering: ord, Multiplicity: mult, Shape: ValuesOnly}, true
}

// IsArrayOpener reports whether m is any array opener marker.
func IsArrayOpener(m Marker) bool { _, ok := ArrayClassOf(m); return ok }

// IsObjectOpener reports whether m is any object opener marker.
func IsObjectOpener(m Marker) bool { _, ok := ObjectClassOf(m); return ok }

// IsColumnOpener reports whether m is any column opener marker.
func IsColumnOpener(m Marker) bool { _, _, ok := ColumnInfoOf(m); return ok }

// CloserFor returns the closer marker that terminates the container opened
// by opener. Columns have no closer (self-delimited by their header), so
// ok is false for a column opener.
func CloserFor(opener Marker) (Marker, bool) {
	if c, ok := ArrayClassOf(opener); ok {
		return ArrayCloser(c), true
	}
	if c, ok := ObjectClassOf(opener); ok {
		return ObjectCloser(c), true
	}
	return 0, false
}

// IsNull reports whether a decoded fixed-width field carries the reserved
// null bit-pattern for its marker.
func IsNull(m Marker, payload []byte) bool {
	if len(payload) != m.Width() {
		return false
	}
	u := uint64(0)
	for i, b := range payload {
		u |= uint64(b) << (8 * uint(i))
	}
	switch m {
	case MarkerInt8:
		return int8(u) == NullInt8
	case MarkerInt16:
		return int16(u) == NullInt16
	case MarkerInt32:
		return int32(u) == NullInt32
	case MarkerInt64:
		return int64(u) == NullInt64
	case MarkerUint8:
		return uint8(u) == NullUint8
	case MarkerUint16:
		return uint16(u) == NullUint16
	case MarkerUint32:
		return uint32(u) == NullUint32
	case MarkerUint64:
		return u == NullUint64
	case MarkerFloat32:
		return uint32(u) == NullFloat32Bits
	case MarkerFloat64:
		return u == NullFloat64Bits
	default:
		return false
	}
}

// ValidateMarker rejects a byte that doesn't correspond to any known marker,
// the first check a decoder makes on every field header.
func ValidateMarker(b byte) (Marker, error) {
	if int(b) >= markerCount {
		return 0, carbonerr.New("types.validate_marker", carbonerr.MalformedPath, "unknown marker byte")
	}
	return Marker(b), nil
}
