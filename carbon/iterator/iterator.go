// Package iterator implements forward iteration over Carbon arrays and
// objects, plus random-access decoding of columns (spec §4.11): arrays and
// objects are terminated by a class-matched closer marker rather than a
// length prefix, so a reader locates the end of a container by scanning
// forward and recursively skipping any nested containers it meets along
// the way; columns instead pack raw untagged primitives behind their own
// type/capacity/count header and are addressed by index via ColumnView.
package iterator

import (
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/types"
	"github.com/rpcpool/carbondict/internal/carbonerr"
)

// Field is one decoded entry: its marker, its raw payload bytes (interpret
// via the Marker's own accessor), and — for object entries — its key
// string. For array/object/column entries, Payload holds the full decoded
// body (everything between the opener and its matching closer, or the
// column's header+data span).
type Field struct {
	Marker  types.Marker
	Key     string // valid only when iterating an object
	Payload []byte
	offset  int // byte offset of the marker, for Remove/sub-iterator descent
	length  int // total encoded length including marker, key, and body
}

// Iterator walks one array or object container's entries in encoded order,
// bounded by the container's byte span [start, end).
type Iterator struct {
	file       *memfile.File
	container  types.Marker // the container's own opener marker
	start      int
	end        int
	pos        int
	index      int // count of entries returned so far
	cachedLast Field
}

// Open creates an iterator over an array/object body at [start, end), with
// the file cursor positioned anywhere (Next reseeks explicitly).
func Open(file *memfile.File, container types.Marker, start, end int) *Iterator {
	return &Iterator{file: file, container: container, start: start, end: end, pos: start}
}

// Index returns the 0-based index of the entry last returned by Next.
func (it *Iterator) Index() int { return it.index - 1 }

// Done reports whether the container's byte span has been fully consumed.
func (it *Iterator) Done() bool { return it.pos >= it.end }

// Next decodes and returns the next field, advancing the cursor.
func (it *Iterator) Next() (Field, error) {
	if it.Done() {
		return Field{}, carbonerr.New("iterator.next", carbonerr.IndexOutOfRange, "iteration exhausted")
	}
	if err := it.file.Seek(it.pos); err != nil {
		return Field{}, err
	}
	start := it.pos
	markerByte, err := it.file.ReadU8()
	if err != nil {
		return Field{}, err
	}
	marker, err := types.ValidateMarker(markerByte)
	if err != nil {
		return Field{}, err
	}
	var key string
	if types.IsObjectOpener(it.container) {
		klen, err := it.file.ReadUintvar()
		if err != nil {
			return Field{}, err
		}
		kb, err := it.file.ReadBytes(int(klen))
		if err != nil {
			return Field{}, err
		}
		key = string(kb)
	}
	payload, err := readPayload(it.file, marker)
	if err != nil {
		return Field{}, err
	}
	end := it.file.Tell()
	it.pos = end
	it.index++
	field := Field{Marker: marker, Key: key, Payload: payload, offset: start, length: end - start}
	it.cachedLast = field
	return field, nil
}

// readPayload consumes and returns the payload bytes for one field whose
// marker has just been read (and whose key, for an object entry, has
// already been consumed by the caller).
func readPayload(f *memfile.File, m types.Marker) ([]byte, error) {
	if w := m.Width(); w >= 0 {
		return f.ReadBytes(w)
	}
	switch m {
	case types.MarkerNull, types.MarkerBoolTrue, types.MarkerBoolFalse:
		return nil, nil
	case types.MarkerString, types.MarkerBinary:
		n, err := f.ReadUintvar()
		if err != nil {
			return nil, err
		}
		return f.ReadBytes(int(n))
	}
	if types.IsColumnOpener(m) {
		return readColumnPayload(f)
	}
	if types.IsArrayOpener(m) || types.IsObjectOpener(m) {
		return scanToCloser(f, m)
	}
	return nil, carbonerr.New("iterator.read_payload", carbonerr.TypeMismatch, "marker has no defined payload rule")
}

// scanToCloser advances f from its current position (the start of a
// container's body) past every entry until it reaches this container's own
// class-matched closer marker, consuming it. Nested containers are skipped
// by recursively locating their own closers first via readPayload, so a
// same-class sibling's closer can never be mistaken for this container's
// terminator. Returns the body bytes, excluding the closer.
func scanToCloser(f *memfile.File, opener types.Marker) ([]byte, error) {
	isObject := types.IsObjectOpener(opener)
	closer, ok := types.CloserFor(opener)
	if !ok {
		return nil, carbonerr.New("iterator.scan_to_closer", carbonerr.InternalInvariant, "opener has no closer")
	}
	bodyStart := f.Tell()
	for {
		b, err := f.PeekByte()
		if err != nil {
			return nil, err
		}
		if types.Marker(b) == closer {
			break
		}
		if _, err := f.ReadU8(); err != nil {
			return nil, err
		}
		marker, err := types.ValidateMarker(b)
		if err != nil {
			return nil, err
		}
		if isObject {
			klen, err := f.ReadUintvar()
			if err != nil {
				return nil, err
			}
			if _, err := f.ReadBytes(int(klen)); err != nil {
				return nil, err
			}
		}
		if _, err := readPayload(f, marker); err != nil {
			return nil, err
		}
	}
	end := f.Tell()
	body, err := sliceRange(f, bodyStart, end)
	if err != nil {
		return nil, err
	}
	if _, err := f.ReadU8(); err != nil { // consume the closer
		return nil, err
	}
	return body, nil
}

// readColumnPayload reconstructs a column field's full header+data span:
// read forward past the type/capacity/count header and the packed data to
// find where it ends, then copy the whole span.
func readColumnPayload(f *memfile.File) ([]byte, error) {
	start := f.Tell()
	elemByte, err := f.ReadU8()
	if err != nil {
		return nil, err
	}
	elemType, err := types.ValidateMarker(elemByte)
	if err != nil {
		return nil, err
	}
	if _, err := f.ReadUintvar(); err != nil { // capacity, unused for decode
		return nil, err
	}
	count, err := f.ReadUintvar()
	if err != nil {
		return nil, err
	}
	width := elemType.Width()
	if width < 0 {
		width = 1 // boolean columns pack one byte per element
	}
	if _, err := f.ReadBytes(int(count) * width); err != nil {
		return nil, err
	}
	end := f.Tell()
	return sliceRange(f, start, end)
}

func sliceRange(f *memfile.File, start, end int) ([]byte, error) {
	if err := f.Seek(start); err != nil {
		return nil, err
	}
	return f.ReadBytes(end - start)
}

// ReadContainerBody scans forward from f's current cursor (positioned just
// past a root container's opener marker, which has no enclosing entry of
// its own) to that container's closer, returning the body bytes and
// consuming through the closer. Used by dot-path resolution and rendering
// to open the record's root array.
func ReadContainerBody(f *memfile.File, opener types.Marker) ([]byte, error) {
	return scanToCloser(f, opener)
}

// Remove deletes the entry last returned by Next from the underlying file,
// shifting all following bytes back. The iterator's cursor rewinds so a
// subsequent Next resumes at the entry that shifted into the removed one's
// place. Remove must be called immediately after the corresponding Next.
func (it *Iterator) Remove() error {
	if it.index == 0 {
		return carbonerr.New("iterator.remove", carbonerr.InvalidArgument, "no current entry")
	}
	last := it.cachedLast
	if err := it.file.Seek(last.offset); err != nil {
		return err
	}
	if err := it.file.DeleteBytes(last.length); err != nil {
		return err
	}
	it.pos = last.offset
	it.end -= last.length
	it.index--
	return nil
}

// OpenSub opens a nested iterator descending into the array/object returned
// by the last Next call.
func (it *Iterator) OpenSub(f Field) (*Iterator, error) {
	if !types.IsArrayOpener(f.Marker) && !types.IsObjectOpener(f.Marker) {
		return nil, carbonerr.New("iterator.open_sub", carbonerr.TypeMismatch, "entry is not an array or object")
	}
	sub := memfile.FromBytes(f.Payload)
	return Open(sub, f.Marker, 0, len(f.Payload)), nil
}

// ColumnView is random-access over a column field's packed primitive
// values, decoded from its header (element-type marker, uintvar capacity,
// uintvar count) followed by count tightly packed values.
type ColumnView struct {
	elemType types.Marker
	width    int
	count    int
	data     []byte
}

// OpenColumn decodes a column field's payload header and returns a view
// over its packed values.
func OpenColumn(payload []byte) (ColumnView, error) {
	f := memfile.FromBytes(payload)
	elemByte, err := f.ReadU8()
	if err != nil {
		return ColumnView{}, err
	}
	elemType, err := types.ValidateMarker(elemByte)
	if err != nil {
		return ColumnView{}, err
	}
	if _, err := f.ReadUintvar(); err != nil { // capacity, unused for decode
		return ColumnView{}, err
	}
	count, err := f.ReadUintvar()
	if err != nil {
		return ColumnView{}, err
	}
	width := elemType.Width()
	if width < 0 {
		width = 1 // boolean columns pack one byte per element
	}
	data, err := f.ReadBytes(int(count) * width)
	if err != nil {
		return ColumnView{}, err
	}
	return ColumnView{elemType: elemType, width: width, count: int(count), data: data}, nil
}

// ElemType returns the column's declared primitive element type.
func (c ColumnView) ElemType() types.Marker { return c.elemType }

// Len returns the column's declared count.
func (c ColumnView) Len() int { return c.count }

// At returns the field for the i-th packed value, or ok=false if i is out
// of range (an out-of-range column index is "no result", not an error).
func (c ColumnView) At(i int) (Field, bool) {
	if i < 0 || i >= c.count {
		return Field{}, false
	}
	return Field{Marker: c.elemType, Payload: c.data[i*c.width : (i+1)*c.width]}, true
}
