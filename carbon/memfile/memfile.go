// Package memfile implements the byte-addressable buffer with a cursor that
// every Carbon reader and writer is built on (spec §4.9): seek/skip/peek,
// bounded reads and extending writes, and a little-endian uintvar codec.
package memfile

import (
	"encoding/binary"
	"math"

	"github.com/rpcpool/carbondict/internal/carbonerr"
	"github.com/rpcpool/carbondict/internal/dynbuf"
)

// File is a random-access byte container with a monotonic cursor. Writes
// extend the buffer as needed; reads never extend.
type File struct {
	buf    *dynbuf.Buffer[byte]
	cursor int
}

// New creates an empty memfile.
func New() *File {
	return &File{buf: dynbuf.New[byte](64)}
}

// FromBytes creates a memfile whose contents are a copy of data, cursor at 0.
func FromBytes(data []byte) *File {
	f := New()
	f.buf.Push(data...)
	return f
}

// Clone deep-copies the memfile's contents; the cursor resets to 0, matching
// the copy-on-write clone a revise session opens.
func (f *File) Clone() *File {
	return &File{buf: f.buf.Cpy()}
}

// Bytes exposes the live backing bytes. Callers must not retain the slice
// across a subsequent write that grows the buffer.
func (f *File) Bytes() []byte { return f.buf.Slice() }

// Advise hints the kernel about the expected access pattern over the
// backing buffer (spec §4.9). A dot-path resolve walks a record cursor-wise
// from the front, so callers that open a record purely to resolve a path
// pass AdviceSequential; bulk random-offset access should pass AdviceRandom.
func (f *File) Advise(a dynbuf.Advice) { dynbuf.MemAdvise(f.buf, a) }

// Len returns the total byte length.
func (f *File) Len() int { return f.buf.Len() }

// Tell returns the current cursor offset.
func (f *File) Tell() int { return f.cursor }

// Seek moves the cursor to an absolute offset.
func (f *File) Seek(offset int) error {
	if offset < 0 || offset > f.buf.Len() {
		return carbonerr.New("memfile.seek", carbonerr.IndexOutOfRange, "offset out of range")
	}
	f.cursor = offset
	return nil
}

// Skip advances the cursor by delta bytes (may be negative).
func (f *File) Skip(delta int) error {
	return f.Seek(f.cursor + delta)
}

// PeekByte returns the byte at the cursor without advancing it.
func (f *File) PeekByte() (byte, error) {
	if f.cursor >= f.buf.Len() {
		return 0, carbonerr.New("memfile.peek_byte", carbonerr.IndexOutOfRange, "read past end")
	}
	return *f.buf.At(f.cursor), nil
}

// ReadBytes reads n bytes at the cursor and advances it. Reading past the
// end of the buffer is an error; reads never extend the buffer.
func (f *File) ReadBytes(n int) ([]byte, error) {
	if n < 0 || f.cursor+n > f.buf.Len() {
		return nil, carbonerr.New("memfile.read_bytes", carbonerr.IndexOutOfRange, "read past end")
	}
	out := make([]byte, n)
	copy(out, f.buf.Slice()[f.cursor:f.cursor+n])
	f.cursor += n
	return out, nil
}

// WriteBytes writes data at the cursor, extending the buffer (overwriting
// in place where the cursor falls inside already-written bytes, appending
// where it falls at or past the end).
func (f *File) WriteBytes(data []byte) {
	end := f.cursor + len(data)
	if end > f.buf.Len() {
		f.buf.Push(make([]byte, end-f.buf.Len())...)
	}
	copy(f.buf.Slice()[f.cursor:end], data)
	f.cursor = end
}

// InsertBytes splices data into the buffer at the cursor, shifting any
// trailing bytes forward.
func (f *File) InsertBytes(data []byte) {
	head := append([]byte(nil), f.buf.Slice()[:f.cursor]...)
	tail := append([]byte(nil), f.buf.Slice()[f.cursor:]...)
	f.buf.Clear()
	f.buf.Push(head...)
	f.buf.Push(data...)
	f.buf.Push(tail...)
	f.cursor += len(data)
}

// DeleteBytes removes n bytes starting at the cursor, shifting trailing
// bytes back (used by iterator Remove()). The cursor does not move.
func (f *File) DeleteBytes(n int) error {
	if n < 0 || f.cursor+n > f.buf.Len() {
		return carbonerr.New("memfile.delete_bytes", carbonerr.IndexOutOfRange, "delete past end")
	}
	head := append([]byte(nil), f.buf.Slice()[:f.cursor]...)
	rest := append([]byte(nil), f.buf.Slice()[f.cursor+n:]...)
	f.buf.Clear()
	f.buf.Push(head...)
	f.buf.Push(rest...)
	return nil
}

// --- little-endian fixed-width helpers ---

func (f *File) ReadU8() (uint8, error) {
	b, err := f.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (f *File) WriteU8(v uint8) { f.WriteBytes([]byte{v}) }

func (f *File) ReadU16() (uint16, error) {
	b, err := f.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (f *File) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	f.WriteBytes(b[:])
}

func (f *File) ReadU32() (uint32, error) {
	b, err := f.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (f *File) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	f.WriteBytes(b[:])
}

func (f *File) ReadU64() (uint64, error) {
	b, err := f.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (f *File) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	f.WriteBytes(b[:])
}

func (f *File) ReadI64() (int64, error) {
	u, err := f.ReadU64()
	return int64(u), err
}

func (f *File) WriteI64(v int64) { f.WriteU64(uint64(v)) }

func (f *File) ReadFloat32() (float32, error) {
	u, err := f.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (f *File) WriteFloat32(v float32) { f.WriteU32(math.Float32bits(v)) }

// --- uintvar: little-endian 7-bit-per-byte continuation-bit varint ---

const continuationBit = 0x80

// ReadUintvar decodes a uintvar at the cursor, advancing it.
func (f *File) ReadUintvar() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := f.ReadU8()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&^continuationBit) << shift
		if b&continuationBit == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, carbonerr.New("memfile.read_uintvar", carbonerr.InvalidArgument, "uintvar too long")
		}
	}
	return result, nil
}

// WriteUintvar encodes v at the cursor.
func (f *File) WriteUintvar(v uint64) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= continuationBit
			f.WriteU8(b)
			continue
		}
		f.WriteU8(b)
		break
	}
}

// UintvarLen reports the encoded byte length of v without writing it.
func UintvarLen(v uint64) int {
	n := 1
	for v >= continuationBit {
		v >>= 7
		n++
	}
	return n
}
