// Package header implements the record header every Carbon document opens
// with (spec §3): a key-type marker, an optional key value, and a pinned
// 64-bit commit-hash slot, followed immediately by the mandatory root array
// container.
package header

import (
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/internal/carbonerr"
)

// KeyMarker tags the record's key type; it shares no numbering with
// carbon/types.Marker (field tags) since it is a record-level concept.
type KeyMarker byte

const (
	KeyNone KeyMarker = iota
	KeyAuto
	KeyUnsigned
	KeySigned
	KeyString
)

func (k KeyMarker) String() string {
	switch k {
	case KeyNone:
		return "nokey"
	case KeyAuto:
		return "autokey"
	case KeyUnsigned:
		return "ukey"
	case KeySigned:
		return "ikey"
	case KeyString:
		return "skey"
	default:
		return "unknown"
	}
}

// Write encodes the record header at the file's current cursor (expected to
// be 0 on a fresh memfile): the key-type marker, the key value (omitted for
// KeyNone), and an 8-byte commit-hash slot pinned at 0 until a revise
// session commits a real hash over it.
func Write(f *memfile.File, kind KeyMarker, keyValue any) {
	f.WriteU8(byte(kind))
	switch kind {
	case KeyNone:
	case KeyAuto, KeyUnsigned:
		f.WriteU64(keyValue.(uint64))
	case KeySigned:
		f.WriteI64(keyValue.(int64))
	case KeyString:
		s := keyValue.(string)
		f.WriteUintvar(uint64(len(s)))
		f.WriteBytes([]byte(s))
	default:
		carbonerr.Panic("header.write", "unknown key-type marker")
	}
	f.WriteU64(0)
}

// Header is a decoded record header.
type Header struct {
	Kind         KeyMarker
	KeyValue     any // nil for KeyNone
	CommitHash   uint64
	HashOffset   int // byte offset of the 8-byte commit-hash slot
	RootStart    int // byte offset where the root array container begins
}

// Read decodes the record header starting at the file's byte 0.
func Read(f *memfile.File) (Header, error) {
	if err := f.Seek(0); err != nil {
		return Header{}, err
	}
	b, err := f.ReadU8()
	if err != nil {
		return Header{}, err
	}
	kind := KeyMarker(b)
	var keyValue any
	switch kind {
	case KeyNone:
	case KeyAuto, KeyUnsigned:
		v, err := f.ReadU64()
		if err != nil {
			return Header{}, err
		}
		keyValue = v
	case KeySigned:
		v, err := f.ReadI64()
		if err != nil {
			return Header{}, err
		}
		keyValue = v
	case KeyString:
		n, err := f.ReadUintvar()
		if err != nil {
			return Header{}, err
		}
		raw, err := f.ReadBytes(int(n))
		if err != nil {
			return Header{}, err
		}
		keyValue = string(raw)
	default:
		return Header{}, carbonerr.New("header.read", carbonerr.MalformedPath, "unknown key-type marker")
	}
	hashOffset := f.Tell()
	hash, err := f.ReadU64()
	if err != nil {
		return Header{}, err
	}
	return Header{Kind: kind, KeyValue: keyValue, CommitHash: hash, HashOffset: hashOffset, RootStart: f.Tell()}, nil
}

// PatchCommitHash overwrites the fixed-width 8-byte commit-hash slot in
// place; since the field is fixed-width, this never needs to splice the
// buffer the way a grown uintvar header would.
func PatchCommitHash(f *memfile.File, hashOffset int, hash uint64) error {
	if err := f.Seek(hashOffset); err != nil {
		return err
	}
	f.WriteU64(hash)
	return nil
}
