// Package dotpath implements the Carbon dot-path grammar and resolver (spec
// §4.14): a tokenizer for `a.b."quoted".3`-style paths and a resolver that
// walks a record's container tree, honoring the shortened-root rule (a
// record whose root array holds exactly one object may omit the leading
// index atom when addressing that object's properties).
package dotpath

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/rpcpool/carbondict/carbon/header"
	"github.com/rpcpool/carbondict/carbon/iterator"
	"github.com/rpcpool/carbondict/carbon/memfile"
	"github.com/rpcpool/carbondict/carbon/revise"
	"github.com/rpcpool/carbondict/carbon/types"
	"github.com/rpcpool/carbondict/internal/carbonerr"
	"github.com/rpcpool/carbondict/internal/dynbuf"
)

// SegmentKind distinguishes a non-negative integer index atom from a named
// property atom (bare identifier or quoted string).
type SegmentKind int

const (
	SegmentKey SegmentKind = iota
	SegmentIndex
)

// Segment is one parsed path atom.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// Parse tokenizes a dot-path string per the grammar:
//
//	path     := atom ( '.' atom )*
//	atom     := index | ident | quoted
//	index    := [0-9]+
//	ident    := [^".\s]+
//	quoted   := '"' (any except unescaped '"')* '"'
//
// The grammar is whitespace-tolerant: leading/trailing/around-dot
// whitespace is skipped. An atom made up entirely of digits is an index;
// otherwise it is a key (bare or quoted).
func Parse(path string) ([]Segment, error) {
	var segs []Segment
	i, n := 0, len(path)
	skipSpace := func() {
		for i < n && unicode.IsSpace(rune(path[i])) {
			i++
		}
	}
	skipSpace()
	if i >= n {
		return nil, carbonerr.New("dotpath.parse", carbonerr.MalformedPath, "empty path")
	}
	for {
		skipSpace()
		if i >= n {
			return nil, carbonerr.New("dotpath.parse", carbonerr.MalformedPath, "trailing dot")
		}
		var seg Segment
		if path[i] == '"' {
			end := strings.IndexByte(path[i+1:], '"')
			if end < 0 {
				return nil, carbonerr.New("dotpath.parse", carbonerr.MalformedPath, "unterminated quoted atom")
			}
			end += i + 1
			seg = Segment{Kind: SegmentKey, Key: path[i+1 : end]}
			i = end + 1
		} else {
			start := i
			for i < n && path[i] != '.' && !unicode.IsSpace(rune(path[i])) {
				i++
			}
			if i == start {
				return nil, carbonerr.New("dotpath.parse", carbonerr.MalformedPath, "empty atom")
			}
			atom := path[start:i]
			if idx, err := strconv.Atoi(atom); err == nil && idx >= 0 && isAllDigits(atom) {
				seg = Segment{Kind: SegmentIndex, Index: idx}
			} else {
				seg = Segment{Kind: SegmentKey, Key: atom}
			}
		}
		segs = append(segs, seg)
		skipSpace()
		if i >= n {
			break
		}
		if path[i] != '.' {
			return nil, carbonerr.New("dotpath.parse", carbonerr.MalformedPath, "expected '.' between atoms")
		}
		i++
	}
	return segs, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Result is a live reference into the resolved record's memfile. It becomes
// invalid on any subsequent revise of that record.
type Result struct {
	found bool
	field iterator.Field
}

// HasResult reports whether resolution reached a field.
func (r Result) HasResult() bool { return r.found }

// ResultType returns the marker of the resolved field, or MarkerNull if
// HasResult is false.
func (r Result) ResultType() types.Marker {
	if !r.found {
		return types.MarkerNull
	}
	return r.field.Marker
}

// Field returns the resolved field. Only valid when HasResult is true.
func (r Result) Field() iterator.Field { return r.field }

// Resolve walks rec's root array following path, returning a Result. Out-
// of-range atoms and type mismatches produce a "no result" Result rather
// than an error, per spec §7 ("out-of-range path atoms produce no result
// and are not errors").
func Resolve(rec *revise.Record, path string) (Result, error) {
	segs, err := Parse(path)
	if err != nil {
		return Result{}, err
	}
	return ResolveSegments(rec.File(), segs)
}

// openRootArray skips the record header (key marker, key value, commit-hash
// slot) to reach the mandatory root array's own opener marker, scans its
// body to the matching closer, and returns an iterator over the body plus
// the root's own opener marker (so callers can classify it).
func openRootArray(f *memfile.File) (*iterator.Iterator, types.Marker, error) {
	hdr, err := header.Read(f)
	if err != nil {
		return nil, 0, err
	}
	if err := f.Seek(hdr.RootStart); err != nil {
		return nil, 0, err
	}
	markerByte, err := f.ReadU8()
	if err != nil {
		return nil, 0, err
	}
	rootMarker, err := types.ValidateMarker(markerByte)
	if err != nil {
		return nil, 0, err
	}
	if !types.IsArrayOpener(rootMarker) {
		return nil, 0, carbonerr.New("dotpath.resolve", carbonerr.InternalInvariant, "record root is not an array")
	}
	body, err := iterator.ReadContainerBody(f, rootMarker)
	if err != nil {
		return nil, 0, err
	}
	sub := memfile.FromBytes(body)
	return iterator.Open(sub, rootMarker, 0, len(body)), rootMarker, nil
}

// ResolveSegments walks a memfile whose root is the mandatory Carbon array
// container, applying the shortened-root rule before consuming segs.
func ResolveSegments(f *memfile.File, segs []Segment) (Result, error) {
	// A resolve only ever walks forward from the header, never revisits
	// earlier bytes: hint the kernel accordingly before the descent.
	f.Advise(dynbuf.AdviceSequential)
	it, rootMarker, err := openRootArray(f)
	if err != nil {
		return Result{}, err
	}
	curMarker := rootMarker

	if applyShortenedRoot(segs) && !it.Done() {
		sole, err := it.Next()
		if err != nil {
			return Result{}, err
		}
		if it.Done() && types.IsObjectOpener(sole.Marker) {
			sub, err := it.OpenSub(sole)
			if err != nil {
				return Result{}, err
			}
			it = sub
			curMarker = sole.Marker
		} else {
			// Either more than one root child, or the sole child isn't an
			// object: shortened-root does not apply; restart at the root.
			it, rootMarker, err = openRootArray(f)
			if err != nil {
				return Result{}, err
			}
			curMarker = rootMarker
		}
	}

	var field iterator.Field
	found := false
	for segIdx, seg := range segs {
		if types.IsColumnOpener(curMarker) {
			// The parent container is a column: indexing addresses its
			// packed primitives directly, never via the generic iterator.
			return resolveColumnTail(field.Payload, segs[segIdx:])
		}
		found = false
		for !it.Done() {
			fl, err := it.Next()
			if err != nil {
				return Result{}, err
			}
			if matches(curMarker, seg, fl, it.Index()) {
				field = fl
				found = true
				break
			}
		}
		if !found {
			return Result{found: false}, nil
		}
		if segIdx < len(segs)-1 {
			switch {
			case types.IsArrayOpener(field.Marker), types.IsObjectOpener(field.Marker):
				sub, err := it.OpenSub(field)
				if err != nil {
					return Result{}, err
				}
				it = sub
				curMarker = field.Marker
			case types.IsColumnOpener(field.Marker):
				curMarker = field.Marker
			default:
				return Result{found: false}, nil
			}
		}
	}
	return Result{found: found, field: field}, nil
}

// resolveColumnTail addresses a column's packed values; only a single
// index segment is meaningful past a column (columns have no further
// nested structure).
func resolveColumnTail(columnPayload []byte, segs []Segment) (Result, error) {
	if len(segs) != 1 || segs[0].Kind != SegmentIndex {
		return Result{found: false}, nil
	}
	view, err := iterator.OpenColumn(columnPayload)
	if err != nil {
		return Result{}, err
	}
	fl, ok := view.At(segs[0].Index)
	if !ok {
		return Result{found: false}, nil
	}
	return Result{found: true, field: fl}, nil
}

// applyShortenedRoot reports whether the shortened-root rule's *syntactic*
// precondition holds: the first atom is not a non-negative integer. Whether
// it actually fires also depends on the root having exactly one object
// child, checked once the root is decoded.
func applyShortenedRoot(segs []Segment) bool {
	return len(segs) > 0 && segs[0].Kind != SegmentIndex
}

func matches(container types.Marker, seg Segment, f iterator.Field, index int) bool {
	switch seg.Kind {
	case SegmentIndex:
		return !types.IsObjectOpener(container) && index == seg.Index
	case SegmentKey:
		return types.IsObjectOpener(container) && f.Key == seg.Key
	default:
		return false
	}
}
