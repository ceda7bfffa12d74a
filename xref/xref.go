// Package xref resolves a PDF's cross-reference information: it walks the
// startxref -> xref table/stream -> /Prev chain and
// produces a single object-number -> Location map, the object locations
// needed to find the page tree without scanning the whole file.
//
// The chain is walked from the newest revision backward along /Prev, so
// the first location recorded for an object number is always the newest
// and wins; older revisions only fill gaps. The first revision's trailer
// is kept for the same reason: it carries the latest /Root.
package xref

import (
	"bytes"
	"fmt"

	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/types"
)

// DefaultMaxPrevHops bounds how many /Prev links are followed before giving
// up on a cyclic or pathological chain.
const DefaultMaxPrevHops = 10

// Kind identifies whether the newest revision in the chain used a classic
// xref table or a cross-reference stream.
type Kind int

const (
	KindClassic Kind = iota
	KindStream
)

// Map is the resolved union of every revision's entries, newest-wins.
type Map struct {
	Entries map[int]types.Location
	// Trailer is the latest (first-seen) revision's trailer dictionary text,
	// including delimiters.
	Trailer []byte
	// Kind is the form of the newest (first) revision in the chain.
	Kind Kind
}

// Lookup returns the location recorded for objNum, if any.
func (m *Map) Lookup(objNum int) (types.Location, bool) {
	loc, ok := m.Entries[objNum]
	return loc, ok
}

// FindStartXRef scans backward from the end of buf for the last
// "startxref" keyword and returns the byte offset written after it.
func FindStartXRef(buf []byte) (int64, error) {
	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx == -1 {
		return 0, fmt.Errorf("xref: startxref keyword not found")
	}
	pos := idx + len("startxref")
	pos = lexer.SkipWhitespace(buf, pos)
	value, _, ok := lexer.ReadInt(buf, pos)
	if !ok || value < 0 {
		return 0, fmt.Errorf("xref: startxref has no valid offset")
	}
	return int64(value), nil
}

// Resolve walks the xref chain starting at startOffset, merging each
// revision's entries first-seen-wins, and returns the combined Map.
// maxHops bounds the /Prev chain length; values <= 0 fall back to
// DefaultMaxPrevHops.
func Resolve(buf []byte, startOffset int64, maxHops int) (*Map, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxPrevHops
	}

	result := &Map{Entries: make(map[int]types.Location)}
	if kind, err := ResolveKind(buf, startOffset); err == nil {
		result.Kind = kind
	}
	visited := make(map[int64]bool)
	offset := startOffset
	first := true

	for hop := 0; hop < maxHops; hop++ {
		if visited[offset] {
			break // cyclic /Prev chain, stop rather than loop forever
		}
		visited[offset] = true

		entries, trailerText, prevOffset, hasPrev, err := parseRevision(buf, offset)
		if err != nil {
			if first {
				return nil, err
			}
			break // a broken earlier revision still leaves the newer ones usable
		}

		for objNum, loc := range entries {
			if _, exists := result.Entries[objNum]; !exists {
				result.Entries[objNum] = loc
			}
		}
		if first {
			result.Trailer = trailerText
			first = false
		}

		if !hasPrev {
			break
		}
		offset = prevOffset
	}

	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("xref: no entries resolved from chain starting at offset %d", startOffset)
	}
	return result, nil
}

// parseRevision dispatches a single xref revision at offset to the classic
// table parser or the cross-reference stream parser.
func parseRevision(buf []byte, offset int64) (entries map[int]types.Location, trailerText []byte, prevOffset int64, hasPrev bool, err error) {
	pos := offset
	if pos < 0 || pos > int64(len(buf)) {
		return nil, nil, 0, false, fmt.Errorf("xref: offset %d out of range", offset)
	}
	pos += int64(lexer.SkipWhitespace(buf[pos:], 0))

	if lexer.HasPrefixAt(buf, int(pos), "xref") {
		return parseClassic(buf, pos)
	}
	return parseStream(buf, pos)
}

// ResolveKind reports which form the newest revision in the chain used,
// without re-walking /Prev; it inspects only the top of the chain.
func ResolveKind(buf []byte, startOffset int64) (Kind, error) {
	pos := startOffset
	if pos < 0 || pos > int64(len(buf)) {
		return KindClassic, fmt.Errorf("xref: offset %d out of range", startOffset)
	}
	pos += int64(lexer.SkipWhitespace(buf[pos:], 0))
	if lexer.HasPrefixAt(buf, int(pos), "xref") {
		return KindClassic, nil
	}
	return KindStream, nil
}
