// Package objstm decodes compressed object streams: an
// ObjStm packs several indirect objects' values into one FlateDecode'd
// stream, prefixed by a header of (object number, relative offset) pairs.
// The host object is located by offset, its stream decompressed, /N and
// /First read, and the requested entry sliced out of the body.
package objstm

import (
	"fmt"

	"github.com/benedoc-inc/pdfpages/internal/dict"
	"github.com/benedoc-inc/pdfpages/internal/inflate"
	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/internal/object"
)

// Entry is a single value extracted from an object stream.
type Entry struct {
	Kind      object.Kind
	DictText  []byte
	ArrayText []byte
}

// Get decodes the ObjStm object at streamOffset and returns the value
// stored at indexInStream, the position recorded by a type-2 cross
// reference entry. The object-number field in the ObjStm's own header
// pairs is parsed but not consulted for lookup; only the position matters.
func Get(buf []byte, streamOffset int64, indexInStream int) (*Entry, error) {
	obj, err := object.Read(buf, streamOffset)
	if err != nil {
		return nil, fmt.Errorf("objstm: %w", err)
	}
	if obj.Kind != object.KindDictionary {
		return nil, fmt.Errorf("objstm: object at offset %d is not a dictionary", streamOffset)
	}
	dictText := lexer.AsLatin1Text(obj.DictText)
	if !dict.HasNameValue(dictText, "/Type", "ObjStm") {
		return nil, fmt.Errorf("objstm: object at offset %d is not an ObjStm", streamOffset)
	}
	if !obj.HasStream {
		return nil, fmt.Errorf("objstm: ObjStm object has no stream body")
	}

	n, ok := dict.Int(dictText, "/N")
	if !ok {
		return nil, fmt.Errorf("objstm: ObjStm missing /N")
	}
	first, ok := dict.Int(dictText, "/First")
	if !ok {
		return nil, fmt.Errorf("objstm: ObjStm missing /First")
	}
	if indexInStream < 0 || indexInStream >= n {
		return nil, fmt.Errorf("objstm: index %d out of range for /N %d", indexInStream, n)
	}

	data := obj.StreamRaw
	if dict.HasNameValue(dictText, "/Filter", "FlateDecode") {
		var err error
		data, err = inflate.Flate(data)
		if err != nil {
			return nil, fmt.Errorf("objstm: %w", err)
		}
	}
	if first > len(data) {
		return nil, fmt.Errorf("objstm: /First %d beyond decoded stream length %d", first, len(data))
	}

	header := data[:first]
	pairs := dict.Ints(lexer.AsLatin1Text(header))
	if len(pairs) < 2*n {
		return nil, fmt.Errorf("objstm: header has %d ints, want %d for /N %d", len(pairs), 2*n, n)
	}

	relOffset := pairs[2*indexInStream+1]
	bodyStart := first + relOffset
	if bodyStart < 0 || bodyStart > len(data) {
		return nil, fmt.Errorf("objstm: entry offset %d out of range", bodyStart)
	}

	kind, dictText2, arrayText, _, err := object.ReadValue(data, bodyStart)
	if err != nil {
		return nil, fmt.Errorf("objstm: %w", err)
	}
	return &Entry{Kind: kind, DictText: dictText2, ArrayText: arrayText}, nil
}
