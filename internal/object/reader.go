// Package object implements the indirect object reader: given a byte
// offset expected to hold "N G obj ... endobj", it returns the
// object's dictionary or array text, plus its raw stream body if present.
package object

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/benedoc-inc/pdfpages/internal/lexer"
)

// Kind distinguishes what an indirect object's body turned out to be.
type Kind int

const (
	KindDictionary Kind = iota
	KindArray
	KindOther
)

// Object is the parsed result of reading "N G obj ... endobj" at an offset.
type Object struct {
	Kind Kind

	// DictText is the "<< ... >>" span (inclusive) when Kind == KindDictionary.
	DictText []byte
	// ArrayText is the "[ ... ]" span (inclusive) when Kind == KindArray.
	ArrayText []byte

	// HasStream reports whether a "stream ... endstream" body followed the
	// dictionary.
	HasStream bool
	// StreamRaw is the raw (still encoded) bytes strictly between "stream"
	// and "endstream", with the leading EOL already consumed.
	StreamRaw []byte
}

var headerPattern = regexp.MustCompile(`^\s*\d+\s+\d+\s+obj\b`)

// Read parses the indirect object expected to start at offset in buf.
// A mismatched (N G) pair in the header is tolerated without
// resynchronization, and a missing "endobj" is tolerated by returning
// just the parsed prefix.
func Read(buf []byte, offset int64) (*Object, error) {
	if offset < 0 || offset >= int64(len(buf)) {
		return nil, fmt.Errorf("object: offset %d out of range", offset)
	}
	section := buf[offset:]

	loc := headerPattern.FindIndex(section)
	if loc == nil {
		return nil, fmt.Errorf("object: malformed object header at offset %d", offset)
	}
	pos := loc[1]
	pos = lexer.SkipWhitespace(section, pos)

	obj := &Object{}
	kind, dictText, arrayText, newPos, err := ReadValue(section, pos)
	if err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}
	obj.Kind = kind
	obj.DictText = dictText
	obj.ArrayText = arrayText
	pos = newPos
	if kind == KindOther {
		return obj, nil
	}

	afterDict := lexer.SkipWhitespace(section, pos)
	if !lexer.HasPrefixAt(section, afterDict, "stream") {
		return obj, nil
	}
	if obj.Kind != KindDictionary {
		return obj, nil
	}

	streamStart := afterDict + len("stream")
	streamStart = lexer.AdvanceLine(section, streamStart)

	endIdx := bytes.Index(section[streamStart:], []byte("endstream"))
	if endIdx == -1 {
		return obj, nil
	}
	obj.HasStream = true
	obj.StreamRaw = section[streamStart : streamStart+endIdx]
	return obj, nil
}

// ReadValue reads a single PDF value (a dictionary or an array; anything
// else is reported as KindOther and left unconsumed) starting at pos. It
// underlies both Read, for the body that follows an "N G obj" header, and
// objstm.Get, for a compressed object's value with no header at all.
func ReadValue(buf []byte, pos int) (kind Kind, dictText, arrayText []byte, next int, err error) {
	switch {
	case lexer.HasPrefixAt(buf, pos, "<<"):
		text, end, ok := lexer.ReadDict(buf, pos)
		if !ok {
			return 0, nil, nil, pos, fmt.Errorf("unterminated dictionary at offset %d", pos)
		}
		return KindDictionary, text, nil, end, nil
	case lexer.HasPrefixAt(buf, pos, "["):
		text, end, ok := lexer.ReadArray(buf, pos)
		if !ok {
			return 0, nil, nil, pos, fmt.Errorf("unterminated array at offset %d", pos)
		}
		return KindArray, nil, text, end, nil
	default:
		return KindOther, nil, nil, pos, nil
	}
}
