// Package lexer provides the byte-level lexical primitives the rest of the
// engine builds on: whitespace skipping, line advancement, number reading,
// and depth-tracked reads of dictionaries and arrays.
//
// Every routine here operates on a plain byte slice and a cursor offset, is
// bounded by the slice length, and never panics on truncated input: it
// reports failure with ok=false instead. Bytes are
// never reinterpreted as anything but themselves: callers that need a text
// view for regexp matching do the latin-1 cast themselves (see
// AsLatin1Text), keeping byte offsets and rune offsets identical.
package lexer

// IsWhitespace reports whether b is PDF whitespace: NUL, HT, LF, FF, CR, SP.
func IsWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// SkipWhitespace advances pos past any run of whitespace bytes.
func SkipWhitespace(buf []byte, pos int) int {
	for pos < len(buf) && IsWhitespace(buf[pos]) {
		pos++
	}
	return pos
}

// AdvanceLine consumes a single line ending (CRLF, CR, or LF) starting at
// pos. If pos is not at a line ending it is returned unchanged.
func AdvanceLine(buf []byte, pos int) int {
	if pos >= len(buf) {
		return pos
	}
	switch buf[pos] {
	case '\r':
		pos++
		if pos < len(buf) && buf[pos] == '\n' {
			pos++
		}
		return pos
	case '\n':
		return pos + 1
	}
	return pos
}

// ReadInt reads an optionally signed decimal integer starting at pos.
// Returns the value, the offset just past it, and whether anything was
// read at all.
func ReadInt(buf []byte, pos int) (value int, next int, ok bool) {
	start := pos
	neg := false
	if pos < len(buf) && (buf[pos] == '+' || buf[pos] == '-') {
		neg = buf[pos] == '-'
		pos++
	}
	digitsStart := pos
	n := 0
	for pos < len(buf) && isDigit(buf[pos]) {
		n = n*10 + int(buf[pos]-'0')
		pos++
	}
	if pos == digitsStart {
		return 0, start, false
	}
	if neg {
		n = -n
	}
	return n, pos, true
}

// ReadKeyword reads a run of ASCII letters starting at pos (used for
// bareword tokens like "obj", "endobj", "stream", "xref", "trailer").
func ReadKeyword(buf []byte, pos int) (string, int) {
	start := pos
	for pos < len(buf) {
		b := buf[pos]
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') {
			pos++
			continue
		}
		break
	}
	return string(buf[start:pos]), pos
}

// HasPrefixAt reports whether buf has literal s starting at pos.
func HasPrefixAt(buf []byte, pos int, s string) bool {
	if pos < 0 || pos+len(s) > len(buf) {
		return false
	}
	return string(buf[pos:pos+len(s)]) == s
}

// ReadDelimited reads a bracket-depth-tracked span starting at pos, which
// must point at open. It returns the offset just past the matching close
// (nesting respected), or ok=false if the buffer ends before depth returns
// to zero.
func ReadDelimited(buf []byte, pos int, open, close string) (end int, ok bool) {
	if !HasPrefixAt(buf, pos, open) {
		return pos, false
	}
	depth := 0
	i := pos
	for i < len(buf) {
		switch {
		case HasPrefixAt(buf, i, open):
			depth++
			i += len(open)
		case HasPrefixAt(buf, i, close):
			depth--
			i += len(close)
			if depth == 0 {
				return i, true
			}
		default:
			i++
		}
	}
	return i, false
}

// ReadDict reads a "<< ... >>" span starting at pos (which must point at
// the first '<'), honoring nested dictionaries. Returns the inclusive text
// span (including the delimiters) and the offset just past it.
func ReadDict(buf []byte, pos int) (text []byte, end int, ok bool) {
	end, ok = ReadDelimited(buf, pos, "<<", ">>")
	if !ok {
		return nil, pos, false
	}
	return buf[pos:end], end, true
}

// ReadArray reads a "[ ... ]" span starting at pos (which must point at
// '['), honoring nested arrays. Returns the inclusive text span and the
// offset just past it.
func ReadArray(buf []byte, pos int) (text []byte, end int, ok bool) {
	end, ok = ReadDelimited(buf, pos, "[", "]")
	if !ok {
		return nil, pos, false
	}
	return buf[pos:end], end, true
}

// AsLatin1Text reinterprets buf as a text string one byte at a time, with
// no multi-byte decoding. The view is 1:1 with the buffer, so regexp match
// byte-offsets returned against this string are valid offsets into buf.
func AsLatin1Text(buf []byte) string {
	return string(buf)
}
