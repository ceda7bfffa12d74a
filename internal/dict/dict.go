// Package dict extracts named fields out of a PDF dictionary's latin-1 text
// view by regular expression, rather than through a full PDF object lexer.
// The contract is only that named-key extraction is correct for well-formed
// dictionaries and tolerant of arbitrary whitespace.
package dict

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/types"
)

var (
	intPattern = regexp.MustCompile(`-?\d+`)
	refPattern = regexp.MustCompile(`(\d+)\s+(\d+)\s+R`)
)

func simpleValuePattern(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(key) + `\s+([^\s/<>\[\]]+)`)
}

func noSpacePattern(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(key) + `/([^/\s<>\[\]]+)`)
}

func arrayPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(key) + `\s*\[([^\]]*)\]`)
}

// Value extracts the raw textual value that follows key in dictText: a
// simple token ("/Pages 3 0 R" -> "3"), a name value packed against the key
// ("/Subtype/Type1" -> "/Type1"), or a bracketed array ("/Kids[4 0 R]" ->
// "[4 0 R]"). Returns "" if key is not present.
func Value(dictText, key string) string {
	if m := simpleValuePattern(key).FindStringSubmatch(dictText); m != nil {
		return m[1]
	}
	if m := noSpacePattern(key).FindStringSubmatch(dictText); m != nil {
		return "/" + m[1]
	}
	if m := arrayPattern(key).FindStringSubmatch(dictText); m != nil {
		return "[" + m[1] + "]"
	}
	return ""
}

// Int extracts the integer value that follows key in dictText. ok is false
// if key is absent or its value is not a plain integer.
func Int(dictText, key string) (n int, ok bool) {
	v := Value(dictText, key)
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// HasNameValue reports whether dictText has key set to the bare name value
// (e.g. HasNameValue(d, "/Type", "Pages") matches both "/Type /Pages" and
// "/Type/Pages", but not "/Type /Page" or "/Type /Pages2").
func HasNameValue(dictText, key, name string) bool {
	pattern := regexp.MustCompile(regexp.QuoteMeta(key) + `\s*/` + regexp.QuoteMeta(name) + `\b`)
	return pattern.MatchString(dictText)
}

// Refs parses an array-or-bare-list of "N G R" indirect references, such as
// the contents of a /Kids value, and returns each "N G" pair as (objNum,
// gen).
func Refs(arrText string) []types.IndirectRef {
	arrText = strings.TrimSpace(arrText)
	arrText = strings.TrimPrefix(arrText, "[")
	arrText = strings.TrimSuffix(arrText, "]")

	matches := refPattern.FindAllStringSubmatch(arrText, -1)
	refs := make([]types.IndirectRef, 0, len(matches))
	for _, m := range matches {
		num, err1 := strconv.Atoi(m[1])
		gen, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		refs = append(refs, types.IndirectRef{ObjectNumber: num, Generation: gen})
	}
	return refs
}

// ParseRef parses a single "N G R" reference out of a raw value like the one
// returned by Value (e.g. "3" from "/Root 3 0 R" is insufficient; callers
// needing the full reference should match against the dictionary directly).
// ParseRef accepts the full "N G R" textual form instead.
func ParseRef(s string) (types.IndirectRef, error) {
	s = strings.TrimSpace(s)
	m := refPattern.FindStringSubmatch(s)
	if m == nil {
		return types.IndirectRef{}, fmt.Errorf("dict: %q is not an indirect reference", s)
	}
	num, _ := strconv.Atoi(m[1])
	gen, _ := strconv.Atoi(m[2])
	return types.IndirectRef{ObjectNumber: num, Generation: gen}, nil
}

// Ints parses a bracketed or bare whitespace-separated list of integers,
// such as a /W or /Index array's contents.
func Ints(arrText string) []int {
	matches := intPattern.FindAllString(arrText, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// NestedDict extracts key's value from dictText when it is itself a
// dictionary ("<< ... >>"), such as /DecodeParms.
func NestedDict(dictText, key string) (text []byte, ok bool) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(key) + `\s*`)
	loc := pattern.FindStringIndex(dictText)
	if loc == nil {
		return nil, false
	}
	buf := []byte(dictText)
	pos := lexer.SkipWhitespace(buf, loc[1])
	if !lexer.HasPrefixAt(buf, pos, "<<") {
		return nil, false
	}
	inner, _, ok := lexer.ReadDict(buf, pos)
	if !ok {
		return nil, false
	}
	return inner, true
}

// RefValue extracts key's value from dictText as a full "N G R" reference
// (e.g. RefValue(d, "/Root") for "/Root 3 0 R" -> {3, 0}).
func RefValue(dictText, key string) (types.IndirectRef, bool) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(key) + `\s+(\d+\s+\d+\s+R)`)
	m := pattern.FindStringSubmatch(dictText)
	if m == nil {
		return types.IndirectRef{}, false
	}
	ref, err := ParseRef(m[1])
	if err != nil {
		return types.IndirectRef{}, false
	}
	return ref, true
}
