package xref

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/benedoc-inc/pdfpages/internal/dict"
	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/types"
)

// parseClassic parses a classic "xref" table at offset:
// subsection headers "first count", count fixed-width entries per
// subsection, terminated by "trailer" and a dictionary. Parsing is
// line-oriented rather than a strict 20-byte fixed read, which tolerates
// the whitespace variance real PDF writers produce while still rejecting
// genuinely malformed entries.
func parseClassic(buf []byte, offset int64) (entries map[int]types.Location, trailerText []byte, prevOffset int64, hasPrev bool, err error) {
	if offset < 0 || offset >= int64(len(buf)) {
		return nil, nil, 0, false, fmt.Errorf("xref: offset %d out of range", offset)
	}
	section := buf[offset:]
	if !lexer.HasPrefixAt(section, 0, "xref") {
		return nil, nil, 0, false, fmt.Errorf("xref: %q keyword not found at offset %d", "xref", offset)
	}

	trailerIdx := bytes.Index(section, []byte("trailer"))
	tableEnd := len(section)
	if trailerIdx != -1 {
		tableEnd = trailerIdx
	}
	table := section[len("xref"):tableEnd]

	entries = make(map[int]types.Location)
	lines := bytes.Split(table, []byte("\n"))

	currentObjNum := -1
	remaining := 0

	for _, rawLine := range lines {
		line := bytes.TrimSpace(rawLine)
		if len(line) == 0 {
			continue
		}
		fields := bytes.Fields(line)

		if len(fields) == 2 && remaining == 0 {
			first, err1 := strconv.Atoi(string(fields[0]))
			count, err2 := strconv.Atoi(string(fields[1]))
			if err1 == nil && err2 == nil {
				currentObjNum = first
				remaining = count
				continue
			}
		}

		if remaining <= 0 || len(fields) < 3 {
			continue
		}

		off, err1 := strconv.ParseInt(string(fields[0]), 10, 64)
		gen, err2 := strconv.Atoi(string(fields[1]))
		flag := string(fields[2])
		remaining--
		objNum := currentObjNum
		currentObjNum++
		if err1 != nil || err2 != nil {
			continue
		}
		if flag != "n" {
			continue // free entry, must not enter the map
		}
		entries[objNum] = types.Location{Offset: off, Gen: gen}
	}

	if trailerIdx == -1 {
		return entries, nil, 0, false, nil
	}

	trailerSection := section[trailerIdx+len("trailer"):]
	pos := lexer.SkipWhitespace(trailerSection, 0)
	if !lexer.HasPrefixAt(trailerSection, pos, "<<") {
		return entries, nil, 0, false, fmt.Errorf("xref: trailer dictionary not found")
	}
	text, _, ok := lexer.ReadDict(trailerSection, pos)
	if !ok {
		return entries, nil, 0, false, fmt.Errorf("xref: truncated trailer dictionary")
	}
	trailerText = text

	if prev, ok := dict.Int(lexer.AsLatin1Text(trailerText), "/Prev"); ok {
		return entries, trailerText, int64(prev), true, nil
	}
	return entries, trailerText, 0, false, nil
}
