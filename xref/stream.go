package xref

import (
	"fmt"

	"github.com/benedoc-inc/pdfpages/internal/dict"
	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/internal/object"
	"github.com/benedoc-inc/pdfpages/types"
)

// parseStream parses a cross-reference stream object: an indirect object
// whose dictionary has /Type /XRef, describing its own
// entries as fixed-width binary fields in its (optionally FlateDecode'd,
// optionally PNG-predicted) stream body. All five PNG predictor filter
// types (None/Sub/Up/Average/Paeth) are reversed.
func parseStream(buf []byte, offset int64) (entries map[int]types.Location, trailerText []byte, prevOffset int64, hasPrev bool, err error) {
	obj, err := object.Read(buf, offset)
	if err != nil {
		return nil, nil, 0, false, fmt.Errorf("xref: %w", err)
	}
	if obj.Kind != object.KindDictionary {
		return nil, nil, 0, false, fmt.Errorf("xref: object at offset %d is not a dictionary", offset)
	}
	dictText := lexer.AsLatin1Text(obj.DictText)
	if !dict.HasNameValue(dictText, "/Type", "XRef") {
		return nil, nil, 0, false, fmt.Errorf("xref: object at offset %d is not an xref stream", offset)
	}

	size, ok := dict.Int(dictText, "/Size")
	if !ok {
		return nil, nil, 0, false, fmt.Errorf("xref: xref stream missing /Size")
	}
	wText := dict.Value(dictText, "/W")
	widths := dict.Ints(wText)
	if len(widths) != 3 {
		return nil, nil, 0, false, fmt.Errorf("xref: xref stream /W must have 3 entries, got %d", len(widths))
	}

	var index []int
	if idxText := dict.Value(dictText, "/Index"); idxText != "" {
		index = dict.Ints(idxText)
	}
	if len(index) == 0 {
		index = []int{0, size}
	}

	if !obj.HasStream {
		return nil, nil, 0, false, fmt.Errorf("xref: xref stream object has no stream body")
	}
	data := obj.StreamRaw

	if dict.HasNameValue(dictText, "/Filter", "FlateDecode") {
		data, err = inflateData(data)
		if err != nil {
			return nil, nil, 0, false, fmt.Errorf("xref: %w", err)
		}
	}

	if parmsText, ok := dict.NestedDict(dictText, "/DecodeParms"); ok {
		parms := lexer.AsLatin1Text(parmsText)
		if predictor, ok := dict.Int(parms, "/Predictor"); ok && predictor >= 10 {
			columns, hasColumns := dict.Int(parms, "/Columns")
			if !hasColumns {
				columns = widths[0] + widths[1] + widths[2]
			}
			colors, _ := dict.Int(parms, "/Colors")
			bpc, _ := dict.Int(parms, "/BitsPerComponent")
			data, err = reversePredictor(data, columns, colors, bpc)
			if err != nil {
				return nil, nil, 0, false, fmt.Errorf("xref: %w", err)
			}
		}
	}

	w0, w1, w2 := widths[0], widths[1], widths[2]
	rowWidth := w0 + w1 + w2

	entries = make(map[int]types.Location)
	cursor := 0
	for i := 0; i+1 < len(index); i += 2 {
		start := index[i]
		count := index[i+1]
		for n := 0; n < count; n++ {
			if cursor+rowWidth > len(data) {
				return entries, nil, 0, false, fmt.Errorf("xref: xref stream data truncated")
			}
			row := data[cursor : cursor+rowWidth]
			cursor += rowWidth

			fieldType := 1 // default per spec when w0 == 0
			if w0 > 0 {
				fieldType = int(readUint(row[:w0]))
			}
			field2 := readUint(row[w0 : w0+w1])
			field3 := readUint(row[w0+w1 : w0+w1+w2])
			objNum := start + n

			switch fieldType {
			case 0:
				// free entry
			case 1:
				entries[objNum] = types.Location{Offset: int64(field2), Gen: int(field3)}
			case 2:
				entries[objNum] = types.Location{
					Compressed:    true,
					StreamObjNum:  int(field2),
					IndexInStream: int(field3),
				}
			}
		}
	}

	if prev, ok := dict.Int(dictText, "/Prev"); ok {
		return entries, obj.DictText, int64(prev), true, nil
	}
	return entries, obj.DictText, 0, false, nil
}

func readUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
