package xref

import (
	"fmt"

	"github.com/benedoc-inc/pdfpages/internal/inflate"
)

// inflateData decompresses a FlateDecode stream body.
func inflateData(data []byte) ([]byte, error) {
	out, err := inflate.Flate(data)
	if err != nil {
		return nil, fmt.Errorf("xref: %w", err)
	}
	return out, nil
}

// reversePredictor undoes a PNG predictor: each decompressed
// row is prefixed by one byte naming its filter type (0 None, 1 Sub, 2 Up,
// 3 Average, 4 Paeth), applied independently per row over bpp-byte pixels.
func reversePredictor(data []byte, columns, colors, bitsPerComponent int) ([]byte, error) {
	if columns <= 0 {
		columns = 1
	}
	if colors <= 0 {
		colors = 1
	}
	if bitsPerComponent <= 0 {
		bitsPerComponent = 8
	}
	bpp := (colors*bitsPerComponent + 7) / 8
	if bpp < 1 {
		bpp = 1
	}
	rowBytes := (columns*colors*bitsPerComponent + 7) / 8
	stride := rowBytes + 1

	if stride <= 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("xref: predictor row length %d does not evenly divide data of length %d", stride, len(data))
	}
	rows := len(data) / stride
	out := make([]byte, rows*rowBytes)
	prevRow := make([]byte, rowBytes)

	for r := 0; r < rows; r++ {
		filterType := data[r*stride]
		row := data[r*stride+1 : r*stride+stride]
		outRow := out[r*rowBytes : r*rowBytes+rowBytes]

		for i := 0; i < rowBytes; i++ {
			var left, up, upLeft byte
			if i >= bpp {
				left = outRow[i-bpp]
				upLeft = prevRow[i-bpp]
			}
			up = prevRow[i]

			switch filterType {
			case 0: // None
				outRow[i] = row[i]
			case 1: // Sub
				outRow[i] = row[i] + left
			case 2: // Up
				outRow[i] = row[i] + up
			case 3: // Average
				outRow[i] = row[i] + byte((int(left)+int(up))/2)
			case 4: // Paeth
				outRow[i] = row[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("xref: unsupported predictor filter type %d", filterType)
			}
		}
		prevRow = outRow
	}
	return out, nil
}

// paeth is the PNG Paeth predictor function.
func paeth(a, b, c byte) byte {
	pa := abs(int(b) - int(c))
	pb := abs(int(a) - int(c))
	pc := abs(int(a) + int(b) - 2*int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
