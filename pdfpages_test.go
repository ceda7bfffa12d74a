package pdfpages

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildMinimalPDF lays out a classic-xref PDF: catalog -> /Pages
// (/Count pageCount) -> one /Page kid per entry of kidsObjNums. Called with
// (1, []int{3}) it is the one-page PDF of seed test E1.
func buildMinimalPDF(t *testing.T, pageCount int, kidsObjNums []int) []byte {
	t.Helper()

	var buf []byte
	write := func(s string) int64 {
		off := int64(len(buf))
		buf = append(buf, []byte(s)...)
		return off
	}

	buf = append(buf, []byte("%PDF-1.4\n")...)

	offsets := make(map[int]int64)
	offsets[1] = write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kidsText := ""
	for _, n := range kidsObjNums {
		kidsText += strconv.Itoa(n) + " 0 R "
	}
	offsets[2] = write("2 0 obj\n<< /Type /Pages /Kids [" + kidsText + "] /Count " + strconv.Itoa(pageCount) + " >>\nendobj\n")

	for _, n := range kidsObjNums {
		offsets[n] = write(strconv.Itoa(n) + " 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n")
	}

	xrefOff := int64(len(buf))
	maxObj := 2
	for _, n := range kidsObjNums {
		if n > maxObj {
			maxObj = n
		}
	}
	write("xref\n0 " + strconv.Itoa(maxObj+1) + "\n")
	write("0000000000 65535 f \n")
	for i := 1; i <= maxObj; i++ {
		off, ok := offsets[i]
		if !ok {
			write("0000000000 00000 f \n")
			continue
		}
		write(pad10(off) + " 00000 n \n")
	}
	write("trailer\n<< /Size " + strconv.Itoa(maxObj+1) + " /Root 1 0 R >>\nstartxref\n" + strconv.Itoa(int(xrefOff)) + "\n%%EOF")

	return buf
}

func pad10(n int64) string {
	s := strconv.Itoa(int(n))
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}

func TestE1MinimalOnePagePDF(t *testing.T) {
	buf := buildMinimalPDF(t, 1, []int{3})
	n, err := CountBytes(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestE2FanOutToFortyTwoPages(t *testing.T) {
	kids := make([]int, 42)
	for i := range kids {
		kids[i] = 3 + i
	}
	buf := buildMinimalPDF(t, 42, kids)
	n, err := CountBytes(buf)
	require.NoError(t, err)
	require.Equal(t, 42, n)
}

func TestE4TruncatedCountFallsBackToPageObjectCount(t *testing.T) {
	// Only 5 raw /Type /Page objects exist: there is no xref, no /Pages
	// node and no /Count anywhere, so traversal, /Count trust and both
	// /Count scans all come up empty and the orchestrator falls through to
	// the heuristic page-object counter.
	buf := []byte(`
/Type /Page one
/Type /Page two
/Type /Page three
/Type /Page four
/Type /Page five
`)
	n, err := CountBytes(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestE5NotAPDFFails(t *testing.T) {
	_, err := CountBytes([]byte("not a pdf"))
	require.Error(t, err)
}

func TestE6PathAndBytesAgree(t *testing.T) {
	buf := buildMinimalPDF(t, 1, []int{3})
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	viaPath, err := Count(path)
	require.NoError(t, err)
	viaBytes, err := Count(buf)
	require.NoError(t, err)
	require.Equal(t, viaBytes, viaPath)
}

func TestCountUnsupportedInputType(t *testing.T) {
	_, err := Count(12345)
	require.Error(t, err)
}

func TestCountIOFailure(t *testing.T) {
	_, err := Count(filepath.Join(t.TempDir(), "does-not-exist.pdf"))
	require.Error(t, err)
}

func TestCountAsyncMatchesSync(t *testing.T) {
	buf := buildMinimalPDF(t, 1, []int{3})
	result := <-CountAsync(context.Background(), buf)
	require.NoError(t, result.Err)
	require.Equal(t, 1, result.Pages)
}

func TestCountAsyncRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := buildMinimalPDF(t, 1, []int{3})
	result := <-CountAsync(ctx, buf)
	// Either the cancellation or the (very fast) real result may win the
	// race; only a cancellation-born result must surface ctx.Err().
	if result.Err != nil {
		require.ErrorIs(t, result.Err, context.Canceled)
	}
}

func TestCountAsyncTimeoutIsRespected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	buf := buildMinimalPDF(t, 1, []int{3})
	result := <-CountAsync(ctx, buf)
	if result.Err != nil {
		require.ErrorIs(t, result.Err, context.DeadlineExceeded)
	}
}

func TestDeterminism(t *testing.T) {
	buf := buildMinimalPDF(t, 7, []int{3, 4, 5, 6, 7, 8, 9})
	a, err := CountBytes(buf)
	require.NoError(t, err)
	b, err := CountBytes(buf)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestWithMaxPrevHopsOption(t *testing.T) {
	buf := buildMinimalPDF(t, 1, []int{3})
	n, err := CountBytes(buf, WithMaxPrevHops(5), WithMaxStreamSize(1<<20))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func beBytes(n, width int) []byte {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(n & 0xFF)
		n >>= 8
	}
	return b
}

// TestE3XRefStreamWithCompressedCatalogPages builds a PDF whose sole xref
// is a cross-reference stream (no classic table at all), with the /Pages
// node and its one /Page kid stored inside a compressed object stream.
// /Filter is omitted on both streams (a filter is optional on both xref
// streams and ObjStms), which still exercises the xref-stream and ObjStm
// decode paths without requiring a compressed fixture.
func TestE3XRefStreamWithCompressedCatalogPages(t *testing.T) {
	var buf []byte
	write := func(s string) int64 {
		off := int64(len(buf))
		buf = append(buf, []byte(s)...)
		return off
	}
	writeBytes := func(b []byte) {
		buf = append(buf, b...)
	}

	buf = append(buf, []byte("%PDF-1.5\n")...)

	catalogOffset := write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	pagesEntry := "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"
	pageEntry := "<< /Type /Page >>"
	objStmHeader := "2 0 3 " + strconv.Itoa(len(pagesEntry)+1) + "\n"
	objStmBody := objStmHeader + pagesEntry + " " + pageEntry
	objStmOffset := write("10 0 obj\n<< /Type /ObjStm /N 2 /First " + strconv.Itoa(len(objStmHeader)) + " >>\nstream\n" + objStmBody + "\nendstream\nendobj\n")

	xrefOffset := int64(len(buf))

	type rowSpec struct {
		objNum, kind, f2, f3 int
	}
	rows := []rowSpec{
		{0, 0, 0, 0},
		{1, 1, int(catalogOffset), 0},
		{2, 2, 10, 0}, // compressed: ObjStm object 10, index 0
		{3, 2, 10, 1}, // compressed: ObjStm object 10, index 1
		{10, 1, int(objStmOffset), 0},
	}
	var data []byte
	for _, r := range rows {
		data = append(data, byte(r.kind))
		data = append(data, beBytes(r.f2, 2)...)
		data = append(data, beBytes(r.f3, 1)...)
	}

	xrefDict := "<< /Type /XRef /Size 11 /W [1 2 1] /Index [0 4 10 1] /Root 1 0 R >>"
	write("11 0 obj\n" + xrefDict + "\nstream\n")
	writeBytes(data)
	write("\nendstream\nendobj\n")
	write("startxref\n" + strconv.Itoa(int(xrefOffset)) + "\n%%EOF")

	n, err := CountBytes(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
