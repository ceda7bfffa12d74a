package pagetree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/pdfpages/types"
	"github.com/benedoc-inc/pdfpages/xref"
)

// buildLinearDoc lays out a trailer (embedded directly as m.Trailer, no
// on-disk xref section needed) plus a catalog, a root Pages node, and two
// Page leaves, each at the offset computed while building buf and recorded
// in the xref map passed to Count.
func buildLinearDoc(t *testing.T) ([]byte, *xref.Map) {
	t.Helper()

	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n",
	}
	var buf []byte
	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(len(buf))
		buf = append(buf, []byte(o)...)
	}

	m := &xref.Map{
		Entries: map[int]types.Location{
			1: {Offset: offsets[0]},
			2: {Offset: offsets[1]},
			3: {Offset: offsets[2]},
			4: {Offset: offsets[3]},
		},
		Trailer: []byte("<< /Size 5 /Root 1 0 R >>"),
	}
	return buf, m
}

func TestCountLinearTree(t *testing.T) {
	buf, m := buildLinearDoc(t)
	n, err := Count(buf, m, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCountNestedKids(t *testing.T) {
	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 3 >>\nendobj\n",
		"3 0 obj\n<< /Type /Pages /Kids [4 0 R 5 0 R 6 0 R] >>\nendobj\n",
		"4 0 obj\n<< /Type /Page >>\nendobj\n",
		"5 0 obj\n<< /Type /Page >>\nendobj\n",
		"6 0 obj\n<< /Type /Page >>\nendobj\n",
	}
	var buf []byte
	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(len(buf))
		buf = append(buf, []byte(o)...)
	}
	m := &xref.Map{
		Entries: map[int]types.Location{
			1: {Offset: offsets[0]},
			2: {Offset: offsets[1]},
			3: {Offset: offsets[2]},
			4: {Offset: offsets[3]},
			5: {Offset: offsets[4]},
			6: {Offset: offsets[5]},
		},
		Trailer: []byte("<< /Size 7 /Root 1 0 R >>"),
	}

	n, err := Count(buf, m, 0)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestRootCount(t *testing.T) {
	buf, m := buildLinearDoc(t)
	n, err := RootCount(buf, m)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCountMissingRootErrors(t *testing.T) {
	m := &xref.Map{Entries: map[int]types.Location{}, Trailer: []byte("<< /Size 1 >>")}
	_, err := Count(nil, m, 0)
	require.Error(t, err)
}

func TestCountIndirectKidsArray(t *testing.T) {
	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids 5 0 R /Count 2 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page >>\nendobj\n",
		"4 0 obj\n<< /Type /Page >>\nendobj\n",
		"5 0 obj\n[3 0 R 4 0 R]\nendobj\n",
	}
	var buf []byte
	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(len(buf))
		buf = append(buf, []byte(o)...)
	}
	m := &xref.Map{
		Entries: map[int]types.Location{
			1: {Offset: offsets[0]},
			2: {Offset: offsets[1]},
			3: {Offset: offsets[2]},
			4: {Offset: offsets[3]},
			5: {Offset: offsets[4]},
		},
		Trailer: []byte("<< /Size 6 /Root 1 0 R >>"),
	}

	n, err := Count(buf, m, 0)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestCountCyclicKidsDoesNotHang(t *testing.T) {
	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] >>\nendobj\n",
		"3 0 obj\n<< /Type /Pages /Kids [2 0 R] >>\nendobj\n",
	}
	var buf []byte
	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(len(buf))
		buf = append(buf, []byte(o)...)
	}
	m := &xref.Map{
		Entries: map[int]types.Location{
			1: {Offset: offsets[0]},
			2: {Offset: offsets[1]},
			3: {Offset: offsets[2]},
		},
		Trailer: []byte("<< /Size 4 /Root 1 0 R >>"),
	}
	n, err := Count(buf, m, 0)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
