package xref

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReversePredictorNone(t *testing.T) {
	data := []byte{0, 10, 20, 30}
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, out)
}

func TestReversePredictorUp(t *testing.T) {
	data := []byte{2, 10, 20, 30}
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, out)
}

func TestReversePredictorSub(t *testing.T) {
	data := []byte{1, 10, 10, 10}
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, out)
}

func TestReversePredictorAverage(t *testing.T) {
	data := []byte{3, 10, 15, 20}
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, out)
}

func TestReversePredictorPaeth(t *testing.T) {
	data := []byte{4, 10, 10, 10}
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30}, out)
}

func TestReversePredictorMultiRow(t *testing.T) {
	row0 := []byte{0, 5, 5, 5} // None: original [5,5,5]
	row1 := []byte{2, 1, 1, 1} // Up: original = filtered + up = [6,6,6]
	data := append(append([]byte{}, row0...), row1...)
	out, err := reversePredictor(data, 3, 1, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 5, 5, 6, 6, 6}, out)
}

func TestReversePredictorUnsupportedFilterType(t *testing.T) {
	data := []byte{9, 1, 2, 3}
	_, err := reversePredictor(data, 3, 1, 8)
	require.Error(t, err)
}

func TestReversePredictorRejectsBadStride(t *testing.T) {
	_, err := reversePredictor([]byte{0, 1, 2}, 3, 1, 8)
	require.Error(t, err)
}
