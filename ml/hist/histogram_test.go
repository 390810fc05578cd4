package hist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

// 对照 np.digitize(v, np.arange(0, 12.5, 2.5)): 边界 0, 2.5, 5, 7.5, 10
func TestBinIndexMatchesDigitize(t *testing.T) {
	got, err := BinIndex([]float64{-1, 0, 1, 2.5, 4.9, 5, 9.99, 10}, 0, 2.5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1, 2, 2, 3, 4, 5}, got)
}

// 0.3/0.1 在浮点下略小于 3, 边界 0.1*3 也略大于 0.3, 序号应与边界比较一致
func TestBinIndexRounding(t *testing.T) {
	got, err := BinIndex([]float64{0.3, 0.7, 1.0}, 0, 0.1)
	require.NoError(t, err)
	for i, v := range []float64{0.3, 0.7, 1.0} {
		k := got[i]
		assert.LessOrEqual(t, float64(k-1)*0.1, v, "value %v", v)
		assert.Greater(t, float64(k)*0.1, v, "value %v", v)
	}
}

// 极小的宽度不分配边界数组, 超出上限时报错
func TestBinIndexTinyWidth(t *testing.T) {
	got, err := BinIndex([]float64{0, 1, 2, 3}, 0, 1e-12)
	require.NoError(t, err)
	assert.Equal(t, 1, got[0])
	assert.Greater(t, got[3], got[2])

	_, err = BinIndex([]float64{0, 1, 2, 3}, 0, 1e-300)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
}

func TestBinIndexInvalid(t *testing.T) {
	_, err := BinIndex([]float64{1}, 0, 0)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
	_, err = BinIndex([]float64{1}, 0, -1)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
	_, err = BinIndex([]float64{1}, 0, math.Inf(1))
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
}

func TestStrips(t *testing.T) {
	strips, err := Strips([]float64{0, 0.5, 1.2, 3.4, 3.9, 4}, 0, 1)
	require.NoError(t, err)
	require.Len(t, strips, 4)

	assert.Equal(t, HistogramBin{Index: 1, From: 0, To: 1, Count: 2}, strips[0])
	assert.Equal(t, 2, strips[1].Index)
	assert.Equal(t, 1, strips[1].Count)
	assert.Equal(t, 4, strips[2].Index)
	assert.Equal(t, 2, strips[2].Count)
	assert.Equal(t, HistogramBin{Index: 5, From: 4, To: 5, Count: 1}, strips[3])

	_, err = Strips([]float64{1}, 0, 0)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -2, 8, 0})
	assert.Equal(t, -2.0, lo)
	assert.Equal(t, 8.0, hi)
}
