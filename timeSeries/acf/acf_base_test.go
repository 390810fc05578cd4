package acf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

func TestAutoCorrKnownSeries(t *testing.T) {
	// 均值 0 的交替序列: lag k 的自相关为 (-1)^k
	series := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	a, err := AutoCorr(series, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, -1, 1, -1}, a, 1e-12)
}

func TestAutoCorrTruncatesToSeriesLength(t *testing.T) {
	a, err := AutoCorr([]float64{1, 2, 3}, 10)
	require.NoError(t, err)
	assert.Len(t, a, 3)
	assert.InDelta(t, 1.0, a[0], 1e-12)
}

// AR(1): lag-1 自相关接近 phi, 白噪声接近 0
func TestColumnLagAR1(t *testing.T) {
	const n, phi = 20000, 0.8
	r := rand.New(rand.NewSource(1))
	m := mat.NewDense(n, 2, nil)
	prev := 0.0
	for i := 0; i < n; i++ {
		prev = phi*prev + r.NormFloat64()
		m.Set(i, 0, prev)
		m.Set(i, 1, r.NormFloat64())
	}

	lag1, err := ColumnLag(m, 1)
	require.NoError(t, err)
	assert.InDelta(t, phi, lag1[0], 0.03)
	assert.InDelta(t, 0, lag1[1], 0.03)
}

func TestAutoCorrErrors(t *testing.T) {
	_, err := AutoCorr(nil, 3)
	assert.True(t, errorx.HasCode(err, errCode.EMPTY_VALUE))

	_, err = AutoCorr([]float64{1, 2}, 0)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))

	_, err = AutoCorr([]float64{2, 2, 2}, 2)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))

	_, err = ColumnLag(mat.NewDense(3, 1, []float64{1, 2, 3}), 3)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))

	_, err = ColumnLag(mat.NewDense(3, 1, []float64{1, 1, 1}), 1)
	assert.True(t, errorx.HasCode(err, errCode.INVALID_VALUE))
}
