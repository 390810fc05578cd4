package acf

import (
	"github.com/gonum/stat"
	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/numpy/npCorr"
)

// AutoCorr 单一序列自相关, 返回 lag 0..maxLag-1, acf[k] = Σu[t]u[t+k] / ((n-k)·var)
func AutoCorr(series []float64, maxLag int) ([]float64, error) {
	n := len(series)
	if n == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "input series empty")
	}
	if maxLag <= 0 {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "maxLag must be > 0, got %d", maxLag)
	}

	mean := stat.Mean(series, nil)
	u := make([]float64, n)
	for i := range series {
		u[i] = series[i] - mean
	}

	acfFull, err := npCorr.Correlate(u, u, npCorr.FULL_MODE)
	if err != nil {
		return nil, err
	}
	// 正向 lag: acfFull[n-1:]
	out := acfFull[n-1:]
	if len(out) > maxLag {
		out = out[:maxLag]
	}

	v2 := 0.0
	for _, x := range u {
		v2 += x * x
	}
	if v2 == 0 {
		return nil, errorx.New(errCode.INVALID_VALUE, "constant series has no autocorrelation")
	}
	varValue := v2 / float64(n)
	for k := range out {
		out[k] /= varValue * float64(n-k)
	}
	return out, nil
}

// ColumnLag 矩阵每一列在 lag 处的自相关, 列为时间序列 (例如 SVC 投影)
func ColumnLag(m mat.Matrix, lag int) ([]float64, error) {
	if m == nil {
		return nil, errorx.New(errCode.EMPTY_VALUE, "matrix is nil")
	}
	rows, cols := m.Dims()
	if lag < 0 || lag >= rows {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "lag %d out of range for %d samples", lag, rows)
	}
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		a, err := AutoCorr(mat.Col(nil, j, m), lag+1)
		if err != nil {
			return nil, errorx.Wrap(errorx.CodeOf(err), "column autocorrelation", err)
		}
		out[j] = a[lag]
	}
	return out, nil
}
