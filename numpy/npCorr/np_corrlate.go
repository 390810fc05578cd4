// 与 np.correlate 同语义的一维互相关
package npCorr

import (
	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

type CORRELATE_MODE uint

const (
	FULL_MODE  CORRELATE_MODE = iota // 长度 n+m-1
	VALID_MODE                       // 长度 max(n,m)-min(n,m)+1, 只取完全重叠部分
	SAME_MODE                        // 长度 max(n,m), 以 a 为中心
)

// Correlate out[k] = Σ_j a[k+j-shift] * v[j]
func Correlate(a, v []float64, mode CORRELATE_MODE) ([]float64, error) {
	n, m := len(a), len(v)
	if n == 0 || m == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "correlate input is empty")
	}

	var outLen, shift int
	switch mode {
	case FULL_MODE:
		outLen, shift = n+m-1, m-1
	case SAME_MODE:
		outLen, shift = max(n, m), (m-1)/2
	case VALID_MODE:
		if m > n {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "valid mode needs len(v) <= len(a), got %d > %d", m, n)
		}
		outLen, shift = n-m+1, 0
	default:
		return nil, errorx.Newf(errCode.INVALID_VALUE, "invalid mode %d, expected full, same or valid", mode)
	}

	out := make([]float64, outLen)
	for k := 0; k < outLen; k++ {
		sum := 0.0
		for j := 0; j < m; j++ {
			ai := k + j - shift
			if ai >= 0 && ai < n {
				sum += a[ai] * v[j]
			}
		}
		out[k] = sum
	}
	return out, nil
}
