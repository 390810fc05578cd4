package hist

import (
	"math"
	"sort"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

// MaxBinIndex 分箱序号上限, 超过后 float64 无法精确表示整数序号
const MaxBinIndex = 1 << 52

// HistogramBin 每个分箱的结构, 区间为 [From, To)
type HistogramBin struct {
	Index int // BinIndex 给出的 1 起序号
	From  float64
	To    float64
	Count int
}

// BinIndex 与 np.digitize(values, np.arange(min, max+w, w)) 一致:
// 值在 [min+(i-1)w, min+iw) 内得到 i, 小于 min 得到 0
// 不生成边界数组, 分箱数只受 MaxBinIndex 限制
func BinIndex(values []float64, minV, width float64) ([]int, error) {
	if math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "bin width must be positive and finite, got %v", width)
	}
	if math.IsNaN(minV) || math.IsInf(minV, 0) {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "bin origin must be finite, got %v", minV)
	}

	idx := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "value %d is not finite", i)
		}
		if v < minV {
			continue
		}
		q := math.Floor((v - minV) / width)
		if q >= MaxBinIndex {
			return nil, errorx.Newf(errCode.INVALID_VALUE,
				"bin width %v is too small for range [%v, %v]: more than %d bins", width, minV, v, int64(MaxBinIndex))
		}
		k := int(q)
		// 按边界 min+k*w 的实际取值修正舍入
		for k > 0 && minV+float64(k)*width > v {
			k--
		}
		for minV+float64(k+1)*width <= v {
			k++
		}
		idx[i] = k + 1
	}
	return idx, nil
}

// Strips 统计每个非空分箱内的值个数, 按序号升序
func Strips(values []float64, minV, width float64) ([]HistogramBin, error) {
	idx, err := BinIndex(values, minV, width)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for _, k := range idx {
		counts[k]++
	}

	out := make([]HistogramBin, 0, len(counts))
	for k, c := range counts {
		out = append(out, HistogramBin{
			Index: k,
			From:  minV + float64(k-1)*width,
			To:    minV + float64(k)*width,
			Count: c,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func MinMax(data []float64) (minV, maxV float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	minV, maxV = data[0], data[0]
	for _, v := range data[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}
