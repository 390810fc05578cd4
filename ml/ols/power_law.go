package ols

import (
	"math"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

// PowerLaw y = Scale * x^Exponent
type PowerLaw struct {
	Exponent float64
	Scale    float64
	RSquared float64 // log-log 空间的拟合优度
	N        int     // 参与拟合的点数
}

func (p PowerLaw) Eval(x float64) float64 {
	return p.Scale * math.Pow(x, p.Exponent)
}

// FitPowerLaw 在 log-log 空间做 OLS: log(y) = log(a) + p·log(x)
// x, y 必须等长且全为正
func FitPowerLaw(x, y []float64) (PowerLaw, error) {
	if len(x) != len(y) {
		return PowerLaw{}, errorx.Newf(errCode.INVALID_VALUE, "x has %d points, y has %d", len(x), len(y))
	}
	if len(x) < 2 {
		return PowerLaw{}, errorx.Newf(errCode.EMPTY_VALUE, "power law fit needs at least 2 points, got %d", len(x))
	}

	// 1. 构造 log-log 回归数据
	X := make([][]float64, len(x))
	Y := make([]float64, len(y))
	for i := range x {
		if !(x[i] > 0) || !(y[i] > 0) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			return PowerLaw{}, errorx.Newf(errCode.INVALID_VALUE, "point %d (%v, %v) is not positive and finite", i, x[i], y[i])
		}
		X[i] = []float64{math.Log(x[i])}
		Y[i] = math.Log(y[i])
	}

	// 2. 只有两个点时自由度为 0, 直接求直线
	if len(x) == 2 {
		if X[0][0] == X[1][0] {
			return PowerLaw{}, errorx.New(errCode.INVALID_VALUE, "x values are identical")
		}
		p := (Y[1] - Y[0]) / (X[1][0] - X[0][0])
		return PowerLaw{Exponent: p, Scale: math.Exp(Y[0] - p*X[0][0]), RSquared: 1, N: 2}, nil
	}

	// 3. 执行线性回归
	model, err := MultiRegression(X, Y, true)
	if err != nil {
		return PowerLaw{}, errorx.Wrap(errCode.INVALID_VALUE, "power law regression failed", err)
	}
	return PowerLaw{
		Exponent: model.Coeffs[1],
		Scale:    math.Exp(model.Coeffs[0]),
		RSquared: model.RSquared,
		N:        len(x),
	}, nil
}

// FitSpectrum 拟合谱 values[k] ~ a·(k+1)^p, 取 [from, to) 区间, 跳过非正值和 NaN
// to<=0 或超出长度时取到末尾
func FitSpectrum(values []float64, from, to int) (PowerLaw, error) {
	if from < 0 {
		from = 0
	}
	if to <= 0 || to > len(values) {
		to = len(values)
	}
	if from >= to {
		return PowerLaw{}, errorx.Newf(errCode.EMPTY_VALUE, "empty fit range [%d, %d)", from, to)
	}

	x := make([]float64, 0, to-from)
	y := make([]float64, 0, to-from)
	for k := from; k < to; k++ {
		v := values[k]
		if !(v > 0) || math.IsInf(v, 0) {
			continue // 跳过无效
		}
		x = append(x, float64(k+1))
		y = append(y, v)
	}
	return FitPowerLaw(x, y)
}
