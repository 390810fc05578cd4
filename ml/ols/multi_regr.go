package ols

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/infra/observe/log/staticLog"
)

type MultiLinearModel struct {
	Coeffs      []float64 // 回归系数, 有常数项时 Coeffs[0] 为截距
	SE          []float64 // 标准误
	TStats      []float64 // t统计量
	PValues     []float64 // p值（双尾）
	Resids      []float64 // 残差
	AIC         float64
	BIC         float64
	Sigma2      float64 // 残差方差
	RSquared    float64
	AdjRSquared float64
}

// MultiRegression X: 样本 x 自变量, withConst 时在最左侧加常数列
func MultiRegression(X [][]float64, Y []float64, withConst bool) (MultiLinearModel, error) {
	n := len(Y)
	if n == 0 || len(X) == 0 {
		return MultiLinearModel{}, errorx.New(errCode.EMPTY_VALUE, "regression input is empty")
	}
	if n != len(X) {
		return MultiLinearModel{}, errorx.Newf(errCode.SHAPE_MISMATCH, "X has %d rows, Y has %d", len(X), n)
	}
	if withConst {
		X = addConstantColumn(X)
	}

	k := len(X[0])
	data := make([]float64, n*k)
	for i, row := range X {
		if len(row) != k {
			return MultiLinearModel{}, errorx.Newf(errCode.SHAPE_MISMATCH, "row %d has %d columns, want %d", i, len(row), k)
		}
		copy(data[i*k:(i+1)*k], row)
	}
	return MultiRegressionMat(mat.NewDense(n, k, data), mat.NewVecDense(n, Y))
}

func MultiRegressionMat(matX *mat.Dense, matY *mat.VecDense) (MultiLinearModel, error) {
	n, k := matX.Dims()

	// 自由度 df = n - k
	df := float64(n - k)
	if df <= 0 {
		return MultiLinearModel{}, errorx.Newf(errCode.INVALID_VALUE, "degrees of freedom %v: need more samples (%d) than parameters (%d)", df, n, k)
	}

	// (X'X)^(-1), 不可逆时退回到广义逆
	var xtx, invXTX mat.Dense
	xtx.Mul(matX.T(), matX)
	if err := invXTX.Inverse(&xtx); err != nil {
		staticLog.Log.Infof("warning X'X 不可逆, 改用 SVD 广义逆: %s", err)
		pinv, errSVD := pseudoInverse(&xtx)
		if errSVD != nil {
			return MultiLinearModel{}, errSVD
		}
		invXTX.CloneFrom(pinv)
	}

	// β = (X'X)^(-1) X'Y
	var xty, beta mat.VecDense
	xty.MulVec(matX.T(), matY)
	beta.MulVec(&invXTX, &xty)

	// 残差
	var yHat, resid mat.VecDense
	yHat.MulVec(matX, &beta)
	resid.SubVec(matY, &yHat)

	rss := mat.Dot(&resid, &resid)
	sigma2 := rss / df

	se := make([]float64, k)
	tStats := make([]float64, k)
	pValues := make([]float64, k)
	coeffs := make([]float64, k)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		se[i] = math.Sqrt(sigma2 * invXTX.At(i, i))
		tStats[i] = coeffs[i] / se[i]
		pValues[i] = 2 * tdist.Survival(math.Abs(tStats[i]))
	}

	// R² & 调整后R²
	yMean := mat.Sum(matY) / float64(n)
	tss := 0.0
	for i := 0; i < n; i++ {
		d := matY.AtVec(i) - yMean
		tss += d * d
	}
	rSq := 1 - rss/tss
	adjRSq := 1 - (1-rSq)*float64(n-1)/df

	// AIC / BIC
	logLik := -0.5 * float64(n) * (1 + math.Log(2*math.Pi*rss/float64(n)))

	return MultiLinearModel{
		Coeffs:      coeffs,
		SE:          se,
		TStats:      tStats,
		PValues:     pValues,
		Resids:      resid.RawVector().Data,
		AIC:         -2*logLik + 2*float64(k),
		BIC:         -2*logLik + float64(k)*math.Log(float64(n)),
		Sigma2:      sigma2,
		RSquared:    rSq,
		AdjRSquared: adjRSq,
	}, nil
}

// 用SVD 求解广义逆矩阵 A⁺ = V Σ⁺ Uᵀ
func pseudoInverse(A *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, errorx.New(errCode.DECOMPOSE_FAILED, "SVD of X'X failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sigma := svd.Values(nil)
	sInv := mat.NewDiagDense(len(sigma), nil)
	tol := 1e-12 // 小奇异值截断阈值
	for i, s := range sigma {
		if s > tol {
			sInv.SetDiag(i, 1/s)
		}
	}

	var pinv mat.Dense
	pinv.Product(&v, sInv, u.T())
	return &pinv, nil
}

// 添加常数项
func addConstantColumn(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row)+1)
		r[0] = 1.0
		copy(r[1:], row)
		out[i] = r
	}
	return out
}
