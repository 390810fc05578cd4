// Shared Variance Component Analysis (SVCA)
//
// 在观测轴(train/test)和特征轴(F/G)两个方向上交叉验证, 估计特征集中可复现的协变维度:
// 只有同时在另一半观测和另一组特征上都能复现的方差才算 reliable.
// 参考 Stringer et al., Science 2019, https://doi.org/10.1126/science.aav7893
package svca

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/infra/observe/log/staticLog"
)

// Result 的各序列均按训练协方差的奇异值从大到小排列, 不按 ReliableVariance 重新排序;
// 测试集噪声会打乱量级, 所以 ReliableVariance 不保证单调递减
type Result struct {
	ReliableVariance []float64  // 每个维度在 test 上可复现的方差, diag(Uᵀ·Ctest·V)
	AllVariance      []float64  // 两组特征在 test 上的组内方差均值, 作为 reliable 的分母
	SingularValues   []float64  // Ctrain 的全部奇异值, 降序
	SVC1             *mat.Dense // Ftest 投影到 U: (test 观测, NDims)
	SVC2             *mat.Dense // Gtest 投影到 V: (test 观测, NDims)
	U                *mat.Dense // F 组基, (N_F, NDims), 列正交
	V                *mat.Dense // G 组基, (N_G, NDims), 列正交
	NDims            int
}

// Decompose 用训练半的互协方差求 SVD 基, 在测试半上评估各维度的可复现方差
// Ftrain: (train 观测, F 组特征); Ftest: (test 观测, F 组特征); G 同理
// nDims<=0 取 min(N_F, N_G)
func Decompose(Ftrain, Ftest, Gtrain, Gtest mat.Matrix, nDims int) (*Result, error) {
	// 1) 形状校验, 先于任何计算
	if isNilMatrix(Ftrain) || isNilMatrix(Ftest) || isNilMatrix(Gtrain) || isNilMatrix(Gtest) {
		return nil, errorx.New(errCode.EMPTY_VALUE, "all four partitions are required")
	}
	tTrain, nF := Ftrain.Dims()
	tTest, nFTest := Ftest.Dims()
	tTrainG, nG := Gtrain.Dims()
	tTestG, nGTest := Gtest.Dims()

	if nF != nFTest {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "Ftrain has %d features, Ftest has %d", nF, nFTest)
	}
	if nG != nGTest {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "Gtrain has %d features, Gtest has %d", nG, nGTest)
	}
	if tTrain != tTrainG {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "Ftrain has %d samples, Gtrain has %d", tTrain, tTrainG)
	}
	if tTest != tTestG {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "Ftest has %d samples, Gtest has %d", tTest, tTestG)
	}
	if tTrain == 0 || tTest == 0 || nF == 0 || nG == 0 {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH,
			"degenerate partition: train %d / test %d samples, F %d / G %d features", tTrain, tTest, nF, nG)
	}

	maxDims := min(nF, nG)
	if nDims <= 0 {
		nDims = maxDims
	}
	if nDims > maxDims {
		return nil, errorx.Newf(errCode.INVALID_VALUE, "n_dims %d exceeds min(N_F, N_G) = %d", nDims, maxDims)
	}

	// 2) train / test 互协方差, 各自按样本数归一化
	cTrain := crossCov(Ftrain, Gtrain, tTrain) // N_F x N_G
	cTest := crossCov(Ftest, Gtest, tTest)

	// 3) 训练互协方差做完整 SVD, 取前 nDims 个左右奇异向量
	var svd mat.SVD
	if ok := svd.Factorize(cTrain, mat.SVDFull); !ok {
		return nil, errorx.Newf(errCode.DECOMPOSE_FAILED, "SVD of %dx%d train cross-covariance failed", nF, nG)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	U := mat.DenseCopyOf(u.Slice(0, nF, 0, nDims))
	V := mat.DenseCopyOf(v.Slice(0, nG, 0, nDims))

	// 4) test 组内协方差
	cF := crossCov(Ftest, Ftest, tTest)
	cG := crossCov(Gtest, Gtest, tTest)

	// 5) 基向量在 test 上捕获的方差
	var sHat, sF, sG mat.Dense
	sHat.Product(U.T(), cTest, V) // 一般不是对角阵
	sF.Product(U.T(), cF, U)      // F 组 test 方差
	sG.Product(V.T(), cG, V)      // G 组 test 方差

	reliable := make([]float64, nDims)
	all := make([]float64, nDims)
	for k := 0; k < nDims; k++ {
		reliable[k] = sHat.At(k, k)
		all[k] = 0.5 * (sF.At(k, k) + sG.At(k, k))
	}

	// 6) test 观测投影到基上: (time, neurons) * (neurons, dims)
	var svc1, svc2 mat.Dense
	svc1.Mul(Ftest, U)
	svc2.Mul(Gtest, V)

	staticLog.Log.Debugf("svca decompose: F=%d G=%d train=%d test=%d dims=%d", nF, nG, tTrain, tTest, nDims)

	return &Result{
		ReliableVariance: reliable,
		AllVariance:      all,
		SingularValues:   svd.Values(nil),
		SVC1:             &svc1,
		SVC2:             &svc2,
		U:                U,
		V:                V,
		NDims:            nDims,
	}, nil
}

// isNilMatrix 同时识别 nil 接口和 (*mat.Dense)(nil)
func isNilMatrix(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	d, ok := m.(*mat.Dense)
	return ok && d == nil
}

// crossCov Aᵀ·B / n
func crossCov(a, b mat.Matrix, n int) *mat.Dense {
	var c mat.Dense
	c.Mul(a.T(), b)
	c.Scale(1/float64(n), &c)
	return &c
}

// ReliableRatio 每个维度 reliable 占组内方差的百分比, 分母为 0 时为 NaN
func (r *Result) ReliableRatio() []float64 {
	out := make([]float64, len(r.ReliableVariance))
	for k, rv := range r.ReliableVariance {
		if r.AllVariance[k] == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = 100 * rv / r.AllVariance[k]
	}
	return out
}

// ReliableFraction 每个维度占全部 reliable 方差的比例
func (r *Result) ReliableFraction() []float64 {
	total := 0.0
	for _, rv := range r.ReliableVariance {
		total += rv
	}
	out := make([]float64, len(r.ReliableVariance))
	for k, rv := range r.ReliableVariance {
		if total == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = rv / total
	}
	return out
}

// Run 先划分再分解
func Run(X *mat.Dense, position []float64, opts SplitOptions, nDims int) (*Result, error) {
	p, err := SplitData(X, position, opts)
	if err != nil {
		return nil, err
	}
	return p.Decompose(nDims)
}
