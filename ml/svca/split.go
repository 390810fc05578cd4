package svca

import (
	"math"
	"math/rand"
	"time"

	"github.com/gonum/stat"
	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/infra/observe/log/staticLog"
	"svca/ml/hist"
)

const (
	DefaultNeuronBins = 16 // 空间条带数, BinWidth 未设置时使用
	DefaultTimeBins   = 60 // 每个时间块包含的连续观测数
)

// SplitOptions 零值即默认参数
type SplitOptions struct {
	BinWidth   float64 // 空间分箱宽度(与 position 同单位), <=0 表示按 NeuronBins 等分
	NeuronBins int     // 空间条带数, 0 表示 DefaultNeuronBins; BinWidth>0 时忽略
	TimeBins   int     // 时间块长度, 0 表示 DefaultTimeBins
	Shuffle    bool    // 每个特征独立打乱观测顺序, 作为零假设对照
	Seed       *int64  // 仅 Shuffle 时有效
}

// Partition 双向划分后的四个子矩阵, 均已用训练半的列均值中心化
//
//	           F 组特征      G 组特征
//	train  |   Ftrain   |   Gtrain   |
//	test   |   Ftest    |   Gtest    |
type Partition struct {
	Ftrain *mat.Dense
	Ftest  *mat.Dense
	Gtrain *mat.Dense
	Gtest  *mat.Dense

	FeatureIdxF []int // F 组在原矩阵中的列号
	FeatureIdxG []int
	TrainIdx    []int // 训练观测在原矩阵中的行号
	TestIdx     []int

	MeanF []float64 // Ftrain 的列均值(中心化前)
	MeanG []float64

	BinWidth float64             // 实际使用的空间分箱宽度
	Strips   []hist.HistogramBin // 非空空间条带, Index 为偶数的属于 F
}

// SplitData 沿观测轴与特征轴同时划分 X 并中心化
// X: 观测(时间) x 特征; position: 每个特征的一维空间坐标
//
// 两个轴都采用交替分块而不是前后对半:
//   - 特征: 空间分箱序号为偶数 -> F, 奇数 -> G, 两组覆盖相同的空间范围
//   - 观测: 每 TimeBins 个连续观测为一块, 偶数块 -> train, 奇数块 -> test
//
// X 不会被修改
func SplitData(X *mat.Dense, position []float64, opts SplitOptions) (*Partition, error) {
	// 1) 校验输入
	if X == nil || X.IsEmpty() {
		return nil, errorx.New(errCode.EMPTY_VALUE, "data matrix is empty")
	}
	T, N := X.Dims()
	if len(position) != N {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "position length %d != feature count %d", len(position), N)
	}
	timeBins, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	for j, p := range position {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, errorx.Newf(errCode.INVALID_VALUE, "position of feature %d is not finite", j)
		}
	}

	// 2) 打乱: 每列独立置换
	data := X
	if opts.Shuffle {
		data = mat.DenseCopyOf(X)
		shuffleColumns(data, newRand(opts.Seed))
	}

	// 3) 特征按空间分箱交替分组
	binWidth, err := resolveBinWidth(position, opts)
	if err != nil {
		return nil, err
	}
	idxF, idxG, strips, err := featureGroups(position, binWidth)
	if err != nil {
		return nil, err
	}

	// 4) 观测按时间块交替划分
	trainIdx, testIdx := timeBlocks(T, timeBins)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH,
			"time split is degenerate: %d observations, time bins %d -> train %d / test %d",
			T, timeBins, len(trainIdx), len(testIdx))
	}

	p := &Partition{
		Ftrain:      gather(data, trainIdx, idxF),
		Ftest:       gather(data, testIdx, idxF),
		Gtrain:      gather(data, trainIdx, idxG),
		Gtest:       gather(data, testIdx, idxG),
		FeatureIdxF: idxF,
		FeatureIdxG: idxG,
		TrainIdx:    trainIdx,
		TestIdx:     testIdx,
		BinWidth:    binWidth,
		Strips:      strips,
	}

	// 5) 中心化: 只用训练半的均值, 同时作用于 train/test
	p.MeanF = centerBy(p.Ftrain, p.Ftest)
	p.MeanG = centerBy(p.Gtrain, p.Gtest)

	staticLog.Log.Debugf("svca split: T=%d N=%d binWidth=%.4g F=%d G=%d train=%d test=%d",
		T, N, binWidth, len(idxF), len(idxG), len(trainIdx), len(testIdx))
	return p, nil
}

// Decompose 对划分结果做 SVCA, nDims<=0 表示取全部维度
func (p *Partition) Decompose(nDims int) (*Result, error) {
	return Decompose(p.Ftrain, p.Ftest, p.Gtrain, p.Gtest, nDims)
}

// 补全默认值并检查参数, 返回时间块长度
func resolveOptions(opts SplitOptions) (int, error) {
	if opts.TimeBins < 0 {
		return 0, errorx.Newf(errCode.INVALID_VALUE, "time bins must be positive, got %d", opts.TimeBins)
	}
	if opts.NeuronBins < 0 {
		return 0, errorx.Newf(errCode.INVALID_VALUE, "neuron bins must be positive, got %d", opts.NeuronBins)
	}
	if math.IsNaN(opts.BinWidth) || math.IsInf(opts.BinWidth, 0) || opts.BinWidth < 0 {
		return 0, errorx.Newf(errCode.INVALID_VALUE, "bin width must be positive and finite, got %v", opts.BinWidth)
	}

	if opts.BinWidth > 0 && opts.NeuronBins > 0 {
		staticLog.ConfigWarn("using bin width %v to split features; ignoring neuron bins %d", opts.BinWidth, opts.NeuronBins)
	}
	if !opts.Shuffle && opts.Seed != nil {
		staticLog.ConfigWarn("ignoring provided random seed %d: shuffle is off", *opts.Seed)
	}

	if opts.TimeBins == 0 {
		return DefaultTimeBins, nil
	}
	return opts.TimeBins, nil
}

func resolveBinWidth(position []float64, opts SplitOptions) (float64, error) {
	if opts.BinWidth > 0 {
		return opts.BinWidth, nil
	}
	neuronBins := opts.NeuronBins
	if neuronBins == 0 {
		neuronBins = DefaultNeuronBins
	}
	minP, maxP := hist.MinMax(position)
	width := (maxP - minP) / float64(neuronBins)
	if width <= 0 {
		return 0, errorx.Newf(errCode.SHAPE_MISMATCH, "feature positions span a zero-width range [%v, %v]", minP, maxP)
	}
	return width, nil
}

// featureGroups 分箱序号为偶数的特征归 F, 奇数归 G
func featureGroups(position []float64, binWidth float64) (idxF, idxG []int, strips []hist.HistogramBin, err error) {
	minP, _ := hist.MinMax(position)
	bins, err := hist.BinIndex(position, minP, binWidth)
	if err != nil {
		return nil, nil, nil, err
	}
	for j, b := range bins {
		if b%2 == 0 {
			idxF = append(idxF, j)
		} else {
			idxG = append(idxG, j)
		}
	}
	if len(idxF) == 0 || len(idxG) == 0 {
		return nil, nil, nil, errorx.Newf(errCode.SHAPE_MISMATCH,
			"feature split is degenerate: bin width %v -> F %d / G %d", binWidth, len(idxF), len(idxG))
	}
	strips, err = hist.Strips(position, minP, binWidth)
	if err != nil {
		return nil, nil, nil, err
	}
	return idxF, idxG, strips, nil
}

// timeBlocks 观测 t 属于第 t/timeBins 块, 偶数块为 train, 奇数块为 test
func timeBlocks(T, timeBins int) (trainIdx, testIdx []int) {
	trainIdx = make([]int, 0, T/2+timeBins)
	testIdx = make([]int, 0, T/2+timeBins)
	for t := 0; t < T; t++ {
		if (t/timeBins)%2 == 0 {
			trainIdx = append(trainIdx, t)
		} else {
			testIdx = append(testIdx, t)
		}
	}
	return trainIdx, testIdx
}

func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	s := time.Now().UnixNano()
	staticLog.Log.Debugf("svca shuffle: no seed provided, using %d", s)
	return rand.New(rand.NewSource(s))
}

// shuffleColumns 每一列使用各自的随机置换, 保留单个特征的边际分布, 破坏特征间的时间对齐
func shuffleColumns(m *mat.Dense, r *rand.Rand) {
	T, N := m.Dims()
	col := make([]float64, T)
	for j := 0; j < N; j++ {
		mat.Col(col, j, m)
		perm := r.Perm(T)
		for i, src := range perm {
			m.Set(i, j, col[src])
		}
	}
}

func gather(src mat.Matrix, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, src.At(r, c))
		}
	}
	return out
}

// centerBy 用 train 的列均值同时中心化 train 和 test, 返回均值
func centerBy(train, test *mat.Dense) []float64 {
	rTrain, c := train.Dims()
	rTest, _ := test.Dims()
	means := make([]float64, c)
	col := make([]float64, rTrain)
	for j := 0; j < c; j++ {
		mat.Col(col, j, train)
		mu := stat.Mean(col, nil)
		means[j] = mu
		for i := 0; i < rTrain; i++ {
			train.Set(i, j, train.At(i, j)-mu)
		}
		for i := 0; i < rTest; i++ {
			test.Set(i, j, test.At(i, j)-mu)
		}
	}
	return means
}
