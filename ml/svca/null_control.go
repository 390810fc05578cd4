package svca

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/infra/observe/log/staticLog"
)

// RunNullControls 对每个 seed 做一次逐特征打乱后的 SVCA, 作为没有共享结构时的对照谱
// 各次调用互不依赖, 由 workers 个 goroutine 并行执行; workers<=0 时取 CPU 核心数
// 返回结果与 seeds 一一对应, 任一次失败则返回第一个错误
func RunNullControls(X *mat.Dense, position []float64, opts SplitOptions, nDims int, seeds []int64, workers int) ([]*Result, error) {
	if len(seeds) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "no seeds for null controls")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(seeds) {
		workers = len(seeds)
	}

	results := make([]*Result, len(seeds))
	tasks := make(chan int, len(seeds))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	worker := func() {
		defer wg.Done()
		for i := range tasks {
			o := opts
			o.Shuffle = true
			seed := seeds[i]
			o.Seed = &seed

			res, err := Run(X, position, o, nDims)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errorx.Wrap(errorx.CodeOf(err), "null control failed", err)
				}
				mu.Unlock()
				continue
			}
			results[i] = res
		}
	}

	// 启动 worker
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}

	// 分发任务
	for i := range seeds {
		tasks <- i
	}
	close(tasks)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	staticLog.Log.Debugf("svca null controls: %d runs on %d workers", len(seeds), workers)
	return results, nil
}

// MeanSpectrum 多次结果逐维度求均值, 返回 reliable 与 all 两条谱
func MeanSpectrum(results []*Result) (reliable, all []float64, err error) {
	if len(results) == 0 {
		return nil, nil, errorx.New(errCode.EMPTY_VALUE, "no results")
	}
	for i, r := range results {
		if r == nil {
			return nil, nil, errorx.Newf(errCode.EMPTY_VALUE, "result %d is nil", i)
		}
	}
	n := results[0].NDims
	reliable = make([]float64, n)
	all = make([]float64, n)
	for _, r := range results {
		if r.NDims != n {
			return nil, nil, errorx.New(errCode.SHAPE_MISMATCH, "results have different dimensions")
		}
		for k := 0; k < n; k++ {
			reliable[k] += r.ReliableVariance[k]
			all[k] += r.AllVariance[k]
		}
	}
	cnt := float64(len(results))
	for k := 0; k < n; k++ {
		reliable[k] /= cnt
		all[k] /= cnt
	}
	return reliable, all, nil
}
