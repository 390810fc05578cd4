package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
	"svca/infra/observe/log/staticLog"
	"svca/ml/hist"
	"svca/ml/ols"
	"svca/ml/svca"
	"svca/pkg/utils/fileUtils"
	"svca/plot/scree"
	"svca/quant/config"
	"svca/timeSeries/acf"
)

// runCmd implements 'svca run'
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Split a recording and compute its reliable variance spectrum",
	Long: `Split the observation x feature matrix along time (alternating blocks) and
features (alternating spatial strips), then compute the cross-validated SVCA spectrum.

Example usage:
  svca run --data spikes.csv --position ypos.csv
  svca run --data spikes.csv --position ypos.csv --config svca.yaml --plot scree.png
  svca run --data spikes.csv --position ypos.csv --null-controls 10 --seed 1`,
	RunE: runSVCA,
}

var (
	runDataPath     string
	runPositionPath string
	runConfigPath   string
	runOutDir       string
	runNDims        int
	runTimeBins     int
	runNeuronBins   int
	runBinWidth     float64
	runShuffle      bool
	runSeed         int64
	runNullControls int
	runWorkers      int
	runPlotPath     string
	runRank         int
	runFitFrom      int
	runFitTo        int
)

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runDataPath, "data", "", "CSV of observations (rows) x features (columns)")
	f.StringVar(&runPositionPath, "position", "", "CSV with one spatial coordinate per feature")
	f.StringVar(&runConfigPath, "config", "", "YAML configuration file")
	f.StringVar(&runOutDir, "out-dir", "", "write SVC1/SVC2 projections and the spectrum as CSV into this directory")
	f.IntVar(&runNDims, "n-dims", 0, "number of SVC dimensions (0 = all)")
	f.IntVar(&runTimeBins, "time-bins", svca.DefaultTimeBins, "observations per alternating time block")
	f.IntVar(&runNeuronBins, "neuron-bins", svca.DefaultNeuronBins, "number of spatial strips (ignored with --bin-width)")
	f.Float64Var(&runBinWidth, "bin-width", 0, "spatial strip width in position units")
	f.BoolVar(&runShuffle, "shuffle", false, "shuffle each feature's observations independently")
	f.Int64Var(&runSeed, "seed", 0, "random seed of the null controls, and of --shuffle when it is on")
	f.IntVar(&runNullControls, "null-controls", 0, "number of shuffled control runs")
	f.IntVar(&runWorkers, "workers", 0, "parallel null-control workers (0 = CPU count)")
	f.StringVar(&runPlotPath, "plot", "", "write the scree plot PNG to this path")
	f.IntVar(&runRank, "rank", 0, "mark this dimension on the scree plot")
	f.IntVar(&runFitFrom, "fit-from", 0, "first dimension (0-based) of the power-law fit")
	f.IntVar(&runFitTo, "fit-to", 0, "end dimension (exclusive) of the power-law fit (0 = last); the fit runs when either bound is set")
	_ = runCmd.MarkFlagRequired("data")
	_ = runCmd.MarkFlagRequired("position")
}

func runSVCA(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := staticLog.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	defer closer.Close()

	X, err := fileUtils.ReadMatrixFile(runDataPath)
	if err != nil {
		return err
	}
	position, err := fileUtils.ReadVectorFile(runPositionPath)
	if err != nil {
		return err
	}

	part, err := svca.SplitData(X, position, cfg.SplitOptions())
	if err != nil {
		return err
	}
	res, err := part.Decompose(cfg.Decompose.NDims)
	if err != nil {
		return err
	}
	staticLog.Log.Infof("svca: %d features in F, %d in G, %d train / %d test observations, %d dims",
		len(part.FeatureIdxF), len(part.FeatureIdxG), len(part.TrainIdx), len(part.TestIdx), res.NDims)

	rep := report{result: res, binWidth: part.BinWidth, strips: part.Strips}
	for _, st := range part.Strips {
		staticLog.Log.Debugf("strip %d [%.4g, %.4g): %d features -> %s", st.Index, st.From, st.To, st.Count, stripGroup(st.Index))
	}
	// SVC1 在 test 观测上的 lag-1 自相关, 共享信号通常是平滑的
	if lag1, err := acf.ColumnLag(res.SVC1, 1); err != nil {
		staticLog.Log.Warnf("svc autocorrelation skipped: %v", err)
	} else {
		rep.svcLag1 = lag1
	}

	if seeds := cfg.NullSeeds(); len(seeds) > 0 {
		controls, err := svca.RunNullControls(X, position, cfg.SplitOptions(), cfg.Decompose.NDims, seeds, cfg.NullControl.Workers)
		if err != nil {
			return err
		}
		rep.nullReliable, _, err = svca.MeanSpectrum(controls)
		if err != nil {
			return err
		}
	}

	if cfg.Fit.MinDim > 0 || cfg.Fit.MaxDim > 0 {
		fit, err := ols.FitSpectrum(res.ReliableRatio(), cfg.Fit.MinDim, cfg.Fit.MaxDim)
		if err != nil {
			staticLog.Log.Warnf("power law fit skipped: %v", err)
		} else {
			rep.fit = &fit
		}
	}

	if err := rep.write(cmd.OutOrStdout()); err != nil {
		return err
	}

	if cfg.Plot.Path != "" {
		if err := scree.Save(cfg.Plot.Path, res.ReliableVariance, res.AllVariance,
			scree.Options{Title: cfg.Plot.Title, Rank: cfg.Plot.Rank}); err != nil {
			return err
		}
		staticLog.Log.Infof("scree plot written to %s", cfg.Plot.Path)
	}

	if runOutDir != "" {
		if err := writeOutputs(runOutDir, res); err != nil {
			return err
		}
	}
	return nil
}

// loadRunConfig 读取配置文件, 命令行显式给出的参数覆盖配置
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		if err := config.Init(runConfigPath); err != nil {
			return nil, errorx.Wrap(errCode.INVALID_VALUE, "load config", err)
		}
		c := *config.Get()
		cfg = &c
	}

	fl := cmd.Flags()
	if fl.Changed("n-dims") {
		cfg.Decompose.NDims = runNDims
	}
	if fl.Changed("time-bins") {
		cfg.Split.TimeBins = runTimeBins
	}
	if fl.Changed("neuron-bins") {
		cfg.Split.NeuronBins = runNeuronBins
	}
	if fl.Changed("bin-width") {
		cfg.Split.BinWidth = runBinWidth
	}
	if fl.Changed("shuffle") {
		cfg.Split.Shuffle = runShuffle
	}
	// --seed 总是作用于对照实验, 只有打开 shuffle 时才作用于主划分
	if fl.Changed("seed") {
		cfg.NullControl.Seed = runSeed
		if cfg.Split.Shuffle {
			seed := runSeed
			cfg.Split.Seed = &seed
		}
	}
	if fl.Changed("null-controls") {
		cfg.NullControl.Runs = runNullControls
	}
	if fl.Changed("workers") {
		cfg.NullControl.Workers = runWorkers
	}
	if fl.Changed("plot") {
		cfg.Plot.Path = runPlotPath
	}
	if fl.Changed("rank") {
		cfg.Plot.Rank = runRank
	}
	if fl.Changed("fit-from") {
		cfg.Fit.MinDim = runFitFrom
	}
	if fl.Changed("fit-to") {
		cfg.Fit.MaxDim = runFitTo
	}
	if err := cfg.Validate(); err != nil {
		return nil, errorx.Wrap(errCode.INVALID_VALUE, "invalid options", err)
	}
	return cfg, nil
}

type report struct {
	result       *svca.Result
	binWidth     float64
	strips       []hist.HistogramBin
	nullReliable []float64
	svcLag1      []float64
	fit          *ols.PowerLaw
}

func (r report) write(w io.Writer) error {
	if len(r.strips) > 0 {
		if err := r.writeStrips(w); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := "dim\treliable\tall\treliable %\t"
	if r.nullReliable != nil {
		header += "null reliable\t"
	}
	if r.svcLag1 != nil {
		header += "svc1 acf(1)\t"
	}
	fmt.Fprintln(tw, header)

	ratio := r.result.ReliableRatio()
	for k := 0; k < r.result.NDims; k++ {
		line := fmt.Sprintf("%d\t%.6g\t%.6g\t%s\t", k+1, r.result.ReliableVariance[k], r.result.AllVariance[k], formatPct(ratio[k]))
		if r.nullReliable != nil {
			line += fmt.Sprintf("%.6g\t", r.nullReliable[k])
		}
		if r.svcLag1 != nil {
			line += fmt.Sprintf("%.3f\t", r.svcLag1[k])
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.fit != nil {
		_, err := fmt.Fprintf(w, "power law: reliable %% ~ %.4g * dim^%.4f (R2 %.3f, %d points)\n",
			r.fit.Scale, r.fit.Exponent, r.fit.RSquared, r.fit.N)
		return err
	}
	return nil
}

// writeStrips 每个空间条带的特征数及所属组
func (r report) writeStrips(w io.Writer) error {
	nF, nG := 0, 0
	cells := make([]string, len(r.strips))
	for i, st := range r.strips {
		g := stripGroup(st.Index)
		if g == "F" {
			nF += st.Count
		} else {
			nG += st.Count
		}
		cells[i] = fmt.Sprintf("%d%s=%d", st.Index, g, st.Count)
	}
	_, err := fmt.Fprintf(w, "spatial strips (width %.4g): %d non-empty, F %d features, G %d features\nstrip features: %s\n",
		r.binWidth, len(r.strips), nF, nG, strings.Join(cells, " "))
	return err
}

func stripGroup(index int) string {
	if index%2 == 0 {
		return "F"
	}
	return "G"
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func writeOutputs(dir string, res *svca.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("create %s", dir), err)
	}
	if err := fileUtils.WriteMatrixFile(filepath.Join(dir, "svc1.csv"), res.SVC1); err != nil {
		return err
	}
	if err := fileUtils.WriteMatrixFile(filepath.Join(dir, "svc2.csv"), res.SVC2); err != nil {
		return err
	}
	return fileUtils.WriteMatrixFile(filepath.Join(dir, "spectrum.csv"), spectrumMatrix(res))
}

// spectrumMatrix 每行: 维度, reliable, all, reliable %
func spectrumMatrix(res *svca.Result) *mat.Dense {
	out := mat.NewDense(res.NDims, 4, nil)
	ratio := res.ReliableRatio()
	for k := 0; k < res.NDims; k++ {
		out.Set(k, 0, float64(k+1))
		out.Set(k, 1, res.ReliableVariance[k])
		out.Set(k, 2, res.AllVariance[k])
		out.Set(k, 3, ratio[k])
	}
	return out
}
