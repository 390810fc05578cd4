package main

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svca/infra/observe/log/staticLog"
	"svca/ml/hist"
	"svca/ml/ols"
	"svca/ml/svca"
	"svca/pkg/utils/fileUtils"
)

func writeRecording(t *testing.T, dir string, T, N int) (dataPath, posPath string) {
	t.Helper()
	r := rand.New(rand.NewSource(5))
	var data strings.Builder
	for i := 0; i < T; i++ {
		latent := r.NormFloat64()
		for j := 0; j < N; j++ {
			if j > 0 {
				data.WriteByte(',')
			}
			fmt.Fprintf(&data, "%g", 2*latent+r.NormFloat64())
		}
		data.WriteByte('\n')
	}
	var pos strings.Builder
	pos.WriteString("y\n")
	for j := 0; j < N; j++ {
		fmt.Fprintf(&pos, "%d\n", j)
	}

	dataPath = filepath.Join(dir, "x.csv")
	posPath = filepath.Join(dir, "pos.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(data.String()), 0o644))
	require.NoError(t, os.WriteFile(posPath, []byte(pos.String()), 0o644))
	return dataPath, posPath
}

func TestRunCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataPath, posPath := writeRecording(t, dir, 240, 12)
	cfgPath := filepath.Join(dir, "svca.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("split:\n  time_bins: 20\n  bin_width: 1\nplot:\n  title: synthetic\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	plotPath := filepath.Join(dir, "scree.png")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"run",
		"--data", dataPath,
		"--position", posPath,
		"--config", cfgPath,
		"--n-dims", "4",
		"--null-controls", "2",
		"--workers", "2",
		"--seed", "3",
		"--plot", plotPath,
		"--fit-to", "4",
		"--out-dir", outDir,
	})
	hook := test.NewLocal(staticLog.Log)
	defer hook.Reset()

	require.NoError(t, rootCmd.Execute())

	// --seed 未开 shuffle 时只作用于对照实验, 不应触发配置告警
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			assert.NotEqual(t, "configuration", e.Data["warning"], "unexpected warning: %s", e.Message)
		}
	}

	out := buf.String()
	assert.Contains(t, out, "reliable %")
	assert.Contains(t, out, "null reliable")
	assert.Contains(t, out, "svc1 acf(1)")
	assert.Contains(t, out, "spatial strips (width 1): 12 non-empty, F 6 features, G 6 features")
	assert.Contains(t, out, "strip features: 1G=1 2F=1 3G=1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.GreaterOrEqual(t, len(lines), 5)

	assert.FileExists(t, plotPath)
	svc1, err := fileUtils.ReadMatrixFile(filepath.Join(outDir, "svc1.csv"))
	require.NoError(t, err)
	rows, cols := svc1.Dims()
	assert.Equal(t, 120, rows)
	assert.Equal(t, 4, cols)

	spec, err := fileUtils.ReadMatrixFile(filepath.Join(outDir, "spectrum.csv"))
	require.NoError(t, err)
	rows, cols = spec.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 1.0, spec.At(0, 0))
	assert.Greater(t, spec.At(0, 1), 0.0)
}

func TestReportWrite(t *testing.T) {
	res := &svca.Result{
		ReliableVariance: []float64{3, 0.5},
		AllVariance:      []float64{4, 0},
		NDims:            2,
	}
	var buf bytes.Buffer
	fit := ols.PowerLaw{Exponent: -1, Scale: 75, RSquared: 0.9, N: 2}
	require.NoError(t, report{result: res, nullReliable: []float64{0.01, -0.02}, svcLag1: []float64{0.25, 0}, fit: &fit}.write(&buf))

	out := buf.String()
	assert.Contains(t, out, "75.00")
	assert.Contains(t, out, "-0.02")
	assert.Contains(t, out, "0.250")
	assert.Contains(t, out, "power law")
	assert.Contains(t, out, "dim^-1.0000")
	assert.Equal(t, "-", formatPct(math.NaN()))
}

func TestReportWriteStrips(t *testing.T) {
	res := &svca.Result{ReliableVariance: []float64{1}, AllVariance: []float64{2}, NDims: 1}
	strips := []hist.HistogramBin{
		{Index: 1, From: 0, To: 2.5, Count: 3},
		{Index: 2, From: 2.5, To: 5, Count: 4},
		{Index: 4, From: 7.5, To: 10, Count: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, report{result: res, binWidth: 2.5, strips: strips}.write(&buf))

	out := buf.String()
	assert.Contains(t, out, "spatial strips (width 2.5): 3 non-empty, F 5 features, G 3 features")
	assert.Contains(t, out, "strip features: 1G=3 2F=4 4F=1")
}

func TestSpectrumMatrix(t *testing.T) {
	res := &svca.Result{
		ReliableVariance: []float64{2, 1},
		AllVariance:      []float64{4, 5},
		NDims:            2,
	}
	m := spectrumMatrix(res)
	assert.Equal(t, []float64{2, 1, 5, 20}, []float64{m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3)})
}
