package scree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

func TestSaveWritesPNG(t *testing.T) {
	reliable := []float64{5, 2.5, 1.2, 0.4, 0.1, -0.02, 0.01}
	all := []float64{10, 8, 6, 5, 4, 3.5, 3}

	path := filepath.Join(t.TempDir(), "scree.png")
	err := Save(path, reliable, all, Options{Title: "svca", Rank: 4})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(b), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, b[:4])
}

func TestRenderSize(t *testing.T) {
	img, err := Render([]float64{1, 0.5}, []float64{2, 2}, Options{Width: 4 * vg.Inch, Height: 2 * vg.Inch})
	require.NoError(t, err)
	w, h := img.Size()
	assert.Equal(t, 4*vg.Inch, w)
	assert.Equal(t, 2*vg.Inch, h)
}

// 单个维度, 以及全部为非正值时都不应 panic
func TestRenderDegenerateSpectra(t *testing.T) {
	_, err := Render([]float64{0.7}, []float64{1}, Options{})
	assert.NoError(t, err)

	_, err = Render([]float64{-1, -2}, []float64{1, 1}, Options{Rank: 1})
	assert.NoError(t, err)

	_, err = Render([]float64{0.5, 0.5}, []float64{1, 1}, Options{})
	assert.NoError(t, err)
}

func TestRenderErrors(t *testing.T) {
	_, err := Render([]float64{1, 2}, []float64{1}, Options{})
	assert.True(t, errorx.HasCode(err, errCode.SHAPE_MISMATCH))

	_, err = Render(nil, nil, Options{})
	assert.True(t, errorx.HasCode(err, errCode.EMPTY_VALUE))

	err = Save(filepath.Join(t.TempDir(), "missing", "scree.png"), []float64{1}, []float64{1}, Options{})
	assert.True(t, errorx.HasCode(err, errCode.IO_FAILED))
}
