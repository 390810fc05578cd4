package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svca/ml/svca"
)

const sampleYAML = `
split:
  bin_width: 25.5
  time_bins: 30
  shuffle: true
  seed: 17
decompose:
  n_dims: 12
null_control:
  runs: 3
  seed: 100
fit:
  min_dim: 10
  max_dim: 500
plot:
  path: out/scree.png
  title: V1
  rank: 64
log:
  level: " DEBUG "
  file: svca.log
  max_size_mb: 10
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 25.5, c.Split.BinWidth)
	assert.Equal(t, 30, c.Split.TimeBins)
	require.NotNil(t, c.Split.Seed)
	assert.Equal(t, int64(17), *c.Split.Seed)
	assert.Equal(t, 12, c.Decompose.NDims)
	assert.Equal(t, []int64{100, 101, 102}, c.NullSeeds())
	assert.Equal(t, 500, c.Fit.MaxDim)
	assert.Equal(t, "V1", c.Plot.Title)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 10, c.Log.MaxSizeMB)

	opts := c.SplitOptions()
	assert.Equal(t, 25.5, opts.BinWidth)
	assert.Equal(t, 0, opts.NeuronBins)
	assert.True(t, opts.Shuffle)
	assert.Equal(t, int64(17), *opts.Seed)
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("decompose:\n  n_dims: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, svca.DefaultTimeBins, c.Split.TimeBins)
	assert.Nil(t, c.Split.Seed)
	assert.Empty(t, c.NullSeeds())
	assert.Equal(t, "info", c.Log.Level)
}

func TestParseInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"negative time bins": "split:\n  time_bins: -1\n",
		"negative width":     "split:\n  bin_width: -3\n",
		"negative dims":      "decompose:\n  n_dims: -2\n",
		"bad fit range":      "fit:\n  min_dim: 10\n  max_dim: 5\n",
		"bad yaml":           "split: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestInitAndGet(t *testing.T) {
	assert.NotNil(t, Get())

	path := filepath.Join(t.TempDir(), "svca.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	require.NoError(t, Init(path))
	assert.Equal(t, 12, Get().Decompose.NDims)

	assert.Error(t, Init(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Equal(t, 12, Get().Decompose.NDims)
}
