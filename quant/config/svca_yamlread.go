package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"svca/infra/observe/log/staticLog"
	"svca/ml/svca"
)

type Config struct {
	Split       SplitConfig       `yaml:"split"`
	Decompose   DecomposeConfig   `yaml:"decompose"`
	NullControl NullControlConfig `yaml:"null_control"`
	Fit         FitConfig         `yaml:"fit"`
	Plot        PlotConfig        `yaml:"plot"`
	Log         staticLog.Config  `yaml:"log"`
}

type SplitConfig struct {
	BinWidth   float64 `yaml:"bin_width"`
	NeuronBins int     `yaml:"neuron_bins"`
	TimeBins   int     `yaml:"time_bins"`
	Shuffle    bool    `yaml:"shuffle"`
	Seed       *int64  `yaml:"seed"`
}

type DecomposeConfig struct {
	NDims int `yaml:"n_dims"` // 0 表示全部维度
}

type NullControlConfig struct {
	Runs    int   `yaml:"runs"`    // 0 表示不做对照
	Seed    int64 `yaml:"seed"`    // 第 i 次对照使用 Seed+i
	Workers int   `yaml:"workers"` // 0 表示 CPU 核心数
}

type FitConfig struct {
	MinDim int `yaml:"min_dim"` // 拟合区间 [MinDim, MaxDim), 维度从 0 计
	MaxDim int `yaml:"max_dim"` // 0 表示到末尾
}

type PlotConfig struct {
	Path  string `yaml:"path"` // 为空则不画图
	Title string `yaml:"title"`
	Rank  int    `yaml:"rank"`
}

// 用 atomic.Value 存当前配置, 读取无锁
var cfgValue atomic.Value // stores *Config

func Default() *Config {
	return &Config{
		Split: SplitConfig{
			TimeBins: svca.DefaultTimeBins,
		},
		Log: staticLog.Config{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	return c, nil
}

func (c *Config) Validate() error {
	s := c.Split
	if s.BinWidth < 0 || math.IsNaN(s.BinWidth) || math.IsInf(s.BinWidth, 0) {
		return fmt.Errorf("invalid split.bin_width: %v", s.BinWidth)
	}
	if s.NeuronBins < 0 {
		return fmt.Errorf("invalid split.neuron_bins: %d", s.NeuronBins)
	}
	if s.TimeBins < 0 {
		return fmt.Errorf("invalid split.time_bins: %d", s.TimeBins)
	}
	if c.Decompose.NDims < 0 {
		return fmt.Errorf("invalid decompose.n_dims: %d", c.Decompose.NDims)
	}
	if c.NullControl.Runs < 0 || c.NullControl.Workers < 0 {
		return fmt.Errorf("invalid null_control: runs %d, workers %d", c.NullControl.Runs, c.NullControl.Workers)
	}
	if c.Fit.MinDim < 0 || c.Fit.MaxDim < 0 || (c.Fit.MaxDim > 0 && c.Fit.MaxDim <= c.Fit.MinDim) {
		return fmt.Errorf("invalid fit range [%d, %d)", c.Fit.MinDim, c.Fit.MaxDim)
	}
	if c.Plot.Rank < 0 {
		return fmt.Errorf("invalid plot.rank: %d", c.Plot.Rank)
	}
	return nil
}

// SplitOptions 转为划分参数
func (c *Config) SplitOptions() svca.SplitOptions {
	return svca.SplitOptions{
		BinWidth:   c.Split.BinWidth,
		NeuronBins: c.Split.NeuronBins,
		TimeBins:   c.Split.TimeBins,
		Shuffle:    c.Split.Shuffle,
		Seed:       c.Split.Seed,
	}
}

// NullSeeds 对照实验的种子序列
func (c *Config) NullSeeds() []int64 {
	seeds := make([]int64, c.NullControl.Runs)
	for i := range seeds {
		seeds[i] = c.NullControl.Seed + int64(i)
	}
	return seeds
}

func Init(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	cfgValue.Store(c)
	return nil
}

// Get 返回当前配置, 未 Init 时返回默认值
func Get() *Config {
	cAny := cfgValue.Load()
	if cAny == nil {
		return Default()
	}
	return cAny.(*Config)
}
