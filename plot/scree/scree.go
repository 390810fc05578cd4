// 可靠方差谱的双面板图:
// 左: 每个 SVC 维度 reliable/all 的百分比 (x 轴对数)
// 右: 每个维度占全部 reliable 方差的比例 (双对数)
package scree

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

var (
	lineColor   = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	markerColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

type Options struct {
	Title  string
	Rank   int       // >0 时在 rank-1 维度处画标记
	Width  vg.Length // 默认 10 inch
	Height vg.Length // 默认 4.2 inch
}

// Render 画到内存画布
func Render(reliable, all []float64, opts Options) (*vgimg.Canvas, error) {
	if len(reliable) != len(all) {
		return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "reliable has %d dims, all has %d", len(reliable), len(all))
	}
	if len(reliable) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "empty spectrum")
	}
	if opts.Width <= 0 {
		opts.Width = 10 * vg.Inch
	}
	if opts.Height <= 0 {
		opts.Height = 4.2 * vg.Inch
	}

	// 1. 两条曲线的数据, log 轴上只保留正值
	total := 0.0
	for _, v := range reliable {
		total += v
	}
	ratioPts := make(plotter.XYs, 0, len(reliable))
	fracPts := make(plotter.XYs, 0, len(reliable))
	for k := range reliable {
		x := float64(k + 1)
		if all[k] != 0 {
			ratioPts = append(ratioPts, plotter.XY{X: x, Y: reliable[k] / all[k] * 100})
		}
		if f := reliable[k] / total; f > 0 && !math.IsInf(f, 0) {
			fracPts = append(fracPts, plotter.XY{X: x, Y: f})
		}
	}

	// 2. 左图 semilogx
	pRatio := plot.New()
	pRatio.Title.Text = opts.Title
	pRatio.X.Label.Text = "SVC dimension"
	pRatio.Y.Label.Text = "Reliable var (%)"
	if len(ratioPts) > 0 {
		logAxis(&pRatio.X)
	}
	if err := addLine(pRatio, ratioPts); err != nil {
		return nil, err
	}

	// 3. 右图 loglog
	pFrac := plot.New()
	pFrac.Title.Text = opts.Title
	pFrac.X.Label.Text = "SVC dimension"
	pFrac.Y.Label.Text = "% of reliable var"
	// 没有正值时退回线性轴, 避免空的对数轴
	if len(fracPts) > 0 {
		logAxis(&pFrac.X)
		logAxis(&pFrac.Y)
	}
	if err := addLine(pFrac, fracPts); err != nil {
		return nil, err
	}

	// 4. rank 标记, 与左右面板的参考高度 30 / 1 对应
	if opts.Rank > 0 {
		x := float64(opts.Rank)
		if err := addMarker(pRatio, plotter.XY{X: x, Y: 30}); err != nil {
			return nil, err
		}
		if err := addMarker(pFrac, plotter.XY{X: x, Y: 1}); err != nil {
			return nil, err
		}
	}

	// 单点或取值相同时轴范围为零宽, 对数轴需要手动撑开
	for _, a := range []*plot.Axis{&pRatio.X, &pFrac.X, &pFrac.Y} {
		widenLogRange(a)
	}

	// 5. 1x2 排版
	img := vgimg.New(opts.Width, opts.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: 2, PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
	plots := [][]*plot.Plot{{pRatio, pFrac}}
	canvases := plot.Align(plots, tiles, dc)
	pRatio.Draw(canvases[0][0])
	pFrac.Draw(canvases[0][1])
	return img, nil
}

// Save 写 PNG 文件
func Save(path string, reliable, all []float64, opts Options) error {
	img, err := Render(reliable, all, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("write %s", path), err)
	}
	return f.Close()
}

func logAxis(a *plot.Axis) {
	a.Scale = plot.LogScale{}
	a.Tick.Marker = plot.LogTicks{Prec: -1}
}

func widenLogRange(a *plot.Axis) {
	if _, ok := a.Scale.(plot.LogScale); !ok {
		return
	}
	if a.Min > 0 && a.Min == a.Max {
		a.Min /= 2
		a.Max *= 2
	}
}

func addLine(p *plot.Plot, pts plotter.XYs) error {
	if len(pts) == 0 {
		return nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = lineColor
	line.Width = vg.Points(1.5)
	p.Add(line)
	return nil
}

func addMarker(p *plot.Plot, pt plotter.XY) error {
	s, err := plotter.NewScatter(plotter.XYs{pt})
	if err != nil {
		return err
	}
	s.GlyphStyle.Shape = draw.TriangleGlyph{}
	s.GlyphStyle.Color = markerColor
	s.GlyphStyle.Radius = vg.Points(4)
	p.Add(s)
	return nil
}
