// Package chart draws the budget/growth scatter plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/spedgrowth-cli/internal/analysis"
)

// Formats accepted by Scatter, keyed by file extension.
var Formats = []string{"png", "svg", "pdf", "jpg"}

// Options sizes the figure.
type Options struct {
	Width, Height vg.Length
	// Threshold draws a vertical line at the high-spending cut when > 0.
	Threshold float64
}

// DefaultOptions is a 10x6 inch figure.
func DefaultOptions() Options {
	return Options{Width: 10 * vg.Inch, Height: 6 * vg.Inch}
}

var (
	readingColor = color.RGBA{R: 0x43, G: 0x85, B: 0xBE, A: 0xFF}
	mathColor    = color.RGBA{R: 0xDA, G: 0x70, B: 0x2C, A: 0xFF}
	cutColor     = color.RGBA{R: 0x57, G: 0x56, B: 0x53, A: 0xFF}
)

// Scatter plots SPED budget (x) against reading and math growth (y) and
// saves the figure to path; the format follows the extension.
func Scatter(rows []analysis.MergedRow, opt Options, path string) error {
	if len(rows) == 0 {
		return errors.New("scatter: no rows to plot")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !supported(ext) {
		return fmt.Errorf("scatter: unsupported image format %q (use %s)", ext, strings.Join(Formats, "|"))
	}
	if opt.Width <= 0 || opt.Height <= 0 {
		d := DefaultOptions()
		opt.Width, opt.Height = d.Width, d.Height
	}

	p := plot.New()
	p.Title.Text = "SPED Budget vs. Student Growth"
	p.X.Label.Text = "Special Education Budget"
	p.Y.Label.Text = "National School Growth Percentile"
	p.Add(plotter.NewGrid())

	reading := make(plotter.XYs, len(rows))
	mth := make(plotter.XYs, len(rows))
	for i, r := range rows {
		x := r.BudgetFloat()
		reading[i] = plotter.XY{X: x, Y: r.Reading}
		mth[i] = plotter.XY{X: x, Y: r.Math}
	}
	rs, err := plotter.NewScatter(reading)
	if err != nil {
		return fmt.Errorf("scatter: reading series: %w", err)
	}
	rs.GlyphStyle.Color = readingColor
	rs.GlyphStyle.Shape = draw.CircleGlyph{}
	ms, err := plotter.NewScatter(mth)
	if err != nil {
		return fmt.Errorf("scatter: math series: %w", err)
	}
	ms.GlyphStyle.Color = mathColor
	ms.GlyphStyle.Shape = draw.TriangleGlyph{}
	p.Add(rs, ms)
	p.Legend.Add("Reading Growth", rs)
	p.Legend.Add("Math Growth", ms)
	p.Legend.Top = true

	if opt.Threshold > 0 {
		cut, err := plotter.NewLine(plotter.XYs{{X: opt.Threshold, Y: 0}, {X: opt.Threshold, Y: 100}})
		if err != nil {
			return fmt.Errorf("scatter: threshold line: %w", err)
		}
		cut.LineStyle.Color = cutColor
		cut.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(cut)
		p.Legend.Add("High-spending threshold", cut)
	}

	if err := p.Save(opt.Width, opt.Height, path); err != nil {
		return fmt.Errorf("scatter: save %s: %w", path, err)
	}
	return nil
}

func supported(ext string) bool {
	for _, f := range Formats {
		if f == ext {
			return true
		}
	}
	return false
}
