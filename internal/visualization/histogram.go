// Package visualization renders the width-sample distribution of a run.
package visualization

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"retinal-vessel-caliber/internal/caliber"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("no width samples to plot")

var (
	narrowColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	wideColor   = color.RGBA{R: 30, G: 60, B: 200, A: 255}
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// WidthHistogram builds a histogram of sorted width samples in pixels with
// vertical lines at the narrow and wide percentile cuts. Bins <= 0 picks a
// bin count from the sample size.
func WidthHistogram(sorted []float64, narrowPct, widePct, bins int) (*plot.Plot, error) {
	if len(sorted) == 0 {
		return nil, ErrNoSamples
	}

	summary := caliber.Summarize(sorted)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Vessel width samples (n=%d, mean %.2f px, sd %.2f px)",
		len(sorted), summary.Mean, summary.StdDev)
	p.X.Label.Text = "Width (px)"
	p.Y.Label.Text = "Count"

	hist, err := plotter.NewHist(plotter.Values(sorted), bins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram: %w", err)
	}
	hist.FillColor = color.Gray{Y: 170}
	p.Add(hist)

	peak := 0.0
	for _, b := range hist.Bins {
		if b.Weight > peak {
			peak = b.Weight
		}
	}

	// Last narrow sample and first wide sample
	narrow, wide := caliber.SplitPercentiles(sorted, narrowPct, widePct)
	if len(narrow) > 0 {
		if err := addCut(p, narrow[len(narrow)-1], peak, narrowColor, fmt.Sprintf("narrowest %d%%", narrowPct)); err != nil {
			return nil, err
		}
	}
	if len(wide) > 0 {
		if err := addCut(p, wide[0], peak, wideColor, fmt.Sprintf("widest %d%%", widePct)); err != nil {
			return nil, err
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

func addCut(p *plot.Plot, x, height float64, c color.Color, label string) error {
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: height}})
	if err != nil {
		return fmt.Errorf("failed to build cut line: %w", err)
	}
	line.Color = c
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// SaveWidthHistogram writes the histogram to path. The format follows the
// file extension (png, svg, pdf, ...).
func SaveWidthHistogram(path string, sorted []float64, narrowPct, widePct int) error {
	p, err := WidthHistogram(sorted, narrowPct, widePct, 0)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}

// WriteWidthHistogram encodes the histogram to w in the given format.
func WriteWidthHistogram(w io.Writer, format string, sorted []float64, narrowPct, widePct int) error {
	p, err := WidthHistogram(sorted, narrowPct, widePct, 0)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(plotWidth, plotHeight, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write histogram: %w", err)
	}
	return nil
}
