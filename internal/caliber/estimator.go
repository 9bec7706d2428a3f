// Package caliber turns distance-field samples along a vessel skeleton into
// the two calibrated caliber statistics (CRAE-like and CRVE-like).
//
// The arteriole/venule split is a population heuristic: the narrowest share
// of sorted width samples stands in for arterioles and the widest share for
// venules. No individual vessel is classified, and the statistic is not a
// clinically validated classifier.
package caliber

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Params holds the constants that turn width samples into an Estimate.
type Params struct {
	MinWidthPx        float64
	NarrowPercent     int
	WidePercent       int
	CalibrationFactor float64
}

// DefaultParams returns the empirical constants tied to 800px normalization.
func DefaultParams() Params {
	return Params{
		MinWidthPx:        1.5,
		NarrowPercent:     30,
		WidePercent:       30,
		CalibrationFactor: 45.0,
	}
}

// Estimate is the terminal caliber output of one pipeline run.
type Estimate struct {
	ArterioleWidth float64 `json:"arteriole_width"`
	VenuleWidth    float64 `json:"venule_width"`

	// Uncalibrated means in pixels
	RawArteriolePx float64 `json:"raw_arteriole_px"`
	RawVenulePx    float64 `json:"raw_venule_px"`

	SampleCount int `json:"sample_count"`
	NarrowCount int `json:"narrow_count"`
	WideCount   int `json:"wide_count"`
}

// Measurable reports whether both the narrow and the wide subset were
// populated. Fewer than four filtered samples leave both empty, and the zero
// widths that follow carry no caliber information.
func (e Estimate) Measurable() bool {
	return e.NarrowCount > 0 && e.WideCount > 0
}

// Estimator derives an Estimate from a distance field and a skeleton.
type Estimator struct {
	params Params
}

// NewEstimator creates an estimator with validated parameters
func NewEstimator(params Params) (*Estimator, error) {
	if params.NarrowPercent <= 0 || params.NarrowPercent > 50 {
		return nil, fmt.Errorf("narrow percent must be in (0, 50], got %d", params.NarrowPercent)
	}
	if params.WidePercent <= 0 || params.WidePercent > 50 {
		return nil, fmt.Errorf("wide percent must be in (0, 50], got %d", params.WidePercent)
	}
	if params.CalibrationFactor <= 0 {
		return nil, fmt.Errorf("calibration factor must be positive, got %g", params.CalibrationFactor)
	}
	return &Estimator{params: params}, nil
}

// Params returns the estimator constants.
func (e *Estimator) Params() Params {
	return e.params
}

// Samples collects 2*dist[p] for every p with skeleton[p] set, drops samples
// at or below MinWidthPx, and returns the rest sorted ascending.
func (e *Estimator) Samples(dist []float32, skeleton []byte) ([]float64, error) {
	raw, err := SampleWidths(dist, skeleton)
	if err != nil {
		return nil, err
	}
	filtered := FilterSamples(raw, e.params.MinWidthPx)
	sort.Float64s(filtered)
	return filtered, nil
}

// Estimate computes the calibrated statistics from sorted, filtered samples.
// An empty sample set yields the zero Estimate.
func (e *Estimator) Estimate(sorted []float64) Estimate {
	n := len(sorted)
	if n == 0 {
		return Estimate{}
	}

	narrow, wide := SplitPercentiles(sorted, e.params.NarrowPercent, e.params.WidePercent)
	rawArteriole := mean(narrow)
	rawVenule := mean(wide)

	return Estimate{
		ArterioleWidth: RoundTo(rawArteriole*e.params.CalibrationFactor, 2),
		VenuleWidth:    RoundTo(rawVenule*e.params.CalibrationFactor, 2),
		RawArteriolePx: rawArteriole,
		RawVenulePx:    rawVenule,
		SampleCount:    n,
		NarrowCount:    len(narrow),
		WideCount:      len(wide),
	}
}

// SampleWidths returns the diameter estimate 2*dist[p] at each skeleton pixel,
// in row-major order.
func SampleWidths(dist []float32, skeleton []byte) ([]float64, error) {
	if len(dist) != len(skeleton) {
		return nil, fmt.Errorf("distance field has %d values, skeleton has %d", len(dist), len(skeleton))
	}

	samples := make([]float64, 0, len(skeleton)/16)
	for i, s := range skeleton {
		if s == 0 {
			continue
		}
		samples = append(samples, 2*float64(dist[i]))
	}
	return samples, nil
}

// FilterSamples keeps samples strictly greater than minWidth.
func FilterSamples(samples []float64, minWidth float64) []float64 {
	kept := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s > minWidth {
			kept = append(kept, s)
		}
	}
	return kept
}

// SplitPercentiles returns the lowest floor(n*narrowPct/100) samples and the
// samples from index ceil(n*(100-widePct)/100) onward. Integer arithmetic keeps
// the cut points exact where floating point would land on 7.000000000000001.
func SplitPercentiles(sorted []float64, narrowPct, widePct int) (narrow, wide []float64) {
	n := len(sorted)
	low := n * narrowPct / 100
	high := (n*(100-widePct) + 99) / 100
	if high < low {
		high = low
	}
	return sorted[:low], sorted[high:]
}

// RoundTo rounds v half away from zero to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Summary describes the filtered sample distribution for diagnostics.
type Summary struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// Summarize returns distribution statistics of sorted samples.
func Summarize(sorted []float64) Summary {
	if len(sorted) == 0 {
		return Summary{}
	}
	m, sd := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		sd = 0
	}
	return Summary{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   m,
		StdDev: sd,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// mean of an empty subset is 0; it occurs when fewer than four samples survive
// filtering and the narrow cut rounds down to nothing.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
