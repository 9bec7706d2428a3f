// Diagnostics computed over the vessel mask and its skeleton
package metrics

import (
	"fmt"
	"sort"
)

// Grid is a pair of same-sized single-channel masks: the binary vessel mask
// and its skeleton. Nonzero bytes are foreground.
type Grid struct {
	Width    int
	Height   int
	Mask     []byte
	Skeleton []byte
}

// Validate checks that both masks match the declared geometry.
func (g Grid) Validate() error {
	n := g.Width * g.Height
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid grid dimensions: %dx%d", g.Width, g.Height)
	}
	if len(g.Mask) != n || len(g.Skeleton) != n {
		return fmt.Errorf("mask sizes %d/%d do not match %dx%d", len(g.Mask), len(g.Skeleton), g.Width, g.Height)
	}
	return nil
}

// Metric defines the interface for vessel-map diagnostics
type Metric interface {
	// Calculate computes the metric value
	Calculate(g Grid) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetDescription returns the metric description
	GetDescription() string
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates a new metrics evaluator
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}

	// Register all available metrics
	e.RegisterDefaultMetrics()

	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("vessel_density", NewVesselDensity())
	e.Register("vessel_pixels", NewVesselPixels())
	e.Register("skeleton_pixels", NewSkeletonPixels())
	e.Register("endpoints", NewEndpoints())
	e.Register("junctions", NewJunctions())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names in sorted order.
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, g Grid) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}

	return metric.Calculate(g)
}

// CalculateAll calculates all registered metrics, skipping any that fail
func (e *Evaluator) CalculateAll(g Grid) map[string]float64 {
	results := make(map[string]float64)

	for name, metric := range e.metrics {
		if value, err := metric.Calculate(g); err == nil {
			results[name] = value
		}
	}

	return results
}

// Diagnostics is the typed summary attached to each pipeline result.
type Diagnostics struct {
	VesselDensity  float64 `json:"vessel_density"`
	VesselPixels   int     `json:"vessel_pixels"`
	SkeletonPixels int     `json:"skeleton_pixels"`
	Endpoints      int     `json:"endpoints"`
	Junctions      int     `json:"junctions"`
}

// Evaluate runs the default metrics and returns them as Diagnostics.
func (e *Evaluator) Evaluate(g Grid) (Diagnostics, error) {
	if err := g.Validate(); err != nil {
		return Diagnostics{}, err
	}

	values := e.CalculateAll(g)
	return Diagnostics{
		VesselDensity:  values["vessel_density"],
		VesselPixels:   int(values["vessel_pixels"]),
		SkeletonPixels: int(values["skeleton_pixels"]),
		Endpoints:      int(values["endpoints"]),
		Junctions:      int(values["junctions"]),
	}, nil
}
