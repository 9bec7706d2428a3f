// Concrete implementations of vessel-map metrics
package metrics

// VesselDensity is the fraction of mask pixels marked as vessel
type VesselDensity struct{}

// NewVesselDensity creates a new vessel density metric
func NewVesselDensity() *VesselDensity {
	return &VesselDensity{}
}

func (v *VesselDensity) Calculate(g Grid) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return float64(countNonZero(g.Mask)) / float64(len(g.Mask)), nil
}

func (v *VesselDensity) GetName() string {
	return "Vessel Density"
}

func (v *VesselDensity) GetDescription() string {
	return "Fraction of pixels classified as vessel"
}

// VesselPixels counts foreground mask pixels
type VesselPixels struct{}

// NewVesselPixels creates a new vessel pixel count metric
func NewVesselPixels() *VesselPixels {
	return &VesselPixels{}
}

func (v *VesselPixels) Calculate(g Grid) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return float64(countNonZero(g.Mask)), nil
}

func (v *VesselPixels) GetName() string {
	return "Vessel Pixels"
}

func (v *VesselPixels) GetDescription() string {
	return "Number of vessel mask pixels"
}

// SkeletonPixels counts skeleton pixels, a proxy for total vessel length
type SkeletonPixels struct{}

// NewSkeletonPixels creates a new skeleton length metric
func NewSkeletonPixels() *SkeletonPixels {
	return &SkeletonPixels{}
}

func (s *SkeletonPixels) Calculate(g Grid) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return float64(countNonZero(g.Skeleton)), nil
}

func (s *SkeletonPixels) GetName() string {
	return "Skeleton Pixels"
}

func (s *SkeletonPixels) GetDescription() string {
	return "Number of skeleton pixels (vessel centerline length)"
}

// Endpoints counts skeleton pixels with exactly one 8-connected neighbor
type Endpoints struct{}

// NewEndpoints creates a new endpoint count metric
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

func (e *Endpoints) Calculate(g Grid) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return float64(countByNeighbors(g, func(n int) bool { return n == 1 })), nil
}

func (e *Endpoints) GetName() string {
	return "Endpoints"
}

func (e *Endpoints) GetDescription() string {
	return "Skeleton pixels with a single neighbor (vessel ends)"
}

// Junctions counts skeleton pixels with three or more 8-connected neighbors
type Junctions struct{}

// NewJunctions creates a new junction count metric
func NewJunctions() *Junctions {
	return &Junctions{}
}

func (j *Junctions) Calculate(g Grid) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	return float64(countByNeighbors(g, func(n int) bool { return n >= 3 })), nil
}

func (j *Junctions) GetName() string {
	return "Junctions"
}

func (j *Junctions) GetDescription() string {
	return "Skeleton pixels with three or more neighbors (branch points)"
}

func countNonZero(pix []byte) int {
	n := 0
	for _, v := range pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// countByNeighbors counts skeleton pixels whose 8-neighbor count satisfies keep.
func countByNeighbors(g Grid, keep func(int) bool) int {
	count := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Skeleton[y*g.Width+x] == 0 {
				continue
			}
			if keep(neighbors(g, x, y)) {
				count++
			}
		}
	}
	return count
}

func neighbors(g Grid, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= g.Width || ny >= g.Height {
				continue
			}
			if g.Skeleton[ny*g.Width+nx] != 0 {
				n++
			}
		}
	}
	return n
}
