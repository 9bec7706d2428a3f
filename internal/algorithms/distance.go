// Euclidean distance field over the vessel mask
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// DistanceField computes, for every foreground pixel, the L2 distance to the
// nearest background pixel using OpenCV's 5x5 mask approximation. The output
// is CV_32FC1.
type DistanceField struct{}

// NewDistanceField creates a new distance transform stage
func NewDistanceField() *DistanceField {
	return &DistanceField{}
}

func (d *DistanceField) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := requireSingleChannel(input); err != nil {
		return gocv.NewMat(), err
	}

	dist := gocv.NewMat()
	labels := gocv.NewMat()
	defer labels.Close()

	gocv.DistanceTransform(input, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)
	if dist.Empty() {
		dist.Close()
		return gocv.NewMat(), fmt.Errorf("distance transform produced no output")
	}
	return dist, nil
}

func (d *DistanceField) GetName() string {
	return "Distance Field"
}

func (d *DistanceField) GetDescription() string {
	return "L2 distance to the nearest background pixel (5x5 mask)"
}

func (d *DistanceField) Validate() error {
	return nil
}

func (d *DistanceField) GetParameterInfo() []ParameterInfo {
	return nil
}

// Float32Values copies a continuous CV_32FC1 matrix into a row-major slice.
func Float32Values(mat gocv.Mat) ([]float32, error) {
	if mat.Empty() || mat.Type() != gocv.MatTypeCV32FC1 {
		return nil, fmt.Errorf("expected a non-empty CV_32FC1 matrix")
	}

	data, err := mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("distance data: %w", err)
	}
	n := mat.Rows() * mat.Cols()
	if len(data) < n {
		return nil, fmt.Errorf("distance data has %d values, want %d", len(data), n)
	}

	values := make([]float32, n)
	copy(values, data[:n])
	return values, nil
}
