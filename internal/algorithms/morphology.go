// Morphological opening used to drop bright speckle before thresholding
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Opening implements morphological opening with a square all-ones kernel
type Opening struct {
	KernelSize int
}

// NewOpening creates a new opening stage
func NewOpening(kernelSize int) *Opening {
	return &Opening{KernelSize: kernelSize}
}

func (o *Opening) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := requireSingleChannel(input); err != nil {
		return gocv.NewMat(), err
	}

	// Create kernel
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(o.KernelSize, o.KernelSize))
	defer kernel.Close()

	// Apply opening (erosion followed by dilation)
	output := gocv.NewMat()
	gocv.MorphologyEx(input, &output, gocv.MorphOpen, kernel)
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("opening produced no output")
	}

	return output, nil
}

func (o *Opening) GetName() string {
	return "Opening"
}

func (o *Opening) GetDescription() string {
	return "Morphological opening to remove isolated bright speckle"
}

func (o *Opening) Validate() error {
	if o.KernelSize < 1 || o.KernelSize > 15 {
		return fmt.Errorf("kernel_size must be between 1 and 15")
	}
	return nil
}

func (o *Opening) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "kernel_size",
			Type:        "int",
			Value:       o.KernelSize,
			Description: "Side of the square structuring element",
		},
	}
}
