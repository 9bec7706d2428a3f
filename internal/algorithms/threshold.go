// Local adaptive thresholding that marks locally dark pixels as vessel
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// AdaptiveThreshold compares every pixel with its Gaussian-weighted
// neighborhood mean minus Offset. Darker pixels become 255 (inverted binary),
// so vessels, which are darker than background in the green channel, end up
// as foreground.
type AdaptiveThreshold struct {
	BlockSize int
	Offset    float64
}

// NewAdaptiveThreshold creates a new inverted Gaussian adaptive threshold
func NewAdaptiveThreshold(blockSize int, offset float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{BlockSize: blockSize, Offset: offset}
}

func (a *AdaptiveThreshold) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := requireSingleChannel(input); err != nil {
		return gocv.NewMat(), err
	}

	output := gocv.NewMat()
	gocv.AdaptiveThreshold(input, &output, 255, gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinaryInv, a.BlockSize, float32(a.Offset))
	if output.Empty() {
		output.Close()
		return gocv.NewMat(), fmt.Errorf("adaptive threshold produced no output")
	}

	return output, nil
}

func (a *AdaptiveThreshold) GetName() string {
	return "Adaptive Threshold"
}

func (a *AdaptiveThreshold) GetDescription() string {
	return "Gaussian adaptive threshold, inverted so dark vessels are foreground"
}

func (a *AdaptiveThreshold) Validate() error {
	if a.BlockSize < 3 || a.BlockSize > 101 {
		return fmt.Errorf("block_size must be between 3 and 101")
	}
	if a.BlockSize%2 == 0 {
		return fmt.Errorf("block_size must be odd")
	}
	return nil
}

func (a *AdaptiveThreshold) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "block_size",
			Type:        "int",
			Value:       a.BlockSize,
			Description: "Size of neighborhood area",
		},
		{
			Name:        "C",
			Type:        "float",
			Value:       a.Offset,
			Description: "Constant subtracted from the weighted mean",
		},
	}
}

// NewVesselSegmenter chains opening and adaptive thresholding into the
// enhanced-green to binary-mask stage.
func NewVesselSegmenter(kernelSize, blockSize int, offset float64) *Sequence {
	return NewSequence("Vessel Segmenter",
		NewOpening(kernelSize),
		NewAdaptiveThreshold(blockSize, offset),
	)
}
