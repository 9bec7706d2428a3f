// Green-channel contrast-limited adaptive histogram equalization
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// greenChannel is the plane index of green in both BGR and RGB layouts.
const greenChannel = 1

// ContrastEnhancer applies CLAHE to the green plane of a 3-channel image and
// returns it as a single-channel matrix. Red and blue are discarded.
type ContrastEnhancer struct {
	ClipLimit float64
	TileGrid  int
}

// NewContrastEnhancer creates a new green-channel CLAHE stage
func NewContrastEnhancer(clipLimit float64, tileGrid int) *ContrastEnhancer {
	return &ContrastEnhancer{ClipLimit: clipLimit, TileGrid: tileGrid}
}

func (c *ContrastEnhancer) Apply(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	if input.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3-channel input, got %d channels", input.Channels())
	}

	planes := gocv.Split(input)
	defer func() {
		for _, p := range planes {
			p.Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(c.ClipLimit, image.Point{X: c.TileGrid, Y: c.TileGrid})
	defer clahe.Close()

	dst := gocv.NewMat()
	clahe.Apply(planes[greenChannel], &dst)
	if dst.Empty() {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("CLAHE produced no output")
	}
	return dst, nil
}

func (c *ContrastEnhancer) GetName() string {
	return "Contrast Enhancer"
}

func (c *ContrastEnhancer) GetDescription() string {
	return "CLAHE on the green channel"
}

func (c *ContrastEnhancer) Validate() error {
	if c.ClipLimit <= 0 {
		return fmt.Errorf("clip_limit must be positive")
	}
	if c.TileGrid < 1 || c.TileGrid > 64 {
		return fmt.Errorf("tile_grid must be between 1 and 64")
	}
	return nil
}

func (c *ContrastEnhancer) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "clip_limit",
			Type:        "float",
			Value:       c.ClipLimit,
			Description: "Contrast amplification limit per tile",
		},
		{
			Name:        "tile_grid",
			Type:        "int",
			Value:       c.TileGrid,
			Description: "Tiles along each axis",
		},
	}
}
