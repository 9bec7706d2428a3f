// Normalization of arbitrary input images to the fixed analysis geometry
package core

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Normalizer converts a RawImage to a 3-channel BGR matrix exactly
// TargetWidth pixels wide, preserving aspect ratio.
type Normalizer struct {
	TargetWidth int
}

// NewNormalizer creates a normalizer for the given width
func NewNormalizer(targetWidth int) *Normalizer {
	return &Normalizer{TargetWidth: targetWidth}
}

// TargetHeight returns round(height * targetWidth / width), never less than 1.
func TargetHeight(width, height, targetWidth int) int {
	h := int(math.Round(float64(height) * float64(targetWidth) / float64(width)))
	if h < 1 {
		h = 1
	}
	return h
}

// Normalize validates img and returns a new CV_8UC3 matrix of
// TargetWidth x TargetHeight. The caller must Close it.
func (n *Normalizer) Normalize(img *RawImage) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	src, err := img.ToMat()
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()

	switch img.Channels {
	case 1:
		gocv.CvtColor(src, &bgr, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(src, &bgr, gocv.ColorBGRAToBGR)
	default:
		src.CopyTo(&bgr)
	}
	if bgr.Empty() || bgr.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("color conversion from %d channels failed", img.Channels)
	}

	size := image.Pt(n.TargetWidth, TargetHeight(img.Width, img.Height, n.TargetWidth))

	// Area when shrinking, bilinear when enlarging
	interp := gocv.InterpolationLinear
	if img.Width > n.TargetWidth {
		interp = gocv.InterpolationArea
	}

	resized := gocv.NewMat()
	gocv.Resize(bgr, &resized, size, 0, 0, interp)
	if resized.Empty() {
		resized.Close()
		return gocv.NewMat(), fmt.Errorf("resize to %dx%d failed", size.X, size.Y)
	}

	return resized, nil
}
