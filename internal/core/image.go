// Core image data structures shared by every pipeline stage
package core

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrInvalidImageFormat marks input whose geometry or channel layout the
// pipeline cannot accept. Use errors.Is to detect it.
var ErrInvalidImageFormat = errors.New("invalid image format")

// RawImage is a caller-owned byte grid: Height rows of Width pixels with
// Channels interleaved bytes each (1 = gray, 3 = BGR, 4 = BGRA). The pipeline
// only reads Pix.
type RawImage struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewRawImage allocates a zeroed image
func NewRawImage(width, height, channels int) *RawImage {
	size := 0
	if width > 0 && height > 0 && channels > 0 {
		size = width * height * channels
	}
	return &RawImage{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, size),
	}
}

// Validate checks the geometry contract.
func (img *RawImage) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInvalidImageFormat, img.Width, img.Height)
	}

	if img.Channels != 1 && img.Channels != 3 && img.Channels != 4 {
		return fmt.Errorf("%w: unsupported number of channels: %d", ErrInvalidImageFormat, img.Channels)
	}

	if want := img.Width * img.Height * img.Channels; len(img.Pix) != want {
		return fmt.Errorf("%w: pixel buffer has %d bytes, want %d", ErrInvalidImageFormat, len(img.Pix), want)
	}

	return nil
}

// Set writes one pixel. v must hold Channels values.
func (img *RawImage) Set(x, y int, v ...byte) {
	off := (y*img.Width + x) * img.Channels
	copy(img.Pix[off:off+img.Channels], v)
}

// ToMat copies the image into a new OpenCV matrix owned by the caller.
func (img *RawImage) ToMat() (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	var mt gocv.MatType
	switch img.Channels {
	case 1:
		mt = gocv.MatTypeCV8UC1
	case 3:
		mt = gocv.MatTypeCV8UC3
	default:
		mt = gocv.MatTypeCV8UC4
	}

	view, err := gocv.NewMatFromBytes(img.Height, img.Width, mt, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap pixel buffer: %w", err)
	}
	defer view.Close()

	// Clone so the pipeline never aliases caller memory
	return view.Clone(), nil
}

// RawImageFromMat copies an 8-bit matrix into a RawImage
func RawImageFromMat(mat gocv.Mat) (*RawImage, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidImageFormat)
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return nil, fmt.Errorf("%w: unsupported matrix type %v", ErrInvalidImageFormat, mat.Type())
	}

	img := &RawImage{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Pix:      mat.ToBytes(),
	}
	return img, img.Validate()
}

// Mask is a single-channel grid with values in {0, 255}. It is used for the
// vessel mask and the skeleton.
type Mask struct {
	Width  int
	Height int
	Pix    []byte
}

// maskFromMat copies a CV_8UC1 matrix.
func maskFromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() || mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("mask must be a non-empty 8-bit single-channel matrix")
	}
	return &Mask{
		Width:  mat.Cols(),
		Height: mat.Rows(),
		Pix:    mat.ToBytes(),
	}, nil
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// ToImage returns the mask as a grayscale image for display.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(img.Pix, m.Pix)
	return img
}

// ToMat copies the mask into a new CV_8UC1 matrix.
func (m *Mask) ToMat() (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Pix)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer view.Close()
	return view.Clone(), nil
}
