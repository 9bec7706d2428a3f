// Image loading and saving for the pipeline's byte-grid types
package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"retinal-vessel-caliber/internal/core"
)

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger logrus.FieldLogger
}

func NewImageLoader(logger logrus.FieldLogger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// SupportedExtensions lists the accepted file extensions, lower case with dot.
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// LoadRawImage reads a file keeping its channel layout. 16-bit files are
// scaled down to 8 bits.
func (il *ImageLoader) LoadRawImage(path string) (*core.RawImage, error) {
	il.logger.WithField("filepath", path).Debug("IO: Loading image")

	if !isSupportedImageFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}

	img, err := il.toRawImage(mat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    img.Width,
		"height":   img.Height,
		"channels": img.Channels,
	}).Info("IO: Image loaded successfully")

	return img, nil
}

// DecodeRawImage decodes an encoded image held in memory.
func (il *ImageLoader) DecodeRawImage(data []byte) (*core.RawImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", core.ErrInvalidImageFormat)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("%w: undecodable image data", core.ErrInvalidImageFormat)
	}

	return il.toRawImage(mat)
}

func (il *ImageLoader) toRawImage(mat gocv.Mat) (*core.RawImage, error) {
	switch mat.Type() {
	case gocv.MatTypeCV16UC1, gocv.MatTypeCV16UC3, gocv.MatTypeCV16UC4:
		il.logger.WithField("type", int(mat.Type())).Debug("IO: Scaling 16-bit image to 8 bits")
		scaled := gocv.NewMat()
		defer scaled.Close()
		mat.ConvertToWithParams(&scaled, gocv.MatTypeCV8U, 1.0/257.0, 0)
		return core.RawImageFromMat(scaled)
	default:
		return core.RawImageFromMat(mat)
	}
}

// SaveMask writes a vessel mask or skeleton as a grayscale image.
func (il *ImageLoader) SaveMask(mask *core.Mask, path string) error {
	if mask == nil {
		return fmt.Errorf("cannot save empty mask")
	}

	mat, err := mask.ToMat()
	if err != nil {
		return fmt.Errorf("convert mask: %w", err)
	}
	defer mat.Close()

	return il.SaveImage(mat, path)
}

func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("IO: Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !isSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("IO: Image saved successfully")

	return nil
}

func isSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedExtensions {
		if ext == format {
			return true
		}
	}
	return false
}
