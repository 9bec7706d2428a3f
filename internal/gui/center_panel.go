// Image display area: the loaded photograph next to its vessel skeleton
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"retinal-vessel-caliber/internal/core"
)

type CenterPanel struct {
	container *container.Split

	originalImage *canvas.Image
	skeletonImage *canvas.Image
}

func NewCenterPanel() *CenterPanel {
	panel := &CenterPanel{}
	panel.initializeUI()
	return panel
}

func (cp *CenterPanel) initializeUI() {
	cp.originalImage = canvas.NewImageFromImage(placeholderImage())
	cp.originalImage.FillMode = canvas.ImageFillContain

	cp.skeletonImage = canvas.NewImageFromImage(placeholderImage())
	cp.skeletonImage.FillMode = canvas.ImageFillContain
	// Nearest-neighbor keeps one-pixel skeleton lines visible
	cp.skeletonImage.ScaleMode = canvas.ImageScalePixels

	cp.container = container.NewHSplit(
		widget.NewCard("Original", "", cp.originalImage),
		widget.NewCard("Vessel Skeleton", "", cp.skeletonImage),
	)
	cp.container.SetOffset(0.5)
}

func (cp *CenterPanel) GetContainer() fyne.CanvasObject {
	return cp.container
}

func (cp *CenterPanel) SetOriginal(img image.Image) {
	cp.originalImage.Image = img
	cp.originalImage.Refresh()
}

func (cp *CenterPanel) SetSkeleton(img image.Image) {
	cp.skeletonImage.Image = img
	cp.skeletonImage.Refresh()
}

func (cp *CenterPanel) ClearSkeleton() {
	cp.SetSkeleton(placeholderImage())
}

func placeholderImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 40, 40, 40, 255
	}
	return img
}

// displayImage converts a BGR(A) or gray byte grid to an RGBA image.
func displayImage(img *core.RawImage) (image.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := (y*img.Width + x) * img.Channels
			var c color.RGBA
			switch img.Channels {
			case 1:
				v := img.Pix[off]
				c = color.RGBA{R: v, G: v, B: v, A: 255}
			default:
				c = color.RGBA{R: img.Pix[off+2], G: img.Pix[off+1], B: img.Pix[off], A: 255}
			}
			out.SetRGBA(x, y, c)
		}
	}
	return out, nil
}
