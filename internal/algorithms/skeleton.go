// Topology-preserving thinning of the vessel mask
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// Skeletonizer thins a binary mask to a 1-pixel-wide skeleton with the
// Zhang-Suen algorithm. Thinning only ever removes pixels, so the skeleton is
// a subset of the mask and each connected component stays connected.
// Zhang-Suen erases some tiny components outright (a 2x2 block, a 2-pixel
// diagonal); each of those gets its most central pixel back.
type Skeletonizer struct{}

// NewSkeletonizer creates a new thinning stage
func NewSkeletonizer() *Skeletonizer {
	return &Skeletonizer{}
}

func (s *Skeletonizer) Apply(input gocv.Mat) (gocv.Mat, error) {
	if err := requireSingleChannel(input); err != nil {
		return gocv.NewMat(), err
	}

	// Any nonzero pixel is foreground
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(input, &binary, 0, 255, gocv.ThresholdBinary)

	dst := gocv.NewMat()
	contrib.Thinning(binary, &dst, contrib.ThinningZhangSuen)
	if dst.Empty() {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("thinning produced no output")
	}
	if _, err := restoreLostComponents(binary, &dst); err != nil {
		dst.Close()
		return gocv.NewMat(), err
	}
	return dst, nil
}

// restoreLostComponents sets one pixel in skel for every 8-connected
// component of binary that has no skeleton pixel left. The restored pixel is
// the component pixel nearest its centroid, first in row-major order on ties.
// It returns the number of restored components.
func restoreLostComponents(binary gocv.Mat, skel *gocv.Mat) (int, error) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids)
	if n <= 1 {
		return 0, nil
	}

	labelPix, err := labels.DataPtrInt32()
	if err != nil {
		return 0, fmt.Errorf("component labels: %w", err)
	}
	skelPix, err := skel.DataPtrUint8()
	if err != nil {
		return 0, fmt.Errorf("skeleton data: %w", err)
	}
	if len(labelPix) != len(skelPix) {
		return 0, fmt.Errorf("labels have %d pixels, skeleton has %d", len(labelPix), len(skelPix))
	}

	covered := make([]bool, n)
	for i, l := range labelPix {
		if skelPix[i] != 0 {
			covered[l] = true
		}
	}

	type candidate struct {
		cx, cy float64
		index  int
		dist   float64
	}
	lost := make(map[int32]*candidate)
	for l := 1; l < n; l++ {
		if !covered[l] {
			lost[int32(l)] = &candidate{
				cx:    centroids.GetDoubleAt(l, 0),
				cy:    centroids.GetDoubleAt(l, 1),
				index: -1,
			}
		}
	}
	if len(lost) == 0 {
		return 0, nil
	}

	cols := labels.Cols()
	for i, l := range labelPix {
		c, ok := lost[l]
		if !ok {
			continue
		}
		dx := float64(i%cols) - c.cx
		dy := float64(i/cols) - c.cy
		if d := dx*dx + dy*dy; c.index < 0 || d < c.dist {
			c.index, c.dist = i, d
		}
	}

	for _, c := range lost {
		skelPix[c.index] = 255
	}
	return len(lost), nil
}

func (s *Skeletonizer) GetName() string {
	return "Skeletonizer"
}

func (s *Skeletonizer) GetDescription() string {
	return "Zhang-Suen thinning to a 1-pixel medial axis"
}

func (s *Skeletonizer) Validate() error {
	return nil
}

func (s *Skeletonizer) GetParameterInfo() []ParameterInfo {
	return nil
}
