package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plusGrid returns a 7x7 grid whose skeleton is a plus sign centered at (3,3)
// and whose mask equals the skeleton.
func plusGrid() Grid {
	const w, h = 7, 7
	g := Grid{Width: w, Height: h, Mask: make([]byte, w*h), Skeleton: make([]byte, w*h)}
	for i := 1; i <= 5; i++ {
		g.Skeleton[3*w+i] = 255
		g.Skeleton[i*w+3] = 255
	}
	for i, v := range g.Skeleton {
		if v != 0 {
			g.Mask[i] = 255
		}
	}
	return g
}

func TestEvaluator_DefaultMetrics(t *testing.T) {
	e := NewEvaluator()
	assert.Equal(t, []string{"endpoints", "junctions", "skeleton_pixels", "vessel_density", "vessel_pixels"}, e.Names())
}

func TestEvaluator_Evaluate(t *testing.T) {
	d, err := NewEvaluator().Evaluate(plusGrid())
	require.NoError(t, err)

	assert.Equal(t, 9, d.SkeletonPixels)
	assert.Equal(t, 9, d.VesselPixels)
	assert.InDelta(t, 9.0/49.0, d.VesselDensity, 1e-12)
	assert.Equal(t, 4, d.Endpoints)
	// The center and its four adjacent pixels each touch at least three others
	assert.Equal(t, 5, d.Junctions)
}

func TestEvaluator_EmptyGrid(t *testing.T) {
	g := Grid{Width: 4, Height: 3, Mask: make([]byte, 12), Skeleton: make([]byte, 12)}
	d, err := NewEvaluator().Evaluate(g)
	require.NoError(t, err)
	assert.Equal(t, Diagnostics{}, d)
}

func TestEvaluator_RejectsMismatchedGrid(t *testing.T) {
	g := Grid{Width: 4, Height: 3, Mask: make([]byte, 12), Skeleton: make([]byte, 11)}
	_, err := NewEvaluator().Evaluate(g)
	assert.Error(t, err)

	_, err = NewEvaluator().Calculate("vessel_density", Grid{})
	assert.Error(t, err)
}

func TestEvaluator_UnknownMetric(t *testing.T) {
	_, err := NewEvaluator().Calculate("tortuosity", plusGrid())
	assert.Error(t, err)
}

func TestEndpoints_StraightLine(t *testing.T) {
	const w, h = 10, 3
	g := Grid{Width: w, Height: h, Mask: make([]byte, w*h), Skeleton: make([]byte, w*h)}
	for x := 2; x < 8; x++ {
		g.Skeleton[1*w+x] = 255
		g.Mask[1*w+x] = 255
	}

	ends, err := NewEndpoints().Calculate(g)
	require.NoError(t, err)
	assert.Equal(t, 2.0, ends)

	junctions, err := NewJunctions().Calculate(g)
	require.NoError(t, err)
	assert.Equal(t, 0.0, junctions)
}
