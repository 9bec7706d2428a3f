package visualization

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"
)

func samples() []float64 {
	out := make([]float64, 0, 100)
	for i := 0; i < 100; i++ {
		out = append(out, 2+float64(i)*0.1)
	}
	return out
}

func TestWidthHistogram_AddsCutLines(t *testing.T) {
	p, err := WidthHistogram(samples(), 30, 30, 10)
	require.NoError(t, err)

	var hists, lines int
	for _, pl := range p.Plotters() {
		switch pl.(type) {
		case *plotter.Histogram:
			hists++
		case *plotter.Line:
			lines++
		}
	}
	assert.Equal(t, 1, hists)
	assert.Equal(t, 2, lines)
	assert.Contains(t, p.Title.Text, "n=100")
}

func TestWidthHistogram_TooFewSamplesForCuts(t *testing.T) {
	p, err := WidthHistogram([]float64{3, 4, 5}, 30, 30, 0)
	require.NoError(t, err)

	for _, pl := range p.Plotters() {
		_, isLine := pl.(*plotter.Line)
		assert.False(t, isLine, "no cut lines when both subsets are empty")
	}
}

func TestWidthHistogram_Empty(t *testing.T) {
	_, err := WidthHistogram(nil, 30, 30, 0)
	assert.ErrorIs(t, err, ErrNoSamples)

	assert.ErrorIs(t, SaveWidthHistogram(filepath.Join(t.TempDir(), "h.png"), nil, 30, 30), ErrNoSamples)
}

func TestSaveWidthHistogram_WritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "hist.png")
	require.NoError(t, SaveWidthHistogram(path, samples(), 30, 30))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Greater(t, cfg.Width, cfg.Height)
}

func TestWriteWidthHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWidthHistogram(&buf, "PNG", samples(), 30, 30))

	_, err := png.DecodeConfig(&buf)
	assert.NoError(t, err)

	assert.Error(t, WriteWidthHistogram(&buf, "bogus", samples(), 30, 30))
}
