package io

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retinal-vessel-caliber/internal/core"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadRawImage_Gray16IsScaledTo8Bit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "deep.png")

	src := image.NewGray16(image.Rect(0, 0, 4, 2))
	src.SetGray16(0, 0, color.Gray16{Y: 65535})
	src.SetGray16(1, 0, color.Gray16{Y: 257 * 100})
	writePNG(t, path, src)

	img, err := NewImageLoader(logger).LoadRawImage(path)
	require.NoError(t, err)

	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, byte(255), img.Pix[0])
	assert.Equal(t, byte(100), img.Pix[1])
	assert.Equal(t, byte(0), img.Pix[2])
}

func TestLoadRawImage_KeepsColorChannels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "rgb.png")

	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.Set(1, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	writePNG(t, path, src)

	img, err := NewImageLoader(logger).LoadRawImage(path)
	require.NoError(t, err)

	require.Contains(t, []int{3, 4}, img.Channels)
	off := (1*3 + 1) * img.Channels
	// OpenCV stores BGR
	assert.Equal(t, []byte{50, 100, 200}, img.Pix[off:off+3])
	assert.Equal(t, "IO: Image loaded successfully", hook.LastEntry().Message)
}

func TestLoadRawImage_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	loader := NewImageLoader(logger)
	dir := t.TempDir()

	_, err := loader.LoadRawImage(filepath.Join(dir, "notes.txt"))
	assert.ErrorContains(t, err, "unsupported image format")

	_, err = loader.LoadRawImage(filepath.Join(dir, "missing.png"))
	assert.ErrorContains(t, err, "failed to load image")

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not a png"), 0o644))
	_, err = loader.LoadRawImage(garbage)
	assert.Error(t, err)
}

func TestDecodeRawImage(t *testing.T) {
	logger, _ := test.NewNullLogger()
	loader := NewImageLoader(logger)

	src := image.NewGray(image.Rect(0, 0, 5, 4))
	src.SetGray(2, 3, color.Gray{Y: 77})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := loader.DecodeRawImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 4, img.Height)
	assert.Equal(t, 1, img.Channels)
	assert.Equal(t, byte(77), img.Pix[3*5+2])

	_, err = loader.DecodeRawImage(nil)
	assert.ErrorIs(t, err, core.ErrInvalidImageFormat)
}

func TestSaveMask(t *testing.T) {
	logger, _ := test.NewNullLogger()
	loader := NewImageLoader(logger)
	dir := t.TempDir()

	mask := &core.Mask{Width: 3, Height: 2, Pix: []byte{0, 255, 0, 0, 0, 255}}
	path := filepath.Join(dir, "skeleton.png")
	require.NoError(t, loader.SaveMask(mask, path))

	back, err := loader.LoadRawImage(path)
	require.NoError(t, err)
	assert.Equal(t, mask.Pix, back.Pix)

	assert.Error(t, loader.SaveMask(nil, path))
	assert.Error(t, loader.SaveMask(mask, filepath.Join(dir, "skeleton.gif")))
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, ".png")
	exts[0] = ".exe"
	assert.NotContains(t, SupportedExtensions(), ".exe")
	assert.True(t, isSupportedImageFormat("/tmp/FUNDUS.JPG"))
	assert.False(t, isSupportedImageFormat("/tmp/fundus"))
}
