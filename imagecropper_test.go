package imagecropper

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/batch"
	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

// createTestImage writes a solid image of the given size and returns its path
func createTestImage(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{64, 128, 192, 255})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, processing.NewProcessor().Save(img, path))
	return path
}

func suffixNamer(p string) string {
	ext := filepath.Ext(p)
	return strings.TrimSuffix(p, ext) + "_cropped" + ext
}

func TestNew(t *testing.T) {
	ic := New()
	require.NotNil(t, ic)
	assert.NotNil(t, ic.Processor())
	assert.Equal(t, processing.DefaultOptions(), ic.Processor().Options())
}

func TestCropBatch(t *testing.T) {
	dir := t.TempDir()
	a := createTestImage(t, dir, "a.png", 120, 80)
	b := createTestImage(t, dir, "b.png", 120, 80)

	ic := NewWithConfig(session.Options{Namer: suffixNamer}, processing.DefaultOptions())
	res, err := ic.CropBatch([]string{a, b}, types.CropBox{X1: 10, Y1: 10, X2: 70, Y2: 50})
	require.NoError(t, err)
	require.Len(t, res.Written, 2)

	for _, in := range []string{a, b} {
		got, err := ic.Processor().Dimensions(res.Written[in])
		require.NoError(t, err)
		assert.Equal(t, types.ImageBounds{Width: 60, Height: 40}, got)
	}
}

func TestCropBatchWithLock(t *testing.T) {
	dir := t.TempDir()
	a := createTestImage(t, dir, "a.png", 120, 80)

	lock := cropper.Preset(cropper.Square)
	ic := NewWithConfig(session.Options{Namer: suffixNamer, Lock: &lock}, processing.DefaultOptions())
	res, err := ic.CropBatch([]string{a}, types.CropBox{X1: 0, Y1: 0, X2: 100, Y2: 50})
	require.NoError(t, err)
	assert.Equal(t, types.CropBox{X1: 25, Y1: 0, X2: 75, Y2: 50}, res.Box)
}

func TestCropBatchMixedSizes(t *testing.T) {
	dir := t.TempDir()
	big := createTestImage(t, dir, "big.png", 200, 200)
	small := createTestImage(t, dir, "small.png", 100, 50)

	ic := NewWithConfig(session.Options{Namer: suffixNamer}, processing.DefaultOptions())
	res, err := ic.CropBatch([]string{big, small}, types.CropBox{X1: 0, Y1: 0, X2: 150, Y2: 150})
	require.NoError(t, err)

	assert.Equal(t, types.CropBox{X1: 0, Y1: 0, X2: 100, Y2: 50}, res.Box)
	assert.Equal(t, []string{big}, res.Skipped)
	assert.Contains(t, res.Written, small)
}

func TestCropBatchAllUnreadable(t *testing.T) {
	dir := t.TempDir()
	_, err := New().CropBatch([]string{filepath.Join(dir, "x.png"), filepath.Join(dir, "y.png")}, types.CropBox{})
	require.Error(t, err)

	var all *batch.AllImagesUnreadableError
	require.ErrorAs(t, err, &all)
	assert.Len(t, all.Failures, 2)
}

func TestSavePreview(t *testing.T) {
	dir := t.TempDir()
	a := createTestImage(t, dir, "a.png", 120, 80)

	ic := New()
	s, err := ic.Open([]string{a})
	require.NoError(t, err)
	_, err = s.SetBox(types.CropBox{X1: 20, Y1: 20, X2: 100, Y2: 60})
	require.NoError(t, err)

	out := filepath.Join(dir, "preview.png")
	require.NoError(t, ic.SavePreview(s, out))

	got, err := ic.Processor().Dimensions(out)
	require.NoError(t, err)
	assert.Equal(t, types.ImageBounds{Width: 120, Height: 80}, got)
}
