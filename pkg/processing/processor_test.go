package processing

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/types"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func writeTestImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, NewProcessor().Save(gradient(w, h), path))
	return path
}

func TestDimensions(t *testing.T) {
	p := NewProcessor()
	for _, name := range []string{"a.png", "a.jpg", "a.webp", "a.bmp", "a.tiff"} {
		t.Run(name, func(t *testing.T) {
			path := writeTestImage(t, name, 64, 48)
			got, err := p.Dimensions(path)
			require.NoError(t, err)
			assert.Equal(t, types.ImageBounds{Width: 64, Height: 48}, got)
		})
	}
}

func TestDimensionsErrors(t *testing.T) {
	p := NewProcessor()
	_, err := p.Dimensions(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.png")
	require.NoError(t, os.WriteFile(bogus, []byte("not an image"), 0644))
	_, err = p.Dimensions(bogus)
	assert.Error(t, err)
}

func TestCropPixels(t *testing.T) {
	p := NewProcessor()
	path := writeTestImage(t, "src.png", 100, 80)

	img, err := p.CropPixels(path, types.CropBox{X1: 10, Y1: 20, X2: 40, Y2: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())

	// PNG is lossless so the top-left pixel carries the source coordinates
	r, g, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(20), g>>8)

	_, err = p.CropPixels(path, types.CropBox{X1: 90, Y1: 0, X2: 110, Y2: 10})
	assert.Error(t, err)
}

func TestCropImageToBoxOffsetOrigin(t *testing.T) {
	p := NewProcessor()
	src := gradient(50, 50).SubImage(image.Rect(10, 10, 50, 50))

	img, err := p.CropImageToBox(src, types.CropBox{X1: 0, Y1: 0, X2: 5, Y2: 5})
	require.NoError(t, err)
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	assert.Equal(t, uint32(10), r>>8)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessorWithOptions(Options{Quality: 80, Lossless: true})
	src := gradient(32, 16)

	for _, name := range []string{"out.webp", "nested/out.jpg", "out.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, p.Save(src, path), name)
		img, err := p.LoadImage(path)
		require.NoError(t, err, name)
		assert.Equal(t, src.Bounds().Size(), img.Bounds().Size(), name)
	}

	assert.Error(t, p.Save(src, filepath.Join(dir, "out.xyz")))
}

func TestNewProcessorWithOptionsDefaultsQuality(t *testing.T) {
	assert.Equal(t, 90, NewProcessorWithOptions(Options{Quality: 0}).Options().Quality)
	assert.Equal(t, 90, NewProcessorWithOptions(Options{Quality: 101}).Options().Quality)
	assert.Equal(t, 55, NewProcessorWithOptions(Options{Quality: 55}).Options().Quality)
}

func TestThumbnail(t *testing.T) {
	p := NewProcessor()
	img := p.Thumbnail(gradient(400, 200), 100, 100)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	small := gradient(10, 10)
	assert.Same(t, small, p.Thumbnail(small, 100, 100))
}

func TestCreateOverlay(t *testing.T) {
	p := NewProcessor()
	src := imaging.New(200, 100, color.NRGBA{255, 255, 255, 255})
	box := types.CropBox{X1: 50, Y1: 25, X2: 150, Y2: 75}

	out, err := p.CreateOverlay(src, box, box.String())
	require.NoError(t, err)
	assert.Equal(t, src.Bounds().Size(), out.Bounds().Size())

	// Outside the box is shaded, the centre is untouched
	r, _, _, _ := out.At(5, 95).RGBA()
	assert.Less(t, r>>8, uint32(200))
	r, g, b, _ := out.At(100, 50).RGBA()
	assert.Equal(t, [3]uint32{255, 255, 255}, [3]uint32{r >> 8, g >> 8, b >> 8})

	_, err = p.CreateOverlay(src, box, "")
	require.NoError(t, err)
}
