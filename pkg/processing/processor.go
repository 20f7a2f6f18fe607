package processing

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cropper/pkg/types"
)

// Options controls how cropped images are encoded
type Options struct {
	// Quality is used for JPEG and lossy WebP output (1-100)
	Quality int
	// Lossless selects lossless WebP encoding
	Lossless bool
}

// DefaultOptions returns the encoding defaults
func DefaultOptions() Options {
	return Options{Quality: 90}
}

// Processor reads, crops and writes image files
type Processor struct {
	opts Options
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return NewProcessorWithOptions(DefaultOptions())
}

// NewProcessorWithOptions creates a processor with custom encoding options
func NewProcessorWithOptions(opts Options) *Processor {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions().Quality
	}
	return &Processor{opts: opts}
}

// Options returns the encoding options in use
func (p *Processor) Options() Options { return p.opts }

// Dimensions reads the image header at path without decoding pixels
func (p *Processor) Dimensions(path string) (types.ImageBounds, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ImageBounds{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		// libwebp understands a few containers the pure Go decoder rejects
		if _, serr := f.Seek(0, 0); serr != nil {
			return types.ImageBounds{}, err
		}
		wcfg, werr := webp.DecodeConfig(f)
		if werr != nil {
			return types.ImageBounds{}, fmt.Errorf("failed to read image header: %w", err)
		}
		cfg = wcfg
	}

	b := types.ImageBounds{Width: cfg.Width, Height: cfg.Height}
	if !b.Valid() {
		return b, fmt.Errorf("image %s has invalid size %s", path, b)
	}
	return b, nil
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if img, err := webp.Decode(f); err == nil {
		return img, nil
	}
	if _, err := f.Seek(0, 0); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// CropPixels loads the image at path and cuts box out of it
func (p *Processor) CropPixels(path string, box types.CropBox) (image.Image, error) {
	img, err := p.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return p.CropImageToBox(img, box)
}

// CropImageToBox crops img to the pixel box. The box must lie inside the
// image.
func (p *Processor) CropImageToBox(img image.Image, box types.CropBox) (image.Image, error) {
	bounds := img.Bounds()
	ib := types.ImageBounds{Width: bounds.Dx(), Height: bounds.Dy()}
	if !box.In(ib) {
		return nil, fmt.Errorf("crop box %s outside image %s", box, ib)
	}

	rect := box.Rect().Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}

// Save writes img to path, picking the encoder from the file extension
func (p *Processor) Save(img image.Image, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return p.SaveImage(img, path, format, p.opts.Quality, p.opts.Lossless)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "jpg", "jpeg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	case "png", "gif", "bmp", "tif", "tiff":
		return imaging.Save(img, path)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Thumbnail scales img to fit inside maxW x maxH, never enlarging it
func (p *Processor) Thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Box)
}

// CreateOverlay renders img with everything outside box shaded, the box
// outlined with its resize handles, and label drawn above it
func (p *Processor) CreateOverlay(img image.Image, box types.CropBox, label string) (image.Image, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	box = box.Normalize()

	dc := gg.NewContext(w, h)
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	x1, y1 := float64(box.X1), float64(box.Y1)
	x2, y2 := float64(box.X2), float64(box.Y2)

	// Shade the four bands around the box
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawRectangle(0, 0, float64(w), y1)
	dc.DrawRectangle(0, y2, float64(w), float64(h)-y2)
	dc.DrawRectangle(0, y1, x1, y2-y1)
	dc.DrawRectangle(x2, y1, float64(w)-x2, y2-y1)
	dc.Fill()

	side := float64(min(w, h))
	stroke := math.Max(1, 0.004*side)
	knob := math.Max(4, 0.012*side)

	gold := color.NRGBA{255, 204, 0, 255}
	dc.SetColor(gold)
	dc.SetLineWidth(stroke)
	dc.DrawRectangle(x1, y1, x2-x1, y2-y1)
	dc.Stroke()

	mx, my := (x1+x2)/2, (y1+y2)/2
	for _, pt := range [][2]float64{
		{x1, y1}, {mx, y1}, {x2, y1},
		{x1, my}, {x2, my},
		{x1, y2}, {mx, y2}, {x2, y2},
	} {
		dc.DrawRectangle(pt[0]-knob/2, pt[1]-knob/2, knob, knob)
	}
	dc.Fill()

	if label == "" {
		return dc.Image(), nil
	}

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	fontSize := clamp(0.03*side, 10, 48)
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	tw, th := dc.MeasureString(label)
	tx := clamp(x1, 0, math.Max(0, float64(w)-tw))
	ty := y1 - stroke - 2
	if ty-th < 0 {
		ty = y1 + th + stroke + 2
	}

	dc.SetRGBA(0, 0, 0, 0.7)
	dc.DrawRectangle(tx-2, ty-th-2, tw+4, th+4)
	dc.Fill()
	dc.SetColor(gold)
	dc.DrawString(label, tx, ty)

	return dc.Image(), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
