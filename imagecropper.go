// Package imagecropper crops batches of images to one interactively chosen
// box.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		imagecropper "github.com/menta2k/image-cropper"
//		"github.com/menta2k/image-cropper/pkg/types"
//	)
//
//	func main() {
//		ic := imagecropper.New()
//
//		// Crop every image to the same pixel box
//		res, err := ic.CropBatch([]string{"a.jpg", "b.jpg"}, types.CropBox{X1: 10, Y1: 10, X2: 410, Y2: 310})
//		if err != nil {
//			log.Fatal(err)
//		}
//		for in, out := range res.Written {
//			log.Printf("%s -> %s", in, out)
//		}
//	}
//
// The package is built from these components:
//
// 1. Cropper (pkg/cropper): crop box geometry, handles and ratio locks
// 2. Batch (pkg/batch): picks the reference image of a batch
// 3. History (pkg/history): bounded undo/redo
// 4. Session (pkg/session): pointer gestures, undo and commit over a batch
// 5. Processing (pkg/processing): decoding, cropping, encoding and overlays
//
// When a batch mixes image sizes the box is chosen on the smallest image and
// only that image is cropped on commit.
package imagecropper

import (
	"fmt"
	"image"

	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Version of the image cropper library
const Version = "1.0.0"

// ImageCropper wires sessions to the file based image processor
type ImageCropper struct {
	processor *processing.Processor
	options   session.Options
}

// New creates a new ImageCropper with default configuration. Crops overwrite
// their inputs unless a Namer is configured through NewWithConfig.
func New() *ImageCropper {
	return NewWithConfig(session.Options{}, processing.DefaultOptions())
}

// NewWithConfig creates a new ImageCropper with custom session and encoding
// options
func NewWithConfig(opts session.Options, enc processing.Options) *ImageCropper {
	return &ImageCropper{
		processor: processing.NewProcessorWithOptions(enc),
		options:   opts,
	}
}

// Processor returns the image processor used for decoding and encoding
func (ic *ImageCropper) Processor() *processing.Processor {
	return ic.processor
}

// Open measures paths and starts a crop session on the reference image
func (ic *ImageCropper) Open(paths []string) (*session.Session, error) {
	return session.New(ic.processor, paths, ic.options)
}

// LoadReference decodes the reference image of s
func (ic *ImageCropper) LoadReference(s *session.Session) (image.Image, error) {
	img, err := ic.processor.LoadImage(s.Reference())
	if err != nil {
		return nil, fmt.Errorf("failed to load reference image: %w", err)
	}
	return img, nil
}

// SavePreview writes the reference image with the live box drawn on it
func (ic *ImageCropper) SavePreview(s *session.Session, path string) error {
	img, err := ic.LoadReference(s)
	if err != nil {
		return err
	}

	box := s.Box()
	label := fmt.Sprintf("%s  %dx%d  %s", box, box.Width(), box.Height(), s.Lock())
	overlay, err := ic.processor.CreateOverlay(img, box, label)
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	return ic.processor.Save(overlay, path)
}

// CropBatch crops every image in paths to box without user interaction. The
// box is clamped to the reference image and fitted to the configured ratio
// lock.
func (ic *ImageCropper) CropBatch(paths []string, box types.CropBox) (*session.CommitResult, error) {
	s, err := ic.Open(paths)
	if err != nil {
		return nil, err
	}
	if _, err := s.SetBox(box); err != nil {
		return nil, fmt.Errorf("failed to set crop box: %w", err)
	}
	return s.Commit()
}
