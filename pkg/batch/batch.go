// Package batch decides how one set of crop coordinates applies to a batch
// of images.
//
// When every image has the same pixel size the coordinates apply verbatim to
// all of them. Otherwise the smallest image becomes the reference: a box that
// is legal there is the largest box guaranteed to be legal everywhere, and a
// commit only writes the reference image.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/menta2k/image-cropper/pkg/types"
)

var (
	// ErrNoImages is returned for an empty path list
	ErrNoImages = errors.New("no images selected")
	// ErrAllImagesUnreadable is matched by *AllImagesUnreadableError
	ErrAllImagesUnreadable = errors.New("all images unreadable")
)

// Dimensioner reports the pixel size of an image without decoding it
type Dimensioner interface {
	Dimensions(path string) (types.ImageBounds, error)
}

// DimensionsFunc adapts a function to Dimensioner
type DimensionsFunc func(path string) (types.ImageBounds, error)

func (f DimensionsFunc) Dimensions(path string) (types.ImageBounds, error) {
	return f(path)
}

// UnreadableImageError records an image whose size could not be read
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }

// AllImagesUnreadableError aborts a batch in which no image could be read
type AllImagesUnreadableError struct {
	Failures []*UnreadableImageError
}

func (e *AllImagesUnreadableError) Error() string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return fmt.Sprintf("%v: %s", ErrAllImagesUnreadable, strings.Join(paths, ", "))
}

func (e *AllImagesUnreadableError) Is(target error) bool {
	return target == ErrAllImagesUnreadable
}

// Unwrap exposes the individual failures to errors.Is / errors.As
func (e *AllImagesUnreadableError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Selection is the outcome of SelectReference. Paths keeps every input path
// in order, readable or not.
type Selection struct {
	Paths          []string
	ReferenceIndex int
	IsMultiSize    bool
	// Bounds is parallel to Paths; unreadable entries are zero
	Bounds     []types.ImageBounds
	Unreadable []*UnreadableImageError
}

// Reference returns the reference path
func (s Selection) Reference() string {
	return s.Paths[s.ReferenceIndex]
}

// ReferenceBounds returns the size of the reference image
func (s Selection) ReferenceBounds() types.ImageBounds {
	return s.Bounds[s.ReferenceIndex]
}

// Readable reports whether the image at index i could be measured
func (s Selection) Readable(i int) bool {
	return s.Bounds[i].Valid()
}

// Targets returns the paths a commit writes: every readable image when they
// share one size, only the reference otherwise.
func (s Selection) Targets() []string {
	if s.IsMultiSize {
		return []string{s.Reference()}
	}
	targets := make([]string, 0, len(s.Paths))
	for i, p := range s.Paths {
		if s.Readable(i) {
			targets = append(targets, p)
		}
	}
	return targets
}

// SelectReference measures every image and picks the reference. Ties on the
// smallest area go to the first occurrence.
func SelectReference(paths []string, dims Dimensioner) (Selection, error) {
	if len(paths) == 0 {
		return Selection{}, ErrNoImages
	}

	sel := Selection{
		Paths:  append([]string(nil), paths...),
		Bounds: make([]types.ImageBounds, len(paths)),
	}

	ref := -1
	for i, p := range paths {
		b, err := dims.Dimensions(p)
		if err == nil && !b.Valid() {
			err = fmt.Errorf("invalid dimensions %s", b)
		}
		if err != nil {
			sel.Unreadable = append(sel.Unreadable, &UnreadableImageError{Path: p, Err: err})
			continue
		}
		sel.Bounds[i] = b

		if ref < 0 {
			ref = i
			continue
		}
		if b != sel.Bounds[ref] {
			sel.IsMultiSize = true
		}
		if b.Area() < sel.Bounds[ref].Area() {
			ref = i
		}
	}

	if ref < 0 {
		return Selection{}, &AllImagesUnreadableError{Failures: sel.Unreadable}
	}

	sel.ReferenceIndex = ref
	return sel, nil
}
