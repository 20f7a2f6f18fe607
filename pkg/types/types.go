package types

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Point is a pointer position in image pixel coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ImageBounds is the pixel size of the image being cropped
type ImageBounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive
func (b ImageBounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

// Area returns width * height
func (b ImageBounds) Area() int {
	return b.Width * b.Height
}

// Ratio returns width / height, or 0 when the height is zero
func (b ImageBounds) Ratio() float64 {
	if b.Height <= 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// Full returns a box covering the whole image
func (b ImageBounds) Full() CropBox {
	return CropBox{X1: 0, Y1: 0, X2: b.Width, Y2: b.Height}
}

func (b ImageBounds) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}

// CropBox is a crop region in source pixel coordinates. A normalized box has
// X1 <= X2 and Y1 <= Y2.
type CropBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent of the box
func (c CropBox) Width() int {
	if c.X2 < c.X1 {
		return c.X1 - c.X2
	}
	return c.X2 - c.X1
}

// Height returns the vertical extent of the box
func (c CropBox) Height() int {
	if c.Y2 < c.Y1 {
		return c.Y1 - c.Y2
	}
	return c.Y2 - c.Y1
}

// Normalize orders the coordinates so that X1 <= X2 and Y1 <= Y2
func (c CropBox) Normalize() CropBox {
	if c.X2 < c.X1 {
		c.X1, c.X2 = c.X2, c.X1
	}
	if c.Y2 < c.Y1 {
		c.Y1, c.Y2 = c.Y2, c.Y1
	}
	return c
}

// Ratio returns width / height of the box, 0 if the box is degenerate
func (c CropBox) Ratio() float64 {
	w, h := c.Width(), c.Height()
	if w == 0 || h == 0 {
		return 0
	}
	return float64(w) / float64(h)
}

// Empty reports whether the box has zero extent on either axis
func (c CropBox) Empty() bool {
	return c.Width() == 0 || c.Height() == 0
}

// In reports whether the box is normalized, at least 1px on each axis and
// fully contained in bounds
func (c CropBox) In(bounds ImageBounds) bool {
	return c.X1 >= 0 && c.Y1 >= 0 &&
		c.X2 <= bounds.Width && c.Y2 <= bounds.Height &&
		c.X2-c.X1 >= 1 && c.Y2-c.Y1 >= 1
}

// Rect converts the box to an image.Rectangle
func (c CropBox) Rect() image.Rectangle {
	return image.Rect(c.X1, c.Y1, c.X2, c.Y2)
}

// Translate shifts the box by dx, dy
func (c CropBox) Translate(dx, dy int) CropBox {
	return CropBox{X1: c.X1 + dx, Y1: c.Y1 + dy, X2: c.X2 + dx, Y2: c.Y2 + dy}
}

// String formats the box as "x1,y1,x2,y2"
func (c CropBox) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.X1, c.Y1, c.X2, c.Y2)
}

// ParseCropBox parses "x1,y1,x2,y2". The result is normalized.
func ParseCropBox(s string) (CropBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return CropBox{}, fmt.Errorf("crop box %q: expected x1,y1,x2,y2", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return CropBox{}, fmt.Errorf("crop box %q: %w", s, err)
		}
		v[i] = n
	}

	return CropBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}.Normalize(), nil
}
