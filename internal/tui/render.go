package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/menta2k/image-cropper/pkg/types"
)

// viewport maps terminal cells onto the reference image. Each cell shows two
// vertically stacked thumbnail pixels using the upper half block.
type viewport struct {
	scaleX, scaleY float64 // image pixels per thumbnail pixel
	left, top      int     // screen cell of the thumbnail's top-left corner
	cols, px       int     // thumbnail size in pixels
	rows           int     // thumbnail height in cells
}

func newViewport(img types.ImageBounds, thumb image.Rectangle, width, height, top int) viewport {
	if !img.Valid() || thumb.Empty() || width < 1 || height < 1 {
		return viewport{}
	}
	rows := (thumb.Dy() + 1) / 2
	return viewport{
		scaleX: float64(img.Width) / float64(thumb.Dx()),
		scaleY: float64(img.Height) / float64(thumb.Dy()),
		left:   max(0, (width-thumb.Dx())/2),
		top:    top + max(0, (height-rows)/2),
		cols:   thumb.Dx(),
		px:     thumb.Dy(),
		rows:   rows,
	}
}

func (v viewport) valid() bool { return v.cols > 0 && v.px > 0 }

// contains reports whether cell (col, row) shows part of the image
func (v viewport) contains(col, row int) bool {
	return col >= v.left && col < v.left+v.cols && row >= v.top && row < v.top+v.rows
}

// toImage returns the image point under the centre of cell (col, row)
func (v viewport) toImage(col, row int) types.Point {
	return types.Point{
		X: (float64(col-v.left) + 0.5) * v.scaleX,
		Y: (float64(2*(row-v.top)) + 1) * v.scaleY,
	}
}

// cellSpan is the larger side of a cell measured in image pixels
func (v viewport) cellSpan() float64 {
	return max(v.scaleX, 2*v.scaleY)
}

var (
	borderColor = color.NRGBA{255, 204, 0, 255}
	emptyStyle  = lipgloss.NewStyle()
)

const halfBlock = "▀"

// renderImage draws the thumbnail with the region outside box dimmed and the
// box outline highlighted
func renderImage(thumb image.Image, v viewport, box types.CropBox) string {
	if !v.valid() {
		return ""
	}

	var b strings.Builder
	pad := strings.Repeat(" ", v.left)
	for r := 0; r < v.rows; r++ {
		b.WriteString(pad)
		for c := 0; c < v.cols; c++ {
			style := emptyStyle.Foreground(hex(shade(thumb, v, box, c, 2*r)))
			if 2*r+1 < v.px {
				style = style.Background(hex(shade(thumb, v, box, c, 2*r+1)))
			}
			b.WriteString(style.Render(halfBlock))
		}
		if r < v.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// shade returns the display colour of thumbnail pixel (x, y)
func shade(thumb image.Image, v viewport, box types.CropBox, x, y int) color.NRGBA {
	origin := thumb.Bounds().Min
	c := color.NRGBAModel.Convert(thumb.At(origin.X+x, origin.Y+y)).(color.NRGBA)

	in := func(x, y int) bool {
		if x < 0 || y < 0 || x >= v.cols || y >= v.px {
			return false
		}
		cx := (float64(x) + 0.5) * v.scaleX
		cy := (float64(y) + 0.5) * v.scaleY
		return cx >= float64(box.X1) && cx < float64(box.X2) && cy >= float64(box.Y1) && cy < float64(box.Y2)
	}

	if !in(x, y) {
		return color.NRGBA{dim(c.R), dim(c.G), dim(c.B), 255}
	}
	if !in(x-1, y) || !in(x+1, y) || !in(x, y-1) || !in(x, y+1) {
		return borderColor
	}
	return c
}

func dim(v uint8) uint8 { return uint8(int(v) * 2 / 5) }

func hex(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
