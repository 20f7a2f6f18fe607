package cropper

import (
	"fmt"
	"strings"

	"github.com/menta2k/image-cropper/pkg/types"
)

// Handle names the part of the crop box a gesture drives
type Handle int

const (
	HandleNone Handle = iota
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
	// HandleMove translates the whole box
	HandleMove
	// HandleNew drags out a new box from a start point
	HandleNew
)

// DefaultTolerance is the hit distance in image pixels used by HandleAt
const DefaultTolerance = 8.0

var handleNames = map[Handle]string{
	HandleN:    "n",
	HandleS:    "s",
	HandleE:    "e",
	HandleW:    "w",
	HandleNE:   "ne",
	HandleNW:   "nw",
	HandleSE:   "se",
	HandleSW:   "sw",
	HandleMove: "move",
	HandleNew:  "new",
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return fmt.Sprintf("Handle(%d)", int(h))
}

// ParseHandle maps "n", "se", "move", "new" etc. to a Handle
func ParseHandle(s string) (Handle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for h, name := range handleNames {
		if name == s {
			return h, nil
		}
	}
	return HandleNone, fmt.Errorf("%w: unknown handle %q", ErrInvalidArgument, s)
}

// IsResize reports whether h is one of the eight resize handles
func (h Handle) IsResize() bool {
	return h >= HandleN && h <= HandleSW
}

// IsCorner reports whether h drives both axes
func (h Handle) IsCorner() bool {
	return h >= HandleNE && h <= HandleSW
}

// sides returns which edge moves on each axis: -1 for the low edge (W, N),
// +1 for the high edge (E, S), 0 when the axis is not driven.
func (h Handle) sides() (sx, sy int) {
	switch h {
	case HandleN:
		return 0, -1
	case HandleS:
		return 0, 1
	case HandleE:
		return 1, 0
	case HandleW:
		return -1, 0
	case HandleNE:
		return 1, -1
	case HandleNW:
		return -1, -1
	case HandleSE:
		return 1, 1
	case HandleSW:
		return -1, 1
	}
	return 0, 0
}

// HandleAt returns the handle of box under p. Corners take precedence over
// edges; a point inside the box is HandleMove and anything else HandleNew.
func HandleAt(box types.CropBox, p types.Point, tolerance float64) Handle {
	box = box.Normalize()
	if tolerance < 0 {
		tolerance = 0
	}

	near := func(v float64, edge int) bool {
		d := v - float64(edge)
		return d >= -tolerance && d <= tolerance
	}
	within := func(v float64, lo, hi int) bool {
		return v >= float64(lo)-tolerance && v <= float64(hi)+tolerance
	}

	left, right := near(p.X, box.X1), near(p.X, box.X2)
	top, bottom := near(p.Y, box.Y1), near(p.Y, box.Y2)
	inX, inY := within(p.X, box.X1, box.X2), within(p.Y, box.Y1, box.Y2)

	switch {
	case top && left:
		return HandleNW
	case top && right:
		return HandleNE
	case bottom && left:
		return HandleSW
	case bottom && right:
		return HandleSE
	case top && inX:
		return HandleN
	case bottom && inX:
		return HandleS
	case left && inY:
		return HandleW
	case right && inY:
		return HandleE
	}

	if p.X > float64(box.X1) && p.X < float64(box.X2) &&
		p.Y > float64(box.Y1) && p.Y < float64(box.Y2) {
		return HandleMove
	}
	return HandleNew
}
