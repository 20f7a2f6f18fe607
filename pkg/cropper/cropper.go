package cropper

import (
	"errors"
	"fmt"
	"math"

	"github.com/menta2k/image-cropper/pkg/types"
)

var (
	// ErrInvalidArgument reports a bad ratio, handle or lock kind, or an
	// engine whose image bounds are unknown.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDegenerateBox reports a zero-area box where a ratio had to be
	// derived from it.
	ErrDegenerateBox = errors.New("degenerate crop box")
)

// Engine holds the crop box and ratio lock for one image and computes the
// box produced by each gesture. Every returned box is normalized, at least
// 1px on each axis and inside the image. Operations that fail leave the
// engine unchanged.
type Engine struct {
	bounds types.ImageBounds
	box    types.CropBox
	lock   RatioLock

	start   types.Point
	started bool
}

// NewEngine creates an engine for an image of the given size. The initial
// box covers the whole image and the ratio is unlocked.
func NewEngine(bounds types.ImageBounds) (*Engine, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("%w: image bounds %s", ErrInvalidArgument, bounds)
	}
	return &Engine{bounds: bounds, box: bounds.Full()}, nil
}

// Bounds returns the image size
func (e *Engine) Bounds() types.ImageBounds { return e.bounds }

// Box returns the live crop box
func (e *Engine) Box() types.CropBox { return e.box }

// Lock returns the current ratio lock
func (e *Engine) Lock() RatioLock { return e.lock }

// SizeRatio returns width / height of the live box, 0 if it is degenerate
func (e *Engine) SizeRatio() float64 { return e.box.Ratio() }

func (e *Engine) ready() error {
	if !e.bounds.Valid() {
		return fmt.Errorf("%w: image bounds not set", ErrInvalidArgument)
	}
	return nil
}

// LockRatio changes the ratio lock. LockCurrent derives the ratio from box;
// a box with zero height yields an unlocked lock and ErrDegenerateBox.
func (e *Engine) LockRatio(req LockRequest, box types.CropBox) (RatioLock, error) {
	if err := e.ready(); err != nil {
		return e.lock, err
	}

	switch req.Kind {
	case LockFree:
		e.lock = RatioLock{}
	case LockCurrent:
		box = box.Normalize()
		if box.Height() == 0 {
			e.lock = RatioLock{}
			return e.lock, fmt.Errorf("%w: box %s has zero height", ErrDegenerateBox, box)
		}
		if box.Width() == 0 {
			e.lock = RatioLock{}
			return e.lock, fmt.Errorf("%w: box %s has zero width", ErrDegenerateBox, box)
		}
		e.lock = RatioLock{Locked: true, Ratio: box.Ratio()}
	case LockOriginal:
		if e.bounds.Height <= 0 {
			return e.lock, fmt.Errorf("%w: image %s has zero height", ErrDegenerateBox, e.bounds)
		}
		e.lock = RatioLock{Locked: true, Ratio: e.bounds.Ratio()}
	case LockPreset:
		r := req.Preset.Value()
		if !validRatio(r) {
			return e.lock, fmt.Errorf("%w: ratio %v must be positive", ErrInvalidArgument, r)
		}
		e.lock = RatioLock{Locked: true, Ratio: r}
	default:
		return e.lock, fmt.Errorf("%w: lock kind %s", ErrInvalidArgument, req.Kind)
	}
	return e.lock, nil
}

// SetLock restores a previously captured lock
func (e *Engine) SetLock(lock RatioLock) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !lock.Valid() {
		return fmt.Errorf("%w: ratio %v must be positive", ErrInvalidArgument, lock.Ratio)
	}
	if !lock.Locked {
		lock.Ratio = 0
	}
	e.lock = lock
	return nil
}

// SetBox makes box the live box after clamping it into the image
func (e *Engine) SetBox(box types.CropBox) (types.CropBox, error) {
	if err := e.ready(); err != nil {
		return e.box, err
	}
	e.box = e.sanitize(box)
	return e.box, nil
}

// Conform returns the largest box with the locked ratio that fits inside
// box, centred on it. Without a lock it only clamps box into the image.
func (e *Engine) Conform(box types.CropBox) (types.CropBox, error) {
	if err := e.ready(); err != nil {
		return e.box, err
	}
	box = e.sanitize(box)
	if !e.lock.Locked {
		return box, nil
	}

	r := e.lock.Ratio
	w, h := float64(box.Width()), float64(box.Height())
	if w/h > r {
		w = h * r
	} else {
		h = w / r
	}

	x := centered{mid: float64(box.X1+box.X2) / 2, limit: e.bounds.Width}
	y := centered{mid: float64(box.Y1+box.Y2) / 2, limit: e.bounds.Height}
	wi := clampInt(round(w), 1, box.Width())
	hi := clampInt(round(h), 1, box.Height())
	x1, x2 := x.span(wi)
	y1, y2 := y.span(hi)
	return types.CropBox{X1: x1, Y1: y1, X2: x2, Y2: y2}, nil
}

// BeginNewBox records the anchor of a new-box drag
func (e *Engine) BeginNewBox(start types.Point) error {
	if err := e.ready(); err != nil {
		return err
	}
	e.start = e.clampPoint(start)
	e.started = true
	return nil
}

// Start returns the anchor recorded by BeginNewBox
func (e *Engine) Start() (types.Point, bool) {
	return e.start, e.started
}

// UpdateNewBox returns the box spanned from start to current. Under a ratio
// lock the axis implying the larger box drives and the other is derived.
func (e *Engine) UpdateNewBox(start, current types.Point) (types.CropBox, error) {
	if err := e.ready(); err != nil {
		return e.box, err
	}
	if !finitePoint(start) || !finitePoint(current) {
		return e.box, fmt.Errorf("%w: non-finite point", ErrInvalidArgument)
	}

	s := e.clampPoint(start)
	sx, sy := int(s.X), int(s.Y)
	rawW, rawH := current.X-s.X, current.Y-s.Y

	x := anchored{anchor: sx, dir: sign(rawW), limit: e.bounds.Width}
	if x.room() < 1 {
		x.dir = -x.dir
	}
	y := anchored{anchor: sy, dir: sign(rawH), limit: e.bounds.Height}
	if y.room() < 1 {
		y.dir = -y.dir
	}

	aw, ah := math.Abs(rawW), math.Abs(rawH)
	driveHeight := e.lock.Locked && aw < ah*e.lock.Ratio
	w, h := e.fit(aw, ah, x.room(), y.room(), driveHeight)

	x1, x2 := x.span(w)
	y1, y2 := y.span(h)
	e.box = types.CropBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	return e.box, nil
}

// MoveBox translates box by dx, dy. The translation is clamped per axis so
// the box slides along the image edge without changing size.
func (e *Engine) MoveBox(box types.CropBox, dx, dy float64) (types.CropBox, error) {
	if err := e.ready(); err != nil {
		return e.box, err
	}
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return e.box, fmt.Errorf("%w: non-finite delta", ErrInvalidArgument)
	}

	box = e.sanitize(box)
	w, h := box.Width(), box.Height()
	x1 := clampInt(box.X1+round(dx), 0, e.bounds.Width-w)
	y1 := clampInt(box.Y1+round(dy), 0, e.bounds.Height-h)

	e.box = types.CropBox{X1: x1, Y1: y1, X2: x1 + w, Y2: y1 + h}
	return e.box, nil
}

// ResizeByHandle drags handle by dx, dy. The corner or edge opposite the
// handle stays fixed. Dragging past it does not flip the box: the driven
// axis stops at 1px. HandleMove is forwarded to MoveBox.
func (e *Engine) ResizeByHandle(box types.CropBox, handle Handle, dx, dy float64) (types.CropBox, error) {
	if err := e.ready(); err != nil {
		return e.box, err
	}
	if handle == HandleMove {
		return e.MoveBox(box, dx, dy)
	}
	if !handle.IsResize() {
		return e.box, fmt.Errorf("%w: handle %s cannot resize", ErrInvalidArgument, handle)
	}
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return e.box, fmt.Errorf("%w: non-finite delta", ErrInvalidArgument)
	}

	e.box = e.resize(e.sanitize(box), handle, dx, dy)
	return e.box, nil
}

func (e *Engine) resize(box types.CropBox, handle Handle, dx, dy float64) types.CropBox {
	sx, sy := handle.sides()
	rawW := float64(box.Width()) + float64(sx)*dx
	rawH := float64(box.Height()) + float64(sy)*dy

	x := e.anchorX(box, sx)
	y := e.anchorY(box, sy)

	switch {
	case sx != 0 && sy != 0:
		driveHeight := e.lock.Locked && rawW < rawH*e.lock.Ratio
		w, h := e.fit(rawW, rawH, x.room(), y.room(), driveHeight)
		box.X1, box.X2 = x.span(w)
		box.Y1, box.Y2 = y.span(h)

	case sx != 0:
		if !e.lock.Locked {
			box.X1, box.X2 = x.span(clampInt(round(rawW), 1, x.room()))
			return box
		}
		cy := centered{mid: float64(box.Y1+box.Y2) / 2, limit: e.bounds.Height}
		w, h := e.fit(rawW, 0, x.room(), cy.room(), false)
		box.X1, box.X2 = x.span(w)
		box.Y1, box.Y2 = cy.span(h)

	default:
		if !e.lock.Locked {
			box.Y1, box.Y2 = y.span(clampInt(round(rawH), 1, y.room()))
			return box
		}
		cx := centered{mid: float64(box.X1+box.X2) / 2, limit: e.bounds.Width}
		w, h := e.fit(0, rawH, cx.room(), y.room(), true)
		box.X1, box.X2 = cx.span(w)
		box.Y1, box.Y2 = y.span(h)
	}
	return box
}

// fit turns a desired size into integer pixels that fit maxW x maxH. Under
// a lock the driving axis is legalized first and the other one derived from
// it. The 1px floor wins over the ratio.
func (e *Engine) fit(w, h float64, maxW, maxH int, driveHeight bool) (int, int) {
	if !e.lock.Locked {
		return clampInt(round(w), 1, maxW), clampInt(round(h), 1, maxH)
	}

	r := e.lock.Ratio
	if driveHeight {
		w = h * r
	}
	maxLegalW := math.Min(float64(maxW), float64(maxH)*r)
	w = math.Max(1, math.Min(w, maxLegalW))
	h = w / r

	return clampInt(round(w), 1, maxW), clampInt(round(h), 1, maxH)
}

func (e *Engine) anchorX(box types.CropBox, side int) anchored {
	if side < 0 {
		return anchored{anchor: box.X2, dir: -1, limit: e.bounds.Width}
	}
	return anchored{anchor: box.X1, dir: 1, limit: e.bounds.Width}
}

func (e *Engine) anchorY(box types.CropBox, side int) anchored {
	if side < 0 {
		return anchored{anchor: box.Y2, dir: -1, limit: e.bounds.Height}
	}
	return anchored{anchor: box.Y1, dir: 1, limit: e.bounds.Height}
}

// sanitize normalizes box, clamps it into the image and applies the 1px floor
func (e *Engine) sanitize(box types.CropBox) types.CropBox {
	box = box.Normalize()
	box.X1, box.X2 = clampSpan(box.X1, box.X2, e.bounds.Width)
	box.Y1, box.Y2 = clampSpan(box.Y1, box.Y2, e.bounds.Height)
	return box
}

func (e *Engine) clampPoint(p types.Point) types.Point {
	return types.Point{
		X: float64(clampInt(round(p.X), 0, e.bounds.Width)),
		Y: float64(clampInt(round(p.Y), 0, e.bounds.Height)),
	}
}

// anchored is one axis of a resize: a fixed coordinate and the direction the
// free edge moves away from it.
type anchored struct {
	anchor int
	dir    int
	limit  int
}

func (a anchored) room() int {
	if a.dir < 0 {
		return a.anchor
	}
	return a.limit - a.anchor
}

func (a anchored) span(size int) (int, int) {
	end := a.anchor + a.dir*size
	if end < a.anchor {
		return end, a.anchor
	}
	return a.anchor, end
}

// centered is an axis that grows symmetrically around mid
type centered struct {
	mid   float64
	limit int
}

func (c centered) room() int {
	return int(2 * math.Min(c.mid, float64(c.limit)-c.mid))
}

func (c centered) span(size int) (int, int) {
	lo := clampInt(round(c.mid-float64(size)/2), 0, c.limit-size)
	return lo, lo + size
}

func clampSpan(lo, hi, limit int) (int, int) {
	lo = clampInt(lo, 0, limit)
	hi = clampInt(hi, 0, limit)
	if hi-lo >= 1 {
		return lo, hi
	}
	if lo < limit {
		return lo, lo + 1
	}
	return limit - 1, limit
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) || v > math.MaxInt32 {
		return math.MaxInt32
	}
	if math.IsInf(v, -1) || v < math.MinInt32 {
		return math.MinInt32
	}
	return int(math.Round(v))
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

func finitePoint(p types.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
