// Package session composes the geometry engine, batch selection and undo
// history into the object a presentation layer drives.
//
// The host converts pointer positions to image pixels and calls Press, Drag
// and Release. Each drag is computed from the box captured at Press plus the
// total pointer delta, so the result does not depend on how many intermediate
// events arrived. Commit crops every target image through the ImageLibrary.
package session

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/image-cropper/pkg/batch"
	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/history"
	"github.com/menta2k/image-cropper/pkg/types"
)

// ImageLibrary decodes, crops and writes images on behalf of the session
type ImageLibrary interface {
	batch.Dimensioner
	CropPixels(path string, box types.CropBox) (image.Image, error)
	Save(img image.Image, path string) error
}

// Options configures a Session
type Options struct {
	// MaxHistory bounds the undo stack; 0 uses history.DefaultMaxHistory
	MaxHistory int
	// Tolerance is the handle hit distance in image pixels
	Tolerance float64
	// Namer maps an input path to the path the crop is written to. Nil
	// overwrites the input.
	Namer func(path string) string
	// Lock, when set, is applied before the first gesture
	Lock *cropper.LockRequest
}

// Snapshot is the state stored in the undo history
type Snapshot struct {
	Box       types.CropBox            `json:"box"`
	Lock      cropper.RatioLock        `json:"lock"`
	Committed map[string]types.CropBox `json:"committed,omitempty"`
}

func cloneSnapshot(s Snapshot) Snapshot {
	s.Committed = history.MapClone(s.Committed)
	return s
}

// CommitResult reports what a commit wrote
type CommitResult struct {
	Box types.CropBox
	// Written maps each cropped input path to its output path
	Written map[string]string
	// Skipped lists inputs the commit did not touch: unreadable images and,
	// for multi-size batches, every image except the reference
	Skipped []string
	Failed  map[string]error
}

type gesture struct {
	active bool
	handle cropper.Handle
	origin types.Point
	box    types.CropBox
	lock   cropper.RatioLock
}

// Session is one interactive crop over a batch of images
type Session struct {
	lib       ImageLibrary
	opts      Options
	sel       batch.Selection
	engine    *cropper.Engine
	history   *history.Manager[Snapshot]
	committed map[string]types.CropBox
	drag      gesture
}

// New selects the reference image among paths and prepares an engine for
// it. It fails when no image can be measured.
func New(lib ImageLibrary, paths []string, opts Options) (*Session, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: nil image library", cropper.ErrInvalidArgument)
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = cropper.DefaultTolerance
	}

	sel, err := batch.SelectReference(paths, lib)
	if err != nil {
		return nil, fmt.Errorf("failed to select reference image: %w", err)
	}

	engine, err := cropper.NewEngine(sel.ReferenceBounds())
	if err != nil {
		return nil, fmt.Errorf("failed to create crop engine: %w", err)
	}

	s := &Session{
		lib:       lib,
		opts:      opts,
		sel:       sel,
		engine:    engine,
		history:   history.New[Snapshot](opts.MaxHistory, cloneSnapshot),
		committed: make(map[string]types.CropBox),
	}

	if opts.Lock != nil {
		if err := s.applyLock(*opts.Lock); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Box returns the live crop box
func (s *Session) Box() types.CropBox { return s.engine.Box() }

// Lock returns the current ratio lock
func (s *Session) Lock() cropper.RatioLock { return s.engine.Lock() }

// SizeRatio returns width / height of the live box
func (s *Session) SizeRatio() float64 { return s.engine.SizeRatio() }

// Bounds returns the size of the reference image
func (s *Session) Bounds() types.ImageBounds { return s.engine.Bounds() }

// Selection returns the batch selection
func (s *Session) Selection() batch.Selection { return s.sel }

// Reference returns the path whose coordinates are authoritative
func (s *Session) Reference() string { return s.sel.Reference() }

// Dragging reports whether a gesture is in progress and which handle it drives
func (s *Session) Dragging() (cropper.Handle, bool) {
	return s.drag.handle, s.drag.active
}

// HandleAt hit-tests p against the live box
func (s *Session) HandleAt(p types.Point) cropper.Handle {
	return cropper.HandleAt(s.engine.Box(), p, s.opts.Tolerance)
}

// Tolerance returns the handle hit distance in image pixels
func (s *Session) Tolerance() float64 { return s.opts.Tolerance }

// SetTolerance changes the handle hit distance. Hosts that render the image
// scaled down widen it so handles stay reachable.
func (s *Session) SetTolerance(t float64) {
	if t > 0 {
		s.opts.Tolerance = t
	}
}

// Committed returns a copy of the boxes written by previous commits, keyed by
// input path
func (s *Session) Committed() map[string]types.CropBox {
	return history.MapClone(s.committed)
}

// CommittedBox returns the box last committed for path
func (s *Session) CommittedBox(path string) (types.CropBox, bool) {
	b, ok := s.committed[path]
	return b, ok
}

// Press starts a gesture at p and returns the handle it drives
func (s *Session) Press(p types.Point) (cropper.Handle, error) {
	if s.drag.active {
		s.Cancel()
	}

	handle := s.HandleAt(p)
	if handle == cropper.HandleNew {
		if err := s.engine.BeginNewBox(p); err != nil {
			return cropper.HandleNone, err
		}
	}

	s.drag = gesture{
		active: true,
		handle: handle,
		origin: p,
		box:    s.engine.Box(),
		lock:   s.engine.Lock(),
	}
	return handle, nil
}

// Drag updates the active gesture with the pointer at p
func (s *Session) Drag(p types.Point) (types.CropBox, error) {
	if !s.drag.active {
		return s.engine.Box(), nil
	}

	dx, dy := p.X-s.drag.origin.X, p.Y-s.drag.origin.Y
	switch s.drag.handle {
	case cropper.HandleNew:
		if math.Abs(dx) < 1 && math.Abs(dy) < 1 {
			return s.engine.SetBox(s.drag.box)
		}
		start, _ := s.engine.Start()
		return s.engine.UpdateNewBox(start, p)
	case cropper.HandleMove:
		return s.engine.MoveBox(s.drag.box, dx, dy)
	default:
		return s.engine.ResizeByHandle(s.drag.box, s.drag.handle, dx, dy)
	}
}

// Release ends the gesture at p. A gesture that changed the box is recorded
// in the undo history.
func (s *Session) Release(p types.Point) (types.CropBox, error) {
	if !s.drag.active {
		return s.engine.Box(), nil
	}

	box, err := s.Drag(p)
	before := s.drag
	s.drag = gesture{}
	if err != nil {
		return box, err
	}

	if box != before.box {
		s.history.Save(Snapshot{
			Box:       before.box,
			Lock:      before.lock,
			Committed: s.committed,
		})
	}
	return box, nil
}

// Cancel aborts the active gesture and restores the box it started from
func (s *Session) Cancel() {
	if !s.drag.active {
		return
	}
	s.engine.SetBox(s.drag.box)
	s.drag = gesture{}
}

// LockRatio changes the ratio lock and fits the live box to it. A degenerate
// box unlocks and reports cropper.ErrDegenerateBox.
func (s *Session) LockRatio(req cropper.LockRequest) (cropper.RatioLock, error) {
	s.Cancel()
	prev := s.snapshot()
	err := s.applyLock(req)
	s.record(prev)
	return s.engine.Lock(), err
}

func (s *Session) applyLock(req cropper.LockRequest) error {
	if _, err := s.engine.LockRatio(req, s.engine.Box()); err != nil {
		return fmt.Errorf("failed to lock ratio: %w", err)
	}
	box, err := s.engine.Conform(s.engine.Box())
	if err != nil {
		return err
	}
	_, err = s.engine.SetBox(box)
	return err
}

// SetBox replaces the live box, clamped into the reference image
func (s *Session) SetBox(box types.CropBox) (types.CropBox, error) {
	s.Cancel()
	prev := s.snapshot()
	got, err := s.engine.SetBox(box)
	if err != nil {
		return got, err
	}
	if s.engine.Lock().Locked {
		conformed, err := s.engine.Conform(got)
		if err != nil {
			return got, err
		}
		got, _ = s.engine.SetBox(conformed)
	}
	s.record(prev)
	return got, nil
}

// Undo restores the previous state. It reports false when there is nothing
// to undo.
func (s *Session) Undo() (types.CropBox, bool) {
	s.Cancel()
	prev, ok := s.history.Undo(s.snapshot())
	if !ok {
		return s.engine.Box(), false
	}
	s.restore(prev)
	return s.engine.Box(), true
}

// Redo re-applies a state removed by Undo
func (s *Session) Redo() (types.CropBox, bool) {
	s.Cancel()
	next, ok := s.history.Redo(s.snapshot())
	if !ok {
		return s.engine.Box(), false
	}
	s.restore(next)
	return s.engine.Box(), true
}

// CanUndo reports whether Undo has a state to restore
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether Redo has a state to restore
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Commit crops the live box out of every target image and writes the
// results. Failures on individual images are joined into the returned error;
// the images that succeeded are still reported in the result.
func (s *Session) Commit() (*CommitResult, error) {
	s.Cancel()
	prev := s.snapshot()
	box := s.engine.Box()

	res := &CommitResult{
		Box:     box,
		Written: make(map[string]string),
		Failed:  make(map[string]error),
	}

	targets := s.sel.Targets()
	inTargets := make(map[string]bool, len(targets))
	for _, p := range targets {
		inTargets[p] = true
	}
	for _, p := range s.sel.Paths {
		if !inTargets[p] {
			res.Skipped = append(res.Skipped, p)
		}
	}

	var errs []error
	for _, p := range targets {
		out := s.outputPath(p)

		img, err := s.lib.CropPixels(p, box)
		if err != nil {
			err = fmt.Errorf("failed to crop %s: %w", p, err)
			res.Failed[p] = err
			errs = append(errs, err)
			continue
		}
		if err := s.lib.Save(img, out); err != nil {
			err = fmt.Errorf("failed to save %s: %w", out, err)
			res.Failed[p] = err
			errs = append(errs, err)
			continue
		}

		res.Written[p] = out
		s.committed[p] = box
	}

	if len(res.Written) > 0 {
		s.history.Save(prev)
	}
	return res, errors.Join(errs...)
}

func (s *Session) outputPath(path string) string {
	if s.opts.Namer == nil {
		return path
	}
	return s.opts.Namer(path)
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Box:       s.engine.Box(),
		Lock:      s.engine.Lock(),
		Committed: history.MapClone(s.committed),
	}
}

// record saves prev when the state moved away from it
func (s *Session) record(prev Snapshot) {
	cur := s.snapshot()
	if cur.Box == prev.Box && cur.Lock == prev.Lock {
		return
	}
	s.history.Save(prev)
}

func (s *Session) restore(snap Snapshot) {
	s.engine.SetBox(snap.Box)
	s.engine.SetLock(snap.Lock)
	s.committed = history.MapClone(snap.Committed)
	if s.committed == nil {
		s.committed = make(map[string]types.CropBox)
	}
}
