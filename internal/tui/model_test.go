package tui

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

type fakeLibrary struct {
	size  types.ImageBounds
	saved []string
}

func (f *fakeLibrary) Dimensions(string) (types.ImageBounds, error) { return f.size, nil }

func (f *fakeLibrary) CropPixels(_ string, box types.CropBox) (image.Image, error) {
	return image.NewNRGBA(image.Rect(0, 0, box.Width(), box.Height())), nil
}

func (f *fakeLibrary) Save(_ image.Image, path string) error {
	f.saved = append(f.saved, path)
	return nil
}

// newTestModel returns a model for a 200x100 image in a 100x53 terminal:
// the thumbnail is 100x50 pixels, two image pixels per thumbnail pixel,
// drawn in 25 rows starting at row 13.
func newTestModel(t *testing.T) (Model, *fakeLibrary) {
	t.Helper()
	lib := &fakeLibrary{size: types.ImageBounds{Width: 200, Height: 100}}
	sess, err := session.New(lib, []string{"ref.png"}, session.Options{})
	require.NoError(t, err)

	src := imaging.New(200, 100, color.NRGBA{200, 100, 50, 255})
	m := New(sess, processing.NewProcessor(), src)
	return update(m, tea.WindowSizeMsg{Width: 100, Height: 53}), lib
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(typ tea.MouseEventType, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Type: typ}
}

func TestViewportMapping(t *testing.T) {
	m, _ := newTestModel(t)
	v := m.view
	require.True(t, v.valid())

	assert.Equal(t, 100, v.cols)
	assert.Equal(t, 50, v.px)
	assert.Equal(t, 25, v.rows)
	assert.Equal(t, 0, v.left)
	assert.Equal(t, 13, v.top)

	assert.Equal(t, types.Point{X: 1, Y: 2}, v.toImage(0, 13))
	assert.Equal(t, types.Point{X: 199, Y: 98}, v.toImage(99, 37))
	assert.True(t, v.contains(99, 37))
	assert.False(t, v.contains(50, 12))
	assert.False(t, v.contains(50, 38))

	assert.Equal(t, 8.0, m.sess.Tolerance())
}

func TestViewportTooSmall(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, tea.WindowSizeMsg{Width: 10, Height: 2})
	assert.False(t, m.view.valid())

	// Mouse events are ignored without a viewport
	m = update(m, mouse(tea.MouseLeft, 5, 1))
	_, dragging := m.sess.Dragging()
	assert.False(t, dragging)
}

func TestPresetKeysAndUndo(t *testing.T) {
	m, _ := newTestModel(t)

	m = update(m, runes("1"))
	assert.Equal(t, types.CropBox{X1: 50, Y1: 0, X2: 150, Y2: 100}, m.sess.Box())
	assert.Equal(t, "ratio 1:1", m.Status())

	m = update(m, runes("f"))
	assert.False(t, m.sess.Lock().Locked)

	m = update(m, runes("u"))
	assert.True(t, m.sess.Lock().Locked)
	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Equal(t, types.CropBox{X1: 0, Y1: 0, X2: 200, Y2: 100}, m.sess.Box())

	m = update(m, runes("u"))
	assert.Equal(t, "nothing to undo", m.Status())

	m = update(m, runes("r"))
	assert.Equal(t, types.CropBox{X1: 50, Y1: 0, X2: 150, Y2: 100}, m.sess.Box())
}

func TestMouseDrawsNewBox(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, runes("1"))

	// Cell (10, 20) is image point (21, 30), left of the square box
	m = update(m, mouse(tea.MouseLeft, 10, 20))
	h, dragging := m.sess.Dragging()
	require.True(t, dragging)
	assert.Equal(t, cropper.HandleNew, h)

	m = update(m, mouse(tea.MouseMotion, 15, 22))
	m = update(m, mouse(tea.MouseLeft, 20, 25))
	m = update(m, mouse(tea.MouseRelease, 20, 25))

	_, dragging = m.sess.Dragging()
	assert.False(t, dragging)
	assert.Equal(t, types.CropBox{X1: 21, Y1: 30, X2: 41, Y2: 50}, m.sess.Box())

	m = update(m, runes("u"))
	assert.Equal(t, types.CropBox{X1: 50, Y1: 0, X2: 150, Y2: 100}, m.sess.Box())
}

func TestPressOutsideImageIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(m, mouse(tea.MouseLeft, 50, 2))
	_, dragging := m.sess.Dragging()
	assert.False(t, dragging)
}

func TestCopyBox(t *testing.T) {
	m, _ := newTestModel(t)

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}
	m = update(m, runes("c"))
	assert.Equal(t, "0,0,200,100", copied)
	assert.False(t, m.failed)

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m = update(m, runes("c"))
	assert.True(t, m.failed)
	assert.Contains(t, m.Status(), "no clipboard")
}

func TestCommit(t *testing.T) {
	m, lib := newTestModel(t)
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.Result())
	assert.Equal(t, []string{"ref.png"}, lib.saved)
	assert.Equal(t, "wrote 1 image(s), skipped 0", m.Status())
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()

	assert.Contains(t, out, "ref.png")
	assert.Contains(t, out, "box 0,0,200,100")
	assert.Equal(t, 100*25, strings.Count(out, halfBlock))

	var empty Model
	assert.Equal(t, "loading...", empty.View())
}

func TestShade(t *testing.T) {
	thumb := imaging.New(10, 10, color.NRGBA{100, 100, 100, 255})
	v := viewport{scaleX: 1, scaleY: 1, cols: 10, px: 10, rows: 5}
	box := types.CropBox{X1: 2, Y1: 2, X2: 8, Y2: 8}

	assert.Equal(t, color.NRGBA{40, 40, 40, 255}, shade(thumb, v, box, 0, 0))
	assert.Equal(t, borderColor, shade(thumb, v, box, 2, 4))
	assert.Equal(t, color.NRGBA{100, 100, 100, 255}, shade(thumb, v, box, 4, 4))
}
