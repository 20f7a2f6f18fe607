// Package tui is a terminal front end for a crop session. The reference
// image is drawn with half-block characters and the box is edited with the
// mouse.
package tui

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
)

const (
	headerRows = 1
	footerRows = 2
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFCC00"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

const helpText = "drag: edit box  f: free  o: original  l: lock current  1-5: presets  u/r: undo/redo  c: copy  enter: crop  q: quit"

// Model is the bubbletea model driving a session
type Model struct {
	sess *session.Session
	proc *processing.Processor
	src  image.Image

	thumb         image.Image
	view          viewport
	width, height int
	baseTolerance float64

	status string
	failed bool
	result *session.CommitResult

	copyText func(string) error
}

// New creates a model for sess. src is the decoded reference image.
func New(sess *session.Session, proc *processing.Processor, src image.Image) Model {
	return Model{
		sess:          sess,
		proc:          proc,
		src:           src,
		baseTolerance: sess.Tolerance(),
		copyText:      clipboard.WriteAll,
	}
}

// Run starts a full screen program for the model and returns the final state
func Run(m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return m, err
	}
	if fm, ok := final.(Model); ok {
		return fm, nil
	}
	return m, nil
}

// Result returns the outcome of the last commit, nil if none happened
func (m Model) Result() *session.CommitResult { return m.result }

// Status returns the message shown in the footer
func (m Model) Status() string { return m.status }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	areaH := height - headerRows - footerRows
	if width < 1 || areaH < 1 {
		m.view = viewport{}
		return
	}

	m.thumb = m.proc.Thumbnail(m.src, width, 2*areaH)
	m.view = newViewport(m.sess.Bounds(), m.thumb.Bounds(), width, areaH, headerRows)
	m.sess.SetTolerance(max(m.baseTolerance, 1.5*m.view.cellSpan()))
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.sess.Cancel()
		return m, tea.Quit
	case "esc":
		m.sess.Cancel()
	case "f":
		m.lock(cropper.FreeForm())
	case "o":
		m.lock(cropper.Original())
	case "l":
		m.lock(cropper.Current())
	case "1", "2", "3", "4", "5":
		presets := cropper.CommonAspectRatios()
		i := int(key[0] - '1')
		if i < len(presets) {
			m.lock(cropper.Preset(presets[i]))
		}
	case "u", "ctrl+z":
		if _, ok := m.sess.Undo(); !ok {
			m.notice("nothing to undo")
		} else {
			m.notice("undone")
		}
	case "r", "ctrl+y":
		if _, ok := m.sess.Redo(); !ok {
			m.notice("nothing to redo")
		} else {
			m.notice("redone")
		}
	case "c":
		box := m.sess.Box().String()
		if err := m.copyText(box); err != nil {
			m.fail(fmt.Errorf("failed to copy to clipboard: %w", err))
		} else {
			m.notice("copied " + box)
		}
	case "enter":
		m.commit()
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if !m.view.valid() {
		return
	}

	p := m.view.toImage(msg.X, msg.Y)
	_, dragging := m.sess.Dragging()

	var err error
	switch msg.Type {
	case tea.MouseLeft:
		if dragging {
			_, err = m.sess.Drag(p)
		} else if m.view.contains(msg.X, msg.Y) {
			_, err = m.sess.Press(p)
		}
	case tea.MouseMotion:
		if dragging {
			_, err = m.sess.Drag(p)
		}
	case tea.MouseRelease:
		if dragging {
			_, err = m.sess.Release(p)
		}
	}
	if err != nil {
		m.fail(err)
	}
}

func (m *Model) lock(req cropper.LockRequest) {
	lock, err := m.sess.LockRatio(req)
	switch {
	case errors.Is(err, cropper.ErrDegenerateBox):
		m.notice("box has no area, ratio unlocked")
	case err != nil:
		m.fail(err)
	default:
		m.notice("ratio " + lock.String())
	}
}

func (m *Model) commit() {
	res, err := m.sess.Commit()
	m.result = res
	if err != nil {
		m.fail(err)
		return
	}
	m.notice(fmt.Sprintf("wrote %d image(s), skipped %d", len(res.Written), len(res.Skipped)))
}

func (m *Model) notice(s string) {
	m.status, m.failed = s, false
}

func (m *Model) fail(err error) {
	m.status, m.failed = err.Error(), true
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	box := m.sess.Box()
	header := titleStyle.Render("image-cropper") + " " + infoStyle.Render(fmt.Sprintf(
		"%s  box %s  %dx%d  ratio %s",
		m.sess.Reference(), box, box.Width(), box.Height(), m.sess.Lock(),
	))

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	if m.view.valid() {
		b.WriteString(strings.Repeat("\n", m.view.top-headerRows))
		b.WriteString(renderImage(m.thumb, m.view, box))
		b.WriteByte('\n')
	}

	status := infoStyle.Render(m.status)
	if m.failed {
		status = errorStyle.Render(m.status)
	}
	b.WriteString(status)
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}
