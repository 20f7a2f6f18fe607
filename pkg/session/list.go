package session

import (
	"fmt"
	"slices"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/history"
)

// ImageList is the ordered set of images queued for cropping, with undo
type ImageList struct {
	paths   []string
	history *history.Manager[[]string]
}

// NewImageList creates a list holding paths in order, duplicates removed
func NewImageList(paths []string, maxHistory int) *ImageList {
	l := &ImageList{history: history.New[[]string](maxHistory, history.SliceClone[string])}
	l.paths = dedupe(paths)
	return l
}

// Paths returns a copy of the list
func (l *ImageList) Paths() []string {
	return slices.Clone(l.paths)
}

// Len returns the number of images
func (l *ImageList) Len() int { return len(l.paths) }

// Add appends paths that are not already present. It reports whether the
// list changed.
func (l *ImageList) Add(paths ...string) bool {
	next := dedupe(append(slices.Clone(l.paths), paths...))
	if len(next) == len(l.paths) {
		return false
	}
	l.history.Save(l.paths)
	l.paths = next
	return true
}

// Remove drops path from the list
func (l *ImageList) Remove(path string) bool {
	i := slices.Index(l.paths, path)
	if i < 0 {
		return false
	}
	l.history.Save(l.paths)
	l.paths = slices.Delete(slices.Clone(l.paths), i, i+1)
	return true
}

// Move relocates the image at index from to index to
func (l *ImageList) Move(from, to int) error {
	if from < 0 || from >= len(l.paths) || to < 0 || to >= len(l.paths) {
		return fmt.Errorf("%w: move %d -> %d in list of %d", cropper.ErrInvalidArgument, from, to, len(l.paths))
	}
	if from == to {
		return nil
	}
	l.history.Save(l.paths)

	next := slices.Clone(l.paths)
	p := next[from]
	next = slices.Delete(next, from, from+1)
	l.paths = slices.Insert(next, to, p)
	return nil
}

// Reset replaces the list and forgets its history
func (l *ImageList) Reset(paths []string) {
	l.paths = dedupe(paths)
	l.history.Clear()
}

// Undo restores the previous list
func (l *ImageList) Undo() bool {
	prev, ok := l.history.Undo(l.paths)
	if ok {
		l.paths = prev
	}
	return ok
}

// Redo re-applies a change removed by Undo
func (l *ImageList) Redo() bool {
	next, ok := l.history.Redo(l.paths)
	if ok {
		l.paths = next
	}
	return ok
}

// CanUndo reports whether Undo would change the list
func (l *ImageList) CanUndo() bool { return l.history.CanUndo() }

// CanRedo reports whether Redo would change the list
func (l *ImageList) CanRedo() bool { return l.history.CanRedo() }

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
