// Package history implements a bounded undo/redo store for opaque
// snapshots.
//
// Snapshots are deep-copied on the way in, so callers may keep mutating the
// values they pass. Saving a new snapshot clears the redo stack; Undo and
// Redo only move snapshots between the two stacks.
package history

import (
	"encoding/json"
)

// DefaultMaxHistory bounds the undo stack when New is given a non-positive size
const DefaultMaxHistory = 50

// CloneFunc returns a deep copy of a snapshot
type CloneFunc[T any] func(T) T

// Manager holds the undo and redo stacks. It is not safe for concurrent use.
type Manager[T any] struct {
	undoStack []T
	redoStack []T
	max       int
	clone     CloneFunc[T]
}

// New creates a manager keeping at most maxHistory undo snapshots. A nil
// clone falls back to JSONClone.
func New[T any](maxHistory int, clone CloneFunc[T]) *Manager[T] {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if clone == nil {
		clone = JSONClone[T]
	}
	return &Manager[T]{max: maxHistory, clone: clone}
}

// Save records a snapshot and invalidates the redo future. The oldest
// snapshot is dropped once the stack exceeds its bound.
func (m *Manager[T]) Save(snapshot T) {
	m.undoStack = m.push(m.undoStack, m.clone(snapshot))
	clear(m.redoStack)
	m.redoStack = m.redoStack[:0]
}

// Undo returns the most recent snapshot and stores current for Redo. It
// reports false when there is nothing to undo.
func (m *Manager[T]) Undo(current T) (T, bool) {
	var prev T
	if len(m.undoStack) == 0 {
		return prev, false
	}

	m.redoStack = m.push(m.redoStack, m.clone(current))
	prev, m.undoStack = pop(m.undoStack)
	return prev, true
}

// Redo is the mirror of Undo
func (m *Manager[T]) Redo(current T) (T, bool) {
	var next T
	if len(m.redoStack) == 0 {
		return next, false
	}

	m.undoStack = m.push(m.undoStack, m.clone(current))
	next, m.redoStack = pop(m.redoStack)
	return next, true
}

// CanUndo reports whether Undo would return a snapshot
func (m *Manager[T]) CanUndo() bool { return len(m.undoStack) > 0 }

// CanRedo reports whether Redo would return a snapshot
func (m *Manager[T]) CanRedo() bool { return len(m.redoStack) > 0 }

// Len returns the sizes of the undo and redo stacks
func (m *Manager[T]) Len() (undo, redo int) {
	return len(m.undoStack), len(m.redoStack)
}

// Max returns the undo bound
func (m *Manager[T]) Max() int { return m.max }

// Clear empties both stacks
func (m *Manager[T]) Clear() {
	clear(m.undoStack)
	clear(m.redoStack)
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
}

func (m *Manager[T]) push(stack []T, v T) []T {
	stack = append(stack, v)
	if over := len(stack) - m.max; over > 0 {
		clear(stack[:over])
		stack = append(stack[:0], stack[over:]...)
	}
	return stack
}

func pop[T any](stack []T) (T, []T) {
	var zero T
	last := len(stack) - 1
	v := stack[last]
	stack[last] = zero
	return v, stack[:last]
}

// JSONClone deep-copies v through a JSON round trip. Only exported fields
// survive; on an encoding failure v is returned unchanged.
func JSONClone[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// SliceClone copies a slice of values
func SliceClone[E any](s []E) []E {
	if s == nil {
		return nil
	}
	return append([]E(nil), s...)
}

// MapClone copies a map of values
func MapClone[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
