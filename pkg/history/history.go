// Package history keeps completed transforms: an in-memory undo/redo
// stack for the session and an optional SQLite journal that outlives it.
package history

import (
	"errors"
	"sync"

	"github.com/chazu/plantview/pkg/transform"
)

// Recorder accepts completed transform records. Recorders take ownership
// of the record; callers must not keep it.
type Recorder interface {
	Record(rec transform.Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(rec transform.Record) error

func (f RecorderFunc) Record(rec transform.Record) error { return f(rec) }

// Multi records to every recorder and joins their errors. Nil entries are
// skipped.
type Multi []Recorder

func (m Multi) Record(rec transform.Record) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultDepth bounds the undo stack.
const DefaultDepth = 100

// Stack is an undo/redo stack of transform records. Index points one past
// the most recently applied record; records at or beyond it are redoable.
type Stack struct {
	mu    sync.Mutex
	depth int
	recs  []transform.Record
	index int
}

var _ Recorder = (*Stack)(nil)

// NewStack returns a stack holding at most depth records. A depth of zero
// or less means DefaultDepth.
func NewStack(depth int) *Stack {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Stack{depth: depth}
}

// Record pushes rec, discarding anything that could have been redone.
func (s *Stack) Record(rec transform.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs[:s.index], rec)
	if over := len(s.recs) - s.depth; over > 0 {
		s.recs = append(s.recs[:0], s.recs[over:]...)
	}
	s.index = len(s.recs)
	return nil
}

// Len returns the number of records held.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

// UndoAvailable reports whether Undo would do anything.
func (s *Stack) UndoAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// RedoAvailable reports whether Redo would do anything.
func (s *Stack) RedoAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.recs)
}

// Undo restores the previous values of the most recent record and returns
// it. The object's matrix is refreshed; bounding boxes are the caller's
// concern.
func (s *Stack) Undo() (transform.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return transform.Record{}, false
	}
	s.index--
	rec := s.recs[s.index]
	if rec.Object != nil {
		rec.Object.Apply(rec.PreviousValues)
		rec.Object.UpdateMatrix()
	}
	return rec, true
}

// Redo re-applies the values of the next undone record and returns it.
func (s *Stack) Redo() (transform.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.recs) {
		return transform.Record{}, false
	}
	rec := s.recs[s.index]
	s.index++
	if rec.Object != nil {
		rec.Object.Apply(rec.Values)
		rec.Object.UpdateMatrix()
	}
	return rec, true
}

// Reset drops every record.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = nil
	s.index = 0
}
