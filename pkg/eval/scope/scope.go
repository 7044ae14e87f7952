// Package scope implements the stack of binding frames used for name
// resolution during evaluation.
//
// The bottom frame is the root frame; it lives as long as the stack.
// Comprehensions push a frame for their loop variables and pop it when they
// finish, so that the variables do not leak into the enclosing frames.
package scope

import (
	"sort"

	"github.com/sandcalc/sandcalc/pkg/eval/errs"
)

// Frame maps names to values.
type Frame map[string]any

// Stack is a stack of frames. The zero value is not usable; use New.
type Stack struct {
	// Frames from the outermost to the innermost.
	frames []Frame
}

// New returns a stack with an empty root frame.
func New() *Stack {
	return &Stack{[]Frame{{}}}
}

// Depth returns the number of frames.
func (s *Stack) Depth() int { return len(s.frames) }

// Top returns the innermost frame.
func (s *Stack) Top() Frame { return s.frames[len(s.frames)-1] }

// Root returns the outermost frame.
func (s *Stack) Root() Frame { return s.frames[0] }

// Push pushes an empty frame.
func (s *Stack) Push() { s.frames = append(s.frames, Frame{}) }

// Pop removes the innermost frame. It panics if that would remove the root
// frame.
func (s *Stack) Pop() {
	if len(s.frames) == 1 {
		panic("scope: Pop on root frame")
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// With pushes a frame, calls f and pops the frame, even if f panics.
func (s *Stack) With(f func() error) error {
	s.Push()
	defer s.Pop()
	return f()
}

// Lookup searches the frames from the innermost to the outermost.
func (s *Stack) Lookup(name string) (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get is like Lookup, but returns a NameError when name is not bound.
func (s *Stack) Get(name string) (any, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}
	return nil, NameError(name)
}

// Set binds name in the innermost frame.
func (s *Stack) Set(name string, v any) { s.Top()[name] = v }

// Delete removes name from the innermost frame. Bindings in outer frames are
// not visible to Delete.
func (s *Stack) Delete(name string) error {
	top := s.Top()
	if _, ok := top[name]; !ok {
		return NameError(name)
	}
	delete(top, name)
	return nil
}

// Contains reports whether any frame binds name.
func (s *Stack) Contains(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Keys returns the names bound in any frame, sorted and without duplicates.
func (s *Stack) Keys() []string {
	seen := make(map[string]bool)
	var names []string
	for _, frame := range s.frames {
		for name := range frame {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// NameError returns the error for an unbound name.
func NameError(name string) error {
	return errs.Newf(errs.NameError, "name '%s' is not defined", name)
}
