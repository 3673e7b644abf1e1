package mask

import (
	"fmt"
)

// Stack is an ordered sequence of kernel planes.
//
// Index 0 is the largest kernel and bounds the last growth round. The last
// index is the seed kernel where components are discovered.
type Stack []*Plane

// NewStack assembles planes into a validated stack.
func NewStack(planes ...*Plane) (Stack, error) {
	s := Stack(planes)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the stack is non-empty and that every plane shares
// the dimensions of plane 0.
func (s Stack) Validate() error {
	if len(s) == 0 {
		return ErrEmptyStack
	}
	for i, p := range s {
		if p == nil {
			return fmt.Errorf("plane %d is nil: %w", i, ErrInvalidShape)
		}
	}
	w, h := s[0].width, s[0].height
	for i, p := range s[1:] {
		if p.width != w || p.height != h {
			return fmt.Errorf("plane %d is %dx%d, plane 0 is %dx%d: %w",
				i+1, p.width, p.height, w, h, ErrShapeMismatch)
		}
	}
	return nil
}

// Width returns the shared plane width, or 0 for an empty stack.
func (s Stack) Width() int {
	if len(s) == 0 {
		return 0
	}
	return s[0].width
}

// Height returns the shared plane height, or 0 for an empty stack.
func (s Stack) Height() int {
	if len(s) == 0 {
		return 0
	}
	return s[0].height
}

// Seed returns the last plane, where components are discovered.
func (s Stack) Seed() *Plane {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Build converts a flat (planes, height, width) row-major buffer into a
// stack. A cell is foreground if and only if its source value is non-zero.
//
// Parameters:
//   - data: planes*height*width integers, plane-major then row-major.
//   - planes, height, width: the logical shape, each at least 1.
//
// Returns ErrInvalidShape (wrapped) if any extent is non-positive or if
// len(data) does not equal planes*height*width.
func Build(data []int, planes, height, width int) (Stack, error) {
	if err := checkShape(len(data), planes, height, width); err != nil {
		return nil, err
	}
	size := height * width
	stack := make(Stack, planes)
	for i := 0; i < planes; i++ {
		cells := make([]bool, size)
		src := data[i*size : (i+1)*size]
		for j, v := range src {
			cells[j] = v != 0
		}
		stack[i] = &Plane{width: width, height: height, cells: cells}
	}
	return stack, nil
}

// BuildFromScores binarizes per-kernel probability maps into a stack.
//
// A cell is foreground when its score is at least threshold. The layout
// and shape checks match Build.
func BuildFromScores(scores []float32, planes, height, width int, threshold float32) (Stack, error) {
	if err := checkShape(len(scores), planes, height, width); err != nil {
		return nil, err
	}
	size := height * width
	stack := make(Stack, planes)
	for i := 0; i < planes; i++ {
		cells := make([]bool, size)
		for j, v := range scores[i*size : (i+1)*size] {
			cells[j] = v >= threshold
		}
		stack[i] = &Plane{width: width, height: height, cells: cells}
	}
	return stack, nil
}

func checkShape(n, planes, height, width int) error {
	if planes <= 0 || height <= 0 || width <= 0 {
		return fmt.Errorf("shape (%d, %d, %d) must be positive: %w",
			planes, height, width, ErrInvalidShape)
	}
	// Guard the product against overflow before comparing.
	if height > n || width > n || planes > n || planes*height > n/width+1 {
		return fmt.Errorf("buffer of %d values cannot hold shape (%d, %d, %d): %w",
			n, planes, height, width, ErrInvalidShape)
	}
	if n != planes*height*width {
		return fmt.Errorf("buffer of %d values does not match shape (%d, %d, %d): %w",
			n, planes, height, width, ErrInvalidShape)
	}
	return nil
}
