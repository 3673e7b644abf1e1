package mask

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape reports a non-positive extent or a buffer whose length
	// does not match its declared shape.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrEmptyStack reports a stack with no planes.
	ErrEmptyStack = errors.New("empty mask stack")

	// ErrShapeMismatch reports planes of differing width or height.
	ErrShapeMismatch = errors.New("mask planes differ in shape")
)

// Plane is a binary foreground/background grid for one kernel scale.
type Plane struct {
	width  int
	height int
	cells  []bool
}

// NewPlane wraps a row-major cell slice of width*height booleans.
//
// The slice is copied, so later changes by the caller do not affect the
// plane.
func NewPlane(width, height int, cells []bool) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("plane %dx%d: %w", width, height, ErrInvalidShape)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("plane %dx%d needs %d cells, got %d: %w",
			width, height, width*height, len(cells), ErrInvalidShape)
	}
	owned := make([]bool, len(cells))
	copy(owned, cells)
	return &Plane{width: width, height: height, cells: owned}, nil
}

// Width returns the number of columns.
func (p *Plane) Width() int { return p.width }

// Height returns the number of rows.
func (p *Plane) Height() int { return p.height }

// At reports whether (x, y) is foreground. Out-of-bounds cells are
// background.
func (p *Plane) At(x, y int) bool {
	if x < 0 || y < 0 || x >= p.width || y >= p.height {
		return false
	}
	return p.cells[y*p.width+x]
}

// Count returns the number of foreground cells.
func (p *Plane) Count() int {
	n := 0
	for _, c := range p.cells {
		if c {
			n++
		}
	}
	return n
}

// Equal reports whether two planes have the same shape and cells.
func (p *Plane) Equal(o *Plane) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.width != o.width || p.height != o.height {
		return false
	}
	for i := range p.cells {
		if p.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Rows returns the plane as a fresh slice of rows, mainly for debugging and
// JSON output.
func (p *Plane) Rows() [][]bool {
	rows := make([][]bool, p.height)
	for y := 0; y < p.height; y++ {
		rows[y] = make([]bool, p.width)
		copy(rows[y], p.cells[y*p.width:(y+1)*p.width])
	}
	return rows
}
