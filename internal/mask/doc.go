// Package mask builds the kernel mask stacks consumed by progressive growth.
//
// A stack holds one binary plane per kernel scale. Index 0 is the largest,
// least eroded kernel; the last index is the smallest kernel, which seeds
// the growth. Every plane in a stack shares the same width and height.
//
// # Coordinate System
//
// Planes are stored row-major. Cell (x, y) lives at index y*width + x, with
// the origin at the top-left corner, X increasing rightward and Y increasing
// downward.
//
// # Error Handling
//
// Constructors return one of three sentinel errors, wrapped with context:
//   - ErrInvalidShape: non-positive extent or a buffer/shape size mismatch
//   - ErrEmptyStack: no planes supplied
//   - ErrShapeMismatch: planes disagree on width or height
//
// Use errors.Is to test for them.
//
// # Thread Safety
//
// Planes and stacks are immutable once built and may be shared freely
// between goroutines.
package mask
