// Package detection turns kernel mask stacks into text-region label grids.
//
// Scene-text segmentation networks predict several masks per image, each a
// progressively shrunk "kernel" of the text regions. The smallest kernel
// separates neighbouring text lines cleanly but loses their outline; the
// largest kernel keeps the outline but lets lines touch. Progressive growth
// combines the two: components are found in the smallest kernel and then
// grown outward one kernel at a time.
//
// # Algorithm Overview
//
//  1. Seed Labelling: 4-connected components of the last (smallest) plane
//  2. Area Filtering: components below the minimum area are dropped
//  3. Growth Rounds: one breadth-first round per remaining plane, from the
//     second-to-last plane down to plane 0
//  4. Result: a label grid where 0 marks cells no surviving seed reached
//
// # Coordinate System
//
// Grids use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward (columns)
//   - Y increases downward (rows)
//   - LabelGrid is indexed grid[y][x]
//
// # Determinism
//
// Seeds are numbered in raster order and queued in raster order, and each
// round is processed first-in first-out. When two components reach the same
// cell in the same round, the one whose frontier cell was queued first wins.
// Identical inputs therefore always give identical label values.
//
// # Performance Considerations
//
// Every cell is labelled at most once and each queued cell is re-examined
// at most once per plane, so cost is bounded by planes × width × height.
// There is no cancellation; bound the input size to bound latency.
package detection
