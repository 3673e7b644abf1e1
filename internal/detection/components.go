package detection

import (
	"github.com/ironsheep/pse-mcp/internal/mask"
)

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"` // Column (0 = leftmost)
	Y int `json:"y"` // Row (0 = topmost)
}

// dx and dy enumerate the 4-neighbourhood: up, down, left, right.
var (
	dx = [4]int{0, 0, -1, 1}
	dy = [4]int{-1, 1, 0, 0}
)

// LabelComponents finds the 4-connected foreground components of a plane.
//
// Returns:
//   - labels: row-major, one entry per cell; 0 is background and components
//     are numbered 1..count in raster discovery order (the first foreground
//     cell met scanning rows top to bottom, left to right gets label 1).
//   - count: number of components found.
//
// # Algorithm
//
// Each unlabelled foreground cell starts a breadth-first fill that labels
// every foreground cell reachable through up/down/left/right steps. The fill
// uses an explicit queue rather than recursion so large components cannot
// exhaust the stack.
func LabelComponents(p *mask.Plane) (labels []int, count int) {
	width, height := p.Width(), p.Height()
	labels = make([]int, width*height)

	queue := make([]Point, 0, 64)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !p.At(x, y) || labels[y*width+x] != 0 {
				continue
			}
			count++
			labels[y*width+x] = count
			queue = append(queue[:0], Point{X: x, Y: y})

			for head := 0; head < len(queue); head++ {
				cur := queue[head]
				for d := 0; d < 4; d++ {
					nx, ny := cur.X+dx[d], cur.Y+dy[d]
					if !p.At(nx, ny) {
						continue
					}
					idx := ny*width + nx
					if labels[idx] != 0 {
						continue
					}
					labels[idx] = count
					queue = append(queue, Point{X: nx, Y: ny})
				}
			}
		}
	}
	return labels, count
}

// componentAreas counts the cells carrying each non-zero label.
func componentAreas(labels []int) map[int]int {
	areas := make(map[int]int)
	for _, l := range labels {
		if l == 0 {
			continue
		}
		areas[l]++
	}
	return areas
}
