package detection

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ironsheep/pse-mcp/internal/mask"
)

// DefaultMinArea is the smallest seed component, in pixels, that survives
// into the label grid.
const DefaultMinArea = 10

// LabelGrid holds one label per cell as rows of columns. 0 means the cell
// was never claimed.
type LabelGrid [][]int

// Width returns the number of columns.
func (g LabelGrid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height returns the number of rows.
func (g LabelGrid) Height() int { return len(g) }

// Clone returns a deep copy of the grid.
func (g LabelGrid) Clone() LabelGrid {
	out := make(LabelGrid, len(g))
	for y, row := range g {
		out[y] = append([]int(nil), row...)
	}
	return out
}

// Region summarizes one label of a grid.
type Region struct {
	Label int `json:"label"`
	Area  int `json:"area"`
}

// Regions returns the area of every non-zero label in the grid, sorted by
// label.
func Regions(g LabelGrid) []Region {
	areas := make(map[int]int)
	for _, row := range g {
		for _, l := range row {
			if l != 0 {
				areas[l]++
			}
		}
	}
	regions := make([]Region, 0, len(areas))
	for l, a := range areas {
		regions = append(regions, Region{Label: l, Area: a})
	}
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Label < regions[j].Label
	})
	return regions
}

// RoundObserver is called after each growth round with the index of the
// plane just consumed and a snapshot of the grid. The snapshot belongs to
// the observer.
type RoundObserver func(level int, grid LabelGrid)

// Grower runs progressive kernel growth.
type Grower struct {
	// MinArea is the smallest seed component kept, in pixels.
	MinArea int

	// Logger receives one debug entry per round. Nil disables logging.
	Logger *zap.Logger

	observer RoundObserver
}

// Option configures a Grower.
type Option func(*Grower)

// WithMinArea sets the seed area threshold. Values below 0 are treated as 0.
func WithMinArea(n int) Option {
	return func(g *Grower) {
		if n < 0 {
			n = 0
		}
		g.MinArea = n
	}
}

// WithLogger attaches a logger for per-round debug output.
func WithLogger(l *zap.Logger) Option {
	return func(g *Grower) { g.Logger = l }
}

// WithRoundObserver registers a callback invoked after the seed grid is
// built (level = seed index) and after every growth round.
func WithRoundObserver(fn RoundObserver) Option {
	return func(g *Grower) { g.observer = fn }
}

// NewGrower returns a Grower using DefaultMinArea unless overridden.
func NewGrower(opts ...Option) *Grower {
	g := &Grower{MinArea: DefaultMinArea}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Grow labels a mask stack with the default grower.
func Grow(stack mask.Stack) (LabelGrid, error) {
	return NewGrower().Grow(stack)
}

// GrowBuffer builds a stack from a flat (planes, height, width) buffer and
// grows it with the default grower.
func GrowBuffer(data []int, planes, height, width int) (LabelGrid, error) {
	stack, err := mask.Build(data, planes, height, width)
	if err != nil {
		return nil, err
	}
	return Grow(stack)
}

// Grow labels the seed kernel and grows the surviving components outward
// through every larger kernel.
//
// The seed kernel is the last plane of the stack; growth then consumes
// planes from index len-2 down to 0. The returned grid has the stack's
// height and width, with 0 for cells no surviving seed reached.
//
// # Algorithm
//
//  1. Label the 4-connected components of the seed plane.
//  2. Drop components smaller than MinArea; copy the rest into the grid and
//     queue their cells in raster order.
//  3. For each remaining plane, drain the queue first-in first-out. A cell
//     claims every 4-neighbour that is foreground in this plane and still
//     unlabelled, giving it the same label and queueing it behind the
//     current round. A cell that claims nothing is moved to the next round's
//     queue so a larger kernel can let it expand later.
//  4. Swap queues and continue with the next plane.
//
// A label, once written, is never changed. When two components race for the
// same cell the one dequeued first wins, so results are deterministic.
//
// # Errors
//
//   - mask.ErrEmptyStack if the stack has no planes
//   - mask.ErrShapeMismatch if the planes disagree in size
func (g *Grower) Grow(stack mask.Stack) (LabelGrid, error) {
	if err := stack.Validate(); err != nil {
		return nil, fmt.Errorf("failed to grow kernels: %w", err)
	}
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}

	width, height := stack.Width(), stack.Height()
	seedLevel := len(stack) - 1

	labels, count := LabelComponents(stack[seedLevel])
	areas := componentAreas(labels)

	grid := make(LabelGrid, height)
	queue := make([]Point, 0, width)
	kept := make(map[int]struct{})
	for y := 0; y < height; y++ {
		grid[y] = make([]int, width)
		for x := 0; x < width; x++ {
			l := labels[y*width+x]
			if l == 0 || areas[l] < g.MinArea {
				continue
			}
			grid[y][x] = l
			kept[l] = struct{}{}
			queue = append(queue, Point{X: x, Y: y})
		}
	}
	log.Debug("seed kernel labelled",
		zap.Int("level", seedLevel),
		zap.Int("components", count),
		zap.Int("kept", len(kept)),
		zap.Int("frontier", len(queue)))
	g.observe(seedLevel, grid)

	next := make([]Point, 0, len(queue))
	for level := seedLevel - 1; level >= 0; level-- {
		plane := stack[level]
		claimed := 0
		for head := 0; head < len(queue); head++ {
			p := queue[head]
			label := grid[p.Y][p.X]

			edge := true
			for d := 0; d < 4; d++ {
				nx, ny := p.X+dx[d], p.Y+dy[d]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				if !plane.At(nx, ny) || grid[ny][nx] != 0 {
					continue
				}
				grid[ny][nx] = label
				queue = append(queue, Point{X: nx, Y: ny})
				claimed++
				edge = false
			}
			if edge {
				next = append(next, p)
			}
		}
		log.Debug("kernel round complete",
			zap.Int("level", level),
			zap.Int("claimed", claimed),
			zap.Int("frontier", len(next)))
		g.observe(level, grid)

		queue, next = next, queue[:0]
	}

	return grid, nil
}

func (g *Grower) observe(level int, grid LabelGrid) {
	if g.observer != nil {
		g.observer(level, grid.Clone())
	}
}
