package detection

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/pse-mcp/internal/mask"
)

// planeFromRows builds a plane from strings where '1' is foreground.
func planeFromRows(t *testing.T, rows ...string) *mask.Plane {
	t.Helper()
	h := len(rows)
	w := len(rows[0])
	cells := make([]bool, 0, w*h)
	for _, r := range rows {
		if len(r) != w {
			t.Fatalf("ragged rows in test plane")
		}
		for _, c := range r {
			cells = append(cells, c == '1')
		}
	}
	p, err := mask.NewPlane(w, h, cells)
	if err != nil {
		t.Fatalf("NewPlane failed: %v", err)
	}
	return p
}

// filledPlane returns a w x h plane with every cell set to v.
func filledPlane(t *testing.T, w, h int, v bool) *mask.Plane {
	t.Helper()
	cells := make([]bool, w*h)
	for i := range cells {
		cells[i] = v
	}
	p, err := mask.NewPlane(w, h, cells)
	if err != nil {
		t.Fatalf("NewPlane failed: %v", err)
	}
	return p
}

func stackOf(t *testing.T, planes ...*mask.Plane) mask.Stack {
	t.Helper()
	s, err := mask.NewStack(planes...)
	if err != nil {
		t.Fatalf("NewStack failed: %v", err)
	}
	return s
}

func TestGrow_SmallSeedDiscarded(t *testing.T) {
	outer := filledPlane(t, 3, 3, true)
	seed := planeFromRows(t,
		"000",
		"010",
		"000",
	)

	grid, err := Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	want := LabelGrid{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGrow_FloodsToBoundary(t *testing.T) {
	outer := filledPlane(t, 10, 10, true)
	seed := planeFromRows(t,
		"0000000000",
		"0000000000",
		"0000000000",
		"0001111000",
		"0001111000",
		"0001111000",
		"0001111000",
		"0000000000",
		"0000000000",
		"0000000000",
	)

	grid, err := Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	for y, row := range grid {
		for x, l := range row {
			if l != 1 {
				t.Fatalf("cell (%d,%d): got label %d, want 1", x, y, l)
			}
		}
	}
}

func TestGrow_DisjointSeedsKeepBoundary(t *testing.T) {
	// Two 2x5 seeds (area 10 each) in a 5x7 grid. Column 3 is background
	// in every plane and must stay unclaimed.
	outer := planeFromRows(t,
		"1110111",
		"1110111",
		"1110111",
		"1110111",
		"1110111",
	)
	seed := planeFromRows(t,
		"1100011",
		"1100011",
		"1100011",
		"1100011",
		"1100011",
	)

	grid, err := Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	want := LabelGrid{
		{1, 1, 1, 0, 2, 2, 2},
		{1, 1, 1, 0, 2, 2, 2},
		{1, 1, 1, 0, 2, 2, 2},
		{1, 1, 1, 0, 2, 2, 2},
		{1, 1, 1, 0, 2, 2, 2},
	}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGrow_Errors(t *testing.T) {
	if _, err := Grow(nil); !errors.Is(err, mask.ErrEmptyStack) {
		t.Errorf("empty stack: got %v, want ErrEmptyStack", err)
	}

	mismatched := mask.Stack{filledPlane(t, 3, 3, true), filledPlane(t, 4, 3, true)}
	if _, err := Grow(mismatched); !errors.Is(err, mask.ErrShapeMismatch) {
		t.Errorf("mismatched width: got %v, want ErrShapeMismatch", err)
	}
}

func TestGrow_SinglePlane(t *testing.T) {
	seed := planeFromRows(t,
		"11111000",
		"11111000",
		"00000001",
	)

	grid, err := Grow(stackOf(t, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	want := LabelGrid{
		{1, 1, 1, 1, 1, 0, 0, 0},
		{1, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGrow_CarryForwardAcrossRounds(t *testing.T) {
	// Plane 1 adds nothing around the seed, so every seed cell is carried
	// into the round for plane 0, which then opens the right-hand side.
	plane0 := planeFromRows(t,
		"111111111111",
		"111111111111",
	)
	plane1 := planeFromRows(t,
		"111110000000",
		"111110000000",
	)
	seed := planeFromRows(t,
		"111110000000",
		"111110000000",
	)

	grid, err := Grow(stackOf(t, plane0, plane1, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	for y, row := range grid {
		for x, l := range row {
			if l != 1 {
				t.Errorf("cell (%d,%d): got %d, want 1", x, y, l)
			}
		}
	}
}

func TestGrow_ContestedCellGoesToFirstDequeued(t *testing.T) {
	// Seeds A (rows 0-1) and B (rows 3-4) each cover 2x5 = 10 cells. Row 2
	// is open in the outer plane and equidistant from both. A's cells are
	// queued first, so A claims the whole row.
	outer := filledPlane(t, 5, 5, true)
	seed := planeFromRows(t,
		"11111",
		"11111",
		"00000",
		"11111",
		"11111",
	)

	grid, err := Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	want := LabelGrid{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{2, 2, 2, 2, 2},
		{2, 2, 2, 2, 2},
	}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGrow_DroppedSeedIsNotResurrected(t *testing.T) {
	// The small seed at the right (area 2) is dropped; the outer plane joins
	// it to the large seed, which then grows over it with its own label.
	outer := planeFromRows(t,
		"11111111",
		"11111111",
	)
	seed := planeFromRows(t,
		"11111001",
		"11111001",
	)

	grid, err := Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	want := LabelGrid{
		{1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
	}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	for _, r := range Regions(grid) {
		if r.Label == 2 {
			t.Error("dropped seed label 2 must not appear")
		}
	}
}

func TestGrow_Deterministic(t *testing.T) {
	data := syntheticStack(3, 24, 32)

	a, err := GrowBuffer(data, 3, 24, 32)
	if err != nil {
		t.Fatalf("GrowBuffer failed: %v", err)
	}
	b, err := GrowBuffer(data, 3, 24, 32)
	if err != nil {
		t.Fatalf("GrowBuffer failed: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated runs differ (-first +second):\n%s", diff)
	}
}

func TestGrow_LabelsOnlyForeground(t *testing.T) {
	const planes, h, w = 3, 24, 32
	data := syntheticStack(planes, h, w)

	grid, err := GrowBuffer(data, planes, h, w)
	if err != nil {
		t.Fatalf("GrowBuffer failed: %v", err)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if grid[y][x] == 0 {
				continue
			}
			fg := false
			for p := 0; p < planes; p++ {
				if data[p*h*w+y*w+x] != 0 {
					fg = true
				}
			}
			if !fg {
				t.Errorf("cell (%d,%d) labelled %d but background in every plane", x, y, grid[y][x])
			}
		}
	}
}

func TestGrow_Monotonic(t *testing.T) {
	const planes, h, w = 4, 20, 20
	data := syntheticStack(planes, h, w)
	stack, err := mask.Build(data, planes, h, w)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var snapshots []LabelGrid
	var levels []int
	g := NewGrower(WithRoundObserver(func(level int, grid LabelGrid) {
		levels = append(levels, level)
		snapshots = append(snapshots, grid)
	}))
	final, err := g.Grow(stack)
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	if diff := cmp.Diff([]int{3, 2, 1, 0}, levels); diff != "" {
		t.Errorf("round order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(final, snapshots[len(snapshots)-1]); diff != "" {
		t.Errorf("last snapshot differs from result:\n%s", diff)
	}

	for i := 1; i < len(snapshots); i++ {
		prev, cur := snapshots[i-1], snapshots[i]
		for y := range prev {
			for x := range prev[y] {
				if prev[y][x] != 0 && cur[y][x] != prev[y][x] {
					t.Fatalf("round %d changed cell (%d,%d) from %d to %d",
						i, x, y, prev[y][x], cur[y][x])
				}
			}
		}
	}
}

func TestGrow_MinAreaOption(t *testing.T) {
	outer := filledPlane(t, 3, 3, true)
	seed := planeFromRows(t,
		"000",
		"010",
		"000",
	)

	grid, err := NewGrower(WithMinArea(1)).Grow(stackOf(t, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	want := LabelGrid{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}

	if g := NewGrower(WithMinArea(-5)); g.MinArea != 0 {
		t.Errorf("negative MinArea: got %d, want 0", g.MinArea)
	}
	if g := NewGrower(); g.MinArea != DefaultMinArea {
		t.Errorf("default MinArea: got %d, want %d", g.MinArea, DefaultMinArea)
	}
}

func TestGrow_LogsRounds(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	outer := filledPlane(t, 10, 10, true)
	seed := filledPlane(t, 10, 10, true)

	_, err := NewGrower(WithLogger(zap.New(core))).Grow(stackOf(t, outer, outer, seed))
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	if n := logs.FilterMessage("seed kernel labelled").Len(); n != 1 {
		t.Errorf("seed log entries: got %d, want 1", n)
	}
	if n := logs.FilterMessage("kernel round complete").Len(); n != 2 {
		t.Errorf("round log entries: got %d, want 2", n)
	}
}

func TestRegions(t *testing.T) {
	grid := LabelGrid{
		{0, 3, 3},
		{1, 0, 3},
		{1, 1, 0},
	}
	want := []Region{{Label: 1, Area: 3}, {Label: 3, Area: 3}}
	if diff := cmp.Diff(want, Regions(grid)); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
	if got := Regions(LabelGrid{{0, 0}}); len(got) != 0 {
		t.Errorf("empty grid regions: got %v, want none", got)
	}
}

func TestLabelGrid_Clone(t *testing.T) {
	g := LabelGrid{{1, 2}, {3, 4}}
	c := g.Clone()
	c[0][0] = 9
	if g[0][0] != 1 {
		t.Error("Clone shares rows with its source")
	}
	if c.Width() != 2 || c.Height() != 2 {
		t.Errorf("dimensions: got %dx%d, want 2x2", c.Width(), c.Height())
	}
}

// syntheticStack returns nested rectangles with a few blobs, shrinking with
// plane index so the last plane is the smallest kernel.
func syntheticStack(planes, h, w int) []int {
	data := make([]int, planes*h*w)
	for p := 0; p < planes; p++ {
		inset := p
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				in := func(x0, y0, x1, y1 int) bool {
					return x >= x0+inset && x < x1-inset && y >= y0+inset && y < y1-inset
				}
				if in(1, 1, 14, 10) || in(16, 2, 31, 12) || in(3, 13, 28, 23) {
					data[p*h*w+y*w+x] = 1
				}
				// Stray noise that only exists in the outer plane.
				if p == 0 && (x+y)%11 == 0 {
					data[p*h*w+y*w+x] = 1
				}
			}
		}
	}
	return data
}
