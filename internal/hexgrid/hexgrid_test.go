package hexgrid

import "testing"

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Coord
		want int
	}{
		{Coord{0, 0}, Coord{0, 0}, 0},
		{Coord{0, 0}, Coord{1, 0}, 1},
		{Coord{0, 0}, Coord{1, -1}, 1},
		{Coord{0, 0}, Coord{1, 1}, 2},
		{Coord{0, 0}, Coord{-2, 3}, 3},
		{Coord{-1, -1}, Coord{1, 1}, 4},
		{Coord{5, -3}, Coord{5, -3}, 0},
	}
	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Errorf("Distance(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Distance(tc.b, tc.a); got != tc.want {
			t.Errorf("Distance(%v, %v) = %d, want %d", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestNeighbours(t *testing.T) {
	c := Coord{X: 2, Y: -1}
	for _, n := range c.Neighbours() {
		if Distance(c, n) != 1 {
			t.Errorf("neighbour %v of %v has distance %d", n, c, Distance(c, n))
		}
	}

	seen := make(map[Coord]bool)
	for _, n := range c.Neighbours() {
		if seen[n] {
			t.Errorf("duplicate neighbour %v", n)
		}
		seen[n] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct neighbours, got %d", len(seen))
	}
}

func TestRangeL1(t *testing.T) {
	centre := Coord{X: 1, Y: 2}
	var visited []Coord
	RangeL1(centre, 2, func(c Coord) bool {
		visited = append(visited, c)
		return true
	})

	// All visited coordinates are inside the ball and in strict order.
	for i, c := range visited {
		if Distance(centre, c) > 2 {
			t.Errorf("coordinate %v outside radius 2", c)
		}
		if i > 0 && !Less(visited[i-1], c) {
			t.Errorf("iteration order violated at %v -> %v", visited[i-1], c)
		}
	}

	// The radius-2 ball of a hex grid has 19 tiles.
	if len(visited) != 19 {
		t.Errorf("expected 19 tiles, got %d", len(visited))
	}
}

func TestRangeL1EarlyStop(t *testing.T) {
	count := 0
	RangeL1(Coord{}, 3, func(Coord) bool {
		count++
		return count < 5
	})
	if count != 5 {
		t.Errorf("expected early stop after 5 tiles, got %d", count)
	}
}

func TestRotate60(t *testing.T) {
	c := Coord{X: 2, Y: -1}
	if got := c.Rotate60(0); got != c {
		t.Errorf("identity rotation changed %v to %v", c, got)
	}
	if got := c.Rotate60(6); got != c {
		t.Errorf("full turn changed %v to %v", c, got)
	}
	if got := c.Rotate60(-1); got != c.Rotate60(5) {
		t.Errorf("negative rotation mismatch: %v vs %v", got, c.Rotate60(5))
	}
	for n := 0; n < 6; n++ {
		r := c.Rotate60(n)
		if Distance(Coord{}, r) != Distance(Coord{}, c) {
			t.Errorf("rotation %d changed distance: %v", n, r)
		}
	}
	// The six rotations of a non-origin coordinate are distinct.
	seen := make(map[Coord]bool)
	for n := 0; n < 6; n++ {
		seen[c.Rotate60(n)] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 distinct rotations, got %d", len(seen))
	}
}

func TestLess(t *testing.T) {
	if !Less(Coord{0, 5}, Coord{1, -5}) {
		t.Error("x must dominate the ordering")
	}
	if !Less(Coord{1, -5}, Coord{1, 0}) {
		t.Error("y must break ties")
	}
	if Less(Coord{1, 1}, Coord{1, 1}) {
		t.Error("Less must be irreflexive")
	}
}
