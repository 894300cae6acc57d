package pathfinder

import (
	"testing"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/mapdata"
)

// uniformEdges weights every step 1000 inside a disc of radius 50.
func uniformEdges(from, to hexgrid.Coord) int64 {
	if hexgrid.Distance(hexgrid.Coord{}, to) > 50 {
		return mapdata.NoConnection
	}
	return 1000
}

func TestTrivialPath(t *testing.T) {
	c := hexgrid.Coord{X: 3, Y: 3}
	steps := Find(c, c, uniformEdges, 0)
	if len(steps) != 1 || steps[0] != c {
		t.Errorf("path to self = %v", steps)
	}
}

func TestStraightPath(t *testing.T) {
	steps := Find(hexgrid.Coord{}, hexgrid.Coord{X: 5, Y: 0}, uniformEdges, 0)
	if len(steps) != 6 {
		t.Fatalf("path length = %d, want 6", len(steps))
	}
	if steps[0] != (hexgrid.Coord{}) || steps[5] != (hexgrid.Coord{X: 5, Y: 0}) {
		t.Errorf("endpoints wrong: %v", steps)
	}
	for i := 1; i < len(steps); i++ {
		if hexgrid.Distance(steps[i-1], steps[i]) != 1 {
			t.Errorf("non-adjacent step %v -> %v", steps[i-1], steps[i])
		}
	}
}

func TestPathAroundWall(t *testing.T) {
	// Wall on x=2 except a gap at y=4.
	edges := func(from, to hexgrid.Coord) int64 {
		if hexgrid.Distance(hexgrid.Coord{}, to) > 50 {
			return mapdata.NoConnection
		}
		if to.X == 2 && to.Y != 4 {
			return mapdata.NoConnection
		}
		return 1000
	}
	steps := Find(hexgrid.Coord{}, hexgrid.Coord{X: 4, Y: 0}, edges, 0)
	if steps == nil {
		t.Fatal("no path found around wall")
	}
	through := false
	for _, s := range steps {
		if s.X == 2 {
			if s.Y != 4 {
				t.Errorf("path crosses wall at %v", s)
			}
			through = true
		}
	}
	if !through {
		t.Error("path never crosses the x=2 line")
	}
}

func TestCheaperDetourWins(t *testing.T) {
	// Direct tiles cost 5000, a parallel row costs 1000.
	edges := func(from, to hexgrid.Coord) int64 {
		if hexgrid.Distance(hexgrid.Coord{}, to) > 50 {
			return mapdata.NoConnection
		}
		if to.Y == 0 && to.X >= 1 && to.X <= 3 {
			return 5000
		}
		return 1000
	}
	steps := Find(hexgrid.Coord{}, hexgrid.Coord{X: 4, Y: 0}, edges, 0)
	if steps == nil {
		t.Fatal("no path found")
	}
	var cost int64
	for i := 1; i < len(steps); i++ {
		cost += edges(steps[i-1], steps[i])
	}
	if cost >= 4*5000 {
		t.Errorf("search did not take the cheap detour, cost = %d", cost)
	}
}

func TestUnreachableTarget(t *testing.T) {
	edges := func(from, to hexgrid.Coord) int64 {
		if hexgrid.Distance(hexgrid.Coord{}, to) > 3 {
			return mapdata.NoConnection
		}
		return 1000
	}
	if steps := Find(hexgrid.Coord{}, hexgrid.Coord{X: 10, Y: 0}, edges, 0); steps != nil {
		t.Errorf("found path off the island: %v", steps)
	}
}

func TestNodeBudget(t *testing.T) {
	if steps := Find(hexgrid.Coord{}, hexgrid.Coord{X: 40, Y: 0}, uniformEdges, 10); steps != nil {
		t.Error("budget of 10 nodes cannot reach distance 40")
	}
}

func TestDeterministicTieBreak(t *testing.T) {
	// Many equal-cost paths exist on a uniform grid; the result must be
	// identical across runs.
	first := Find(hexgrid.Coord{}, hexgrid.Coord{X: 6, Y: -3}, uniformEdges, 0)
	for i := 0; i < 10; i++ {
		again := Find(hexgrid.Coord{}, hexgrid.Coord{X: 6, Y: -3}, uniformEdges, 0)
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d vs %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: step %d differs: %v vs %v", i, j, again[j], first[j])
			}
		}
	}
}
