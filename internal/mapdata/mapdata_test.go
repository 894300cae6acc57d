package mapdata

import (
	"testing"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

func testMap(t *testing.T, def Definition) *Map {
	t.Helper()
	m, err := New(def)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func baseDef() Definition {
	return Definition{
		Radius:        100,
		DefaultWeight: 1000,
		RegionSize:    10,
	}
}

func TestDefaultMapLoads(t *testing.T) {
	m := Default()
	if !m.IsOnMap(hexgrid.Coord{}) {
		t.Error("origin must be on the default map")
	}
	if m.SafeZones().StarterFor(hexgrid.Coord{X: -1800, Y: 900}) != types.FactionRed {
		t.Error("red starter centre missing")
	}
	if !m.SafeZones().IsNoCombat(hexgrid.Coord{}) {
		t.Error("central sanctuary must be no-combat")
	}
}

func TestIsOnMap(t *testing.T) {
	m := testMap(t, baseDef())
	if !m.IsOnMap(hexgrid.Coord{X: 100, Y: 0}) {
		t.Error("boundary tile rejected")
	}
	if m.IsOnMap(hexgrid.Coord{X: 101, Y: 0}) {
		t.Error("tile beyond radius accepted")
	}
}

func TestEdgeWeight(t *testing.T) {
	def := baseDef()
	def.Patches = []Patch{
		{X: 5, Y: 5, Radius: 0, Impassable: true},
		{X: -5, Y: 0, Radius: 1, Weight: 2500},
	}
	m := testMap(t, def)

	if w := m.EdgeWeight(hexgrid.Coord{}, hexgrid.Coord{X: 1, Y: 0}); w != 1000 {
		t.Errorf("default edge weight = %d", w)
	}
	if w := m.EdgeWeight(hexgrid.Coord{X: 5, Y: 4}, hexgrid.Coord{X: 5, Y: 5}); w != NoConnection {
		t.Errorf("step onto obstacle = %d, want NoConnection", w)
	}
	if w := m.EdgeWeight(hexgrid.Coord{X: -5, Y: -2}, hexgrid.Coord{X: -5, Y: -1}); w != 2500 {
		t.Errorf("patched edge weight = %d", w)
	}
	// Non-adjacent tiles have no edge.
	if w := m.EdgeWeight(hexgrid.Coord{}, hexgrid.Coord{X: 2, Y: 0}); w != NoConnection {
		t.Errorf("non-adjacent edge = %d", w)
	}
	// Stepping off the map is impossible.
	if w := m.EdgeWeight(hexgrid.Coord{X: 100, Y: 0}, hexgrid.Coord{X: 101, Y: 0}); w != NoConnection {
		t.Errorf("edge off the map = %d", w)
	}
}

func TestRegionID(t *testing.T) {
	m := testMap(t, baseDef())

	same := []hexgrid.Coord{{X: 0, Y: 0}, {X: 9, Y: 9}, {X: 5, Y: 0}}
	id := m.RegionID(same[0])
	for _, c := range same[1:] {
		if m.RegionID(c) != id {
			t.Errorf("coordinate %v not in region of origin", c)
		}
	}

	diff := []hexgrid.Coord{{X: 10, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 10}, {X: 0, Y: -1}}
	for _, c := range diff {
		if m.RegionID(c) == id {
			t.Errorf("coordinate %v unexpectedly in region of origin", c)
		}
	}

	// Negative coordinates use floor division: -1 and -10 share a cell,
	// -11 does not.
	a := m.RegionID(hexgrid.Coord{X: -1, Y: 0})
	b := m.RegionID(hexgrid.Coord{X: -10, Y: 0})
	c := m.RegionID(hexgrid.Coord{X: -11, Y: 0})
	if a != b {
		t.Error("-1 and -10 must share a region cell")
	}
	if a == c {
		t.Error("-11 must start a new region cell")
	}
}

func TestSafeZones(t *testing.T) {
	def := baseDef()
	def.SafeZones = []SafeZoneDef{
		{X: 20, Y: 20, Radius: 2, Faction: "red"},
		{X: -20, Y: -20, Radius: 3},
	}
	m := testMap(t, def)
	sz := m.SafeZones()

	if sz.StarterFor(hexgrid.Coord{X: 21, Y: 20}) != types.FactionRed {
		t.Error("red starter tile not recognised")
	}
	if !sz.IsNoCombat(hexgrid.Coord{X: 21, Y: 20}) {
		t.Error("starter zone must be no-combat")
	}
	if sz.StarterFor(hexgrid.Coord{X: -20, Y: -20}) != types.FactionInvalid {
		t.Error("plain no-combat zone must not be a starter")
	}
	if !sz.IsNoCombat(hexgrid.Coord{X: -20, Y: -18}) {
		t.Error("plain no-combat zone not recognised")
	}
	if sz.IsNoCombat(hexgrid.Coord{}) {
		t.Error("origin is not safe in this map")
	}

	centre, ok := m.StarterCentre(types.FactionRed)
	if !ok || centre != (hexgrid.Coord{X: 20, Y: 20}) {
		t.Errorf("StarterCentre = %v, %v", centre, ok)
	}
	if _, ok := m.StarterCentre(types.FactionBlue); ok {
		t.Error("blue has no starter zone in this map")
	}
}

func TestLowPrizeZone(t *testing.T) {
	def := baseDef()
	def.Patches = []Patch{{X: 50, Y: 0, Radius: 5, LowPrize: true}}
	m := testMap(t, def)

	if !m.IsLowPrize(hexgrid.Coord{X: 52, Y: 0}) {
		t.Error("low-prize tile not recognised")
	}
	if m.IsLowPrize(hexgrid.Coord{}) {
		t.Error("origin must use normal prize odds")
	}
	// Low-prize patches do not affect passability or weight.
	if w := m.EdgeWeight(hexgrid.Coord{X: 51, Y: 0}, hexgrid.Coord{X: 52, Y: 0}); w != 1000 {
		t.Errorf("low-prize tile weight = %d", w)
	}
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	bad := []Definition{
		{Radius: 0, DefaultWeight: 1, RegionSize: 1},
		{Radius: 10, DefaultWeight: 0, RegionSize: 1},
		{Radius: 10, DefaultWeight: 1, RegionSize: 0},
	}
	for i, def := range bad {
		if _, err := New(def); err == nil {
			t.Errorf("definition %d accepted", i)
		}
	}

	def := baseDef()
	def.SafeZones = []SafeZoneDef{{X: 0, Y: 0, Radius: 1, Faction: "ancient"}}
	if _, err := New(def); err == nil {
		t.Error("ancient starter zone accepted")
	}
}
