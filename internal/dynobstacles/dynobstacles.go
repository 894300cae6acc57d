// Package dynobstacles maintains the per-block spatial index of vehicles
// and building-covered tiles. It is rebuilt from the store at the start of
// the phases that need it and updated incrementally as vehicles move.
package dynobstacles

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

// Index answers which tiles are occupied by what.
type Index struct {
	// vehicles counts vehicles per faction on each tile. Stacks larger
	// than one only occur while vehicles may pass through each other.
	vehicles map[hexgrid.Coord]map[types.Faction]int
	// buildings marks every tile covered by a building shape.
	buildings map[hexgrid.Coord]bool
}

// New returns an empty index.
func New() *Index {
	return &Index{
		vehicles:  make(map[hexgrid.Coord]map[types.Faction]int),
		buildings: make(map[hexgrid.Coord]bool),
	}
}

// AddVehicle records a vehicle of the faction on the tile.
func (x *Index) AddVehicle(c hexgrid.Coord, f types.Faction) {
	m := x.vehicles[c]
	if m == nil {
		m = make(map[types.Faction]int)
		x.vehicles[c] = m
	}
	m[f]++
}

// RemoveVehicle removes one vehicle of the faction from the tile.
func (x *Index) RemoveVehicle(c hexgrid.Coord, f types.Faction) {
	m := x.vehicles[c]
	if m[f] == 0 {
		panic(fmt.Sprintf("no vehicle of faction %v on (%d,%d)", f, c.X, c.Y))
	}
	m[f]--
	if m[f] == 0 {
		delete(m, f)
	}
	if len(m) == 0 {
		delete(x.vehicles, c)
	}
}

// HasVehicle reports whether any vehicle sits on the tile.
func (x *Index) HasVehicle(c hexgrid.Coord) bool {
	return len(x.vehicles[c]) > 0
}

// HasVehicleOf reports whether a vehicle of the given faction sits on the
// tile.
func (x *Index) HasVehicleOf(c hexgrid.Coord, f types.Faction) bool {
	return x.vehicles[c][f] > 0
}

// HasEnemyVehicle reports whether a vehicle of another faction sits on the
// tile.
func (x *Index) HasEnemyVehicle(c hexgrid.Coord, f types.Faction) bool {
	for g, n := range x.vehicles[c] {
		if g != f && n > 0 {
			return true
		}
	}
	return false
}

// AddBuilding marks the tile as covered by a building.
func (x *Index) AddBuilding(c hexgrid.Coord) {
	x.buildings[c] = true
}

// IsBuilding reports whether a building covers the tile.
func (x *Index) IsBuilding(c hexgrid.Coord) bool {
	return x.buildings[c]
}

// IsFree reports whether the tile has neither a building nor any vehicle.
func (x *Index) IsFree(c hexgrid.Coord) bool {
	return !x.IsBuilding(c) && !x.HasVehicle(c)
}
