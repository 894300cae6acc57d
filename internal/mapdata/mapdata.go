// Package mapdata is the read-only base-map oracle: tile passability, edge
// weights, region lookup and safe zones. The default map ships embedded as
// TOML; tests construct maps from a Definition directly. The oracle is pure
// and consensus-relevant.
package mapdata

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

//go:embed data/basemap.toml
var embedded []byte

// NoConnection is the edge-weight sentinel for an impossible step.
const NoConnection int64 = -1

// Patch overrides terrain inside an L1 ball. Later patches win.
type Patch struct {
	X          int   `toml:"x"`
	Y          int   `toml:"y"`
	Radius     int   `toml:"radius"`
	Weight     int64 `toml:"weight"`
	Impassable bool  `toml:"impassable"`
	LowPrize   bool  `toml:"low_prize"`
}

// SafeZoneDef is a no-combat zone; with a faction it is also that faction's
// starter zone.
type SafeZoneDef struct {
	X       int    `toml:"x"`
	Y       int    `toml:"y"`
	Radius  int    `toml:"radius"`
	Faction string `toml:"faction"`
}

// Definition is the raw shape of a base map.
type Definition struct {
	// Radius bounds the playable disc around the origin.
	Radius int `toml:"radius"`
	// DefaultWeight is the edge weight of unpatched terrain.
	DefaultWeight int64 `toml:"default_weight"`
	// RegionSize is the side of the coarse grid that tiles the map into
	// regions.
	RegionSize int `toml:"region_size"`

	Patches   []Patch       `toml:"patch"`
	SafeZones []SafeZoneDef `toml:"safe_zone"`
}

type safeZone struct {
	centre  hexgrid.Coord
	radius  int
	faction types.Faction
}

// Map answers terrain queries. Immutable after construction.
type Map struct {
	def   Definition
	zones []safeZone
	sz    *SafeZones
}

// Default loads the embedded base map.
func Default() *Map {
	m, err := FromTOML(embedded)
	if err != nil {
		panic(fmt.Sprintf("mapdata: embedded map: %v", err))
	}
	return m
}

// FromTOML parses a base map document.
func FromTOML(data []byte) (*Map, error) {
	var def Definition
	if err := decodeTOML(data, &def); err != nil {
		return nil, fmt.Errorf("parse base map: %w", err)
	}
	return New(def)
}

func decodeTOML(data []byte, def *Definition) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	_, err := dec.Decode(def)
	return err
}

// New validates a definition and builds the oracle.
func New(def Definition) (*Map, error) {
	if def.Radius <= 0 {
		return nil, fmt.Errorf("map radius must be positive")
	}
	if def.DefaultWeight <= 0 {
		return nil, fmt.Errorf("default weight must be positive")
	}
	if def.RegionSize <= 0 {
		return nil, fmt.Errorf("region size must be positive")
	}
	m := &Map{def: def}
	for _, z := range def.SafeZones {
		f := types.FactionInvalid
		if z.Faction != "" {
			var err error
			f, err = types.FactionFromString(z.Faction)
			if err != nil {
				return nil, fmt.Errorf("safe zone at (%d,%d): %w", z.X, z.Y, err)
			}
		}
		m.zones = append(m.zones, safeZone{
			centre:  hexgrid.Coord{X: z.X, Y: z.Y},
			radius:  z.Radius,
			faction: f,
		})
	}
	m.sz = &SafeZones{m: m}
	return m, nil
}

// IsOnMap reports whether the coordinate lies on the playable disc.
func (m *Map) IsOnMap(c hexgrid.Coord) bool {
	return hexgrid.Distance(hexgrid.Coord{}, c) <= m.def.Radius
}

// tile returns the effective patch values for a coordinate.
func (m *Map) tile(c hexgrid.Coord) (weight int64, passable, lowPrize bool) {
	weight = m.def.DefaultWeight
	passable = true
	for _, p := range m.def.Patches {
		if hexgrid.Distance(hexgrid.Coord{X: p.X, Y: p.Y}, c) > p.Radius {
			continue
		}
		if p.Impassable {
			passable = false
		} else if p.Weight > 0 {
			weight = p.Weight
			passable = true
		}
		if p.LowPrize {
			lowPrize = true
		}
	}
	return weight, passable, lowPrize
}

// IsPassable reports whether the tile can be entered at all.
func (m *Map) IsPassable(c hexgrid.Coord) bool {
	if !m.IsOnMap(c) {
		return false
	}
	_, passable, _ := m.tile(c)
	return passable
}

// EdgeWeight returns the cost of stepping from one tile onto an adjacent
// one, or NoConnection when the step is impossible. The cost is carried by
// the target tile.
func (m *Map) EdgeWeight(from, to hexgrid.Coord) int64 {
	if hexgrid.Distance(from, to) != 1 {
		return NoConnection
	}
	if !m.IsPassable(from) || !m.IsOnMap(to) {
		return NoConnection
	}
	w, passable, _ := m.tile(to)
	if !passable {
		return NoConnection
	}
	return w
}

// IsLowPrize reports whether prospection at the coordinate uses the reduced
// prize probabilities.
func (m *Map) IsLowPrize(c hexgrid.Coord) bool {
	_, _, low := m.tile(c)
	return low
}

// regionOffset keeps coarse coordinates positive in the region id encoding.
const regionOffset = 1 << 20

// RegionID maps a coordinate to its region. Regions are the cells of a
// coarse axial grid of side RegionSize; the id encodes the coarse
// coordinates and is stable across runs.
func (m *Map) RegionID(c hexgrid.Coord) int64 {
	rx := floorDiv(c.X, m.def.RegionSize)
	ry := floorDiv(c.Y, m.def.RegionSize)
	return (int64(rx)+regionOffset)<<21 | (int64(ry) + regionOffset)
}

// SafeZones exposes the safe-zone queries.
func (m *Map) SafeZones() *SafeZones {
	return m.sz
}

// SafeZones answers no-combat and starter-zone queries.
type SafeZones struct {
	m *Map
}

// IsNoCombat reports whether neither targeting nor damage may involve
// fighters at the coordinate.
func (s *SafeZones) IsNoCombat(c hexgrid.Coord) bool {
	for _, z := range s.m.zones {
		if hexgrid.Distance(z.centre, c) <= z.radius {
			return true
		}
	}
	return false
}

// StarterFor returns the faction whose starter zone covers the coordinate,
// or FactionInvalid when none does.
func (s *SafeZones) StarterFor(c hexgrid.Coord) types.Faction {
	for _, z := range s.m.zones {
		if z.faction == types.FactionInvalid {
			continue
		}
		if hexgrid.Distance(z.centre, c) <= z.radius {
			return z.faction
		}
	}
	return types.FactionInvalid
}

// StarterCentre returns the centre of the first starter zone of the given
// faction. Spawning starts its search there.
func (m *Map) StarterCentre(f types.Faction) (hexgrid.Coord, bool) {
	for _, z := range m.zones {
		if z.faction == f {
			return z.centre, true
		}
	}
	return hexgrid.Coord{}, false
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
