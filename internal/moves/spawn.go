package moves

import (
	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/types"
)

// maxSpawnRadius bounds the spawn search once it may leave the starter
// zone.
const maxSpawnRadius = 50

// spawnLocation finds the tile a new character of the faction appears on:
// the free passable tile closest to the starter centre, scanning rings
// outward and each ring in lexicographic order. Before the unblock-spawns
// fork the search never leaves the starter zone.
func spawnLocation(ctx *gamectx.Context, dyn *dynobstacles.Index, f types.Faction) (hexgrid.Coord, bool) {
	centre, ok := ctx.Map.StarterCentre(f)
	if !ok {
		return hexgrid.Coord{}, false
	}

	limit := maxSpawnRadius
	insideOnly := !ctx.IsActive(params.ForkUnblockSpawns)

	for r := 0; r <= limit; r++ {
		var found *hexgrid.Coord
		hexgrid.RangeL1(centre, r, func(c hexgrid.Coord) bool {
			if hexgrid.Distance(centre, c) != r {
				return true
			}
			if insideOnly && ctx.Map.SafeZones().StarterFor(c) != f {
				return true
			}
			if !ctx.Map.IsPassable(c) || !dyn.IsFree(c) {
				return true
			}
			found = &c
			return false
		})
		if found != nil {
			return *found, true
		}
	}
	return hexgrid.Coord{}, false
}
