// Package movement advances moving characters each block: lazy step-list
// computation from waypoints, integer partial-step accumulation against
// faction-aware edge weights, and vehicle blocking with semantics that
// changed at the unblock-vehicles fork.
package movement

import (
	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/pathfinder"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// EdgeWeight is the faction-aware step cost: the base map weight, divided
// inside the faction's own starter zone and blocked inside foreign ones.
func EdgeWeight(m *mapdata.Map, divisor int64, f types.Faction, from, to hexgrid.Coord) int64 {
	w := m.EdgeWeight(from, to)
	if w == mapdata.NoConnection {
		return mapdata.NoConnection
	}
	if g := m.SafeZones().StarterFor(to); g != types.FactionInvalid {
		if g != f {
			return mapdata.NoConnection
		}
		return w / divisor
	}
	return w
}

// pathEdges layers static building obstacles on top of the faction-aware
// weight. Vehicles are deliberately not part of path-finding; they are
// handled step by step.
func pathEdges(ctx *gamectx.Context, dyn *dynobstacles.Index, f types.Faction) pathfinder.EdgeWeightFunc {
	div := ctx.Cfg.Constants.StarterWeightDivisor
	return func(from, to hexgrid.Coord) int64 {
		if dyn.IsBuilding(to) {
			return mapdata.NoConnection
		}
		return EdgeWeight(ctx.Map, div, f, from, to)
	}
}

// ProcessMovement advances every moving character, in ascending id order.
func ProcessMovement(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index) {
	for _, c := range tx.MovingCharacters() {
		stepCharacter(tx, ctx, dyn, c)
		c.Release()
	}
}

func stepCharacter(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, c *storage.Character) {
	mv := c.Proto().Movement
	if mv == nil {
		return
	}
	pos, onMap := c.Position()
	if !onMap || len(mv.Waypoints) == 0 {
		c.MutableProto().Movement = nil
		return
	}

	speed := c.Proto().Speed
	if pct := c.Proto().Effects.SpeedPct; pct != 0 {
		speed = speed * int64(100+pct) / 100
		if speed < 0 {
			speed = 0
		}
	}

	m := c.MutableProto().Movement
	m.PartialStep += speed

	for {
		// Reached the current waypoint: advance to the next one.
		for len(m.Waypoints) > 0 && m.Waypoints[0] == pos {
			m.Waypoints = m.Waypoints[1:]
		}
		if len(m.Waypoints) == 0 {
			c.MutableProto().Movement = nil
			return
		}

		if len(m.Steps) == 0 {
			steps := pathfinder.Find(pos, m.Waypoints[0], pathEdges(ctx, dyn, c.Faction()),
				ctx.Cfg.Constants.NodeSearchBudget)
			if steps == nil {
				// Unreachable waypoint ends the whole movement.
				c.MutableProto().Movement = nil
				return
			}
			m.Steps = steps[1:]
		}

		next := m.Steps[0]
		w := EdgeWeight(ctx.Map, ctx.Cfg.Constants.StarterWeightDivisor, c.Faction(), pos, next)
		if w == mapdata.NoConnection || dyn.IsBuilding(next) {
			// The cached step became invalid, typically a freshly placed
			// building. Recompute next block.
			m.Steps = nil
			m.BlockedTurns++
			if m.BlockedTurns > ctx.Cfg.Constants.BlockedTurnsLimit {
				c.MutableProto().Movement = nil
			}
			return
		}

		if dyn.HasVehicle(next) {
			if ctx.IsActive(params.ForkUnblockVehicles) {
				// Vehicles no longer block; squeezing past one costs the
				// configured penalty on top of the terrain.
				w += ctx.Cfg.Constants.VehicleBlockPenalty
			} else if dyn.HasEnemyVehicle(next, c.Faction()) {
				m.BlockedTurns++
				if m.BlockedTurns > ctx.Cfg.Constants.BlockedTurnsLimit {
					m.Steps = nil
				}
				return
			} else {
				// A friendly vehicle ahead is only a slow-down: wait
				// without counting a blocked turn.
				return
			}
		}

		if m.PartialStep < w {
			return
		}

		m.PartialStep -= w
		dyn.RemoveVehicle(pos, c.Faction())
		dyn.AddVehicle(next, c.Faction())
		c.SetPosition(next)
		pos = next
		m.Steps = m.Steps[1:]
		m.BlockedTurns = 0
	}
}
