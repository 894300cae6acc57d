package moves

import (
	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

type enterCmd struct {
	ID       int64 `json:"id"`
	Building int64 `json:"b"`
}

// handleEnterIntent records (or clears) the wish to enter a building. The
// actual entry happens in the building-entry phase.
func handleEnterIntent(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *enterCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if _, onMap := c.Position(); !onMap {
		ctx.Debugf("character %d is already inside a building", cmd.ID)
		return
	}
	if cmd.Building == 0 {
		c.SetEnterBuilding(0)
		return
	}

	b := tx.GetBuilding(cmd.Building)
	if b == nil {
		ctx.Debugf("character %d: building %d does not exist", cmd.ID, cmd.Building)
		return
	}
	defer b.Release()
	if !buildingAdmits(b, c.Faction()) {
		ctx.Debugf("character %d: building %d belongs to another faction", cmd.ID, cmd.Building)
		return
	}
	c.SetEnterBuilding(cmd.Building)
}

// buildingAdmits reports whether characters of the faction may shelter in
// the building.
func buildingAdmits(b *storage.Building, f types.Faction) bool {
	if b.Proto().Foundation {
		return false
	}
	return b.Faction() == types.FactionAncient || b.Faction() == f
}

// ProcessEnterBuildings attempts every pending building entry. It runs
// after moves and movement so that an entry requested in this very block
// can succeed, and before target acquisition so that entering shelters
// from this round's targeting.
func ProcessEnterBuildings(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index) {
	for _, c := range tx.EnteringCharacters() {
		tryEnter(tx, ctx, dyn, c)
		c.Release()
	}
}

func tryEnter(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, c *storage.Character) {
	pos, onMap := c.Position()
	if !onMap {
		c.SetEnterBuilding(0)
		return
	}
	b := tx.GetBuilding(c.EnterBuilding())
	if b == nil || !buildingAdmits(b, c.Faction()) {
		// The building vanished or turned hostile; the intent dies.
		if b != nil {
			b.Release()
		}
		c.SetEnterBuilding(0)
		return
	}
	defer b.Release()

	if c.BusyBlocks() > 0 {
		return
	}
	if hexgrid.Distance(pos, b.Centre()) > ctx.Cfg.Constants.EnterBuildingRange {
		// Still on the way; keep the intent for the next block.
		return
	}

	dyn.RemoveVehicle(pos, c.Faction())
	c.SetInBuilding(b.ID())
	c.SetTarget(nil)
	p := c.MutableProto()
	p.Movement = nil
	if p.Mining != nil {
		p.Mining.Active = false
	}
}

type exitCmd struct {
	ID int64 `json:"id"`
}

// exitSearchRadius bounds the search for a free tile around a building
// when leaving it.
const exitSearchRadius = 10

func handleExit(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, name string, cmd *exitCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	buildingID := c.InBuilding()
	if buildingID == 0 || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot exit now", cmd.ID)
		return
	}
	b := tx.GetBuilding(buildingID)
	if b == nil {
		panic("moves: character inside a missing building")
	}
	defer b.Release()

	pos, ok := exitLocation(ctx, dyn, b.Centre())
	if !ok {
		ctx.Debugf("character %d: no free tile around building %d", cmd.ID, buildingID)
		return
	}
	c.SetPosition(pos)
	dyn.AddVehicle(pos, c.Faction())
}

// exitLocation picks the free passable tile closest to the building
// centre, rings outward in lexicographic order.
func exitLocation(ctx *gamectx.Context, dyn *dynobstacles.Index, centre hexgrid.Coord) (hexgrid.Coord, bool) {
	for r := 1; r <= exitSearchRadius; r++ {
		var found *hexgrid.Coord
		hexgrid.RangeL1(centre, r, func(c hexgrid.Coord) bool {
			if hexgrid.Distance(centre, c) != r {
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

type constructCmd struct {
	ID       int64  `json:"id"`
	Type     string `json:"t"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rot"`
}

// handleConstruct starts a building construction: the character pays the
// cost from its cargo, a foundation appears and an operation matures it.
func handleConstruct(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, name string, cmd *constructCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	pos, onMap := c.Position()
	if !onMap || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot construct now", cmd.ID)
		return
	}
	bt, ok := ctx.Cfg.Buildings[cmd.Type]
	if !ok || bt.Construction == nil {
		ctx.Debugf("character %d: type %q is not constructible", cmd.ID, cmd.Type)
		return
	}
	if cmd.Rotation < 0 || cmd.Rotation > 5 {
		ctx.Debugf("character %d: bad rotation %d", cmd.ID, cmd.Rotation)
		return
	}
	centre := hexgrid.Coord{X: cmd.X, Y: cmd.Y}
	if hexgrid.Distance(pos, centre) > ctx.Cfg.Constants.EnterBuildingRange {
		ctx.Debugf("character %d too far from the construction site", cmd.ID)
		return
	}
	tiles := ctx.Cfg.BuildingTiles(cmd.Type, centre, cmd.Rotation)
	for _, tile := range tiles {
		// The site must be clear, including of the builder's own vehicle.
		if !ctx.Map.IsPassable(tile) || !dyn.IsFree(tile) {
			ctx.Debugf("character %d: site tile (%d,%d) not free", cmd.ID, tile.X, tile.Y)
			return
		}
		if ctx.Map.SafeZones().IsNoCombat(tile) {
			ctx.Debugf("character %d: cannot build inside a safe zone", cmd.ID)
			return
		}
	}

	// The full cost must be in cargo.
	cost := types.Inventory{Items: bt.Construction.Cost}
	for _, item := range cost.Names() {
		if c.Proto().Inventory.Quantity(item) < cost.Quantity(item) {
			ctx.Debugf("character %d: missing %s for construction", cmd.ID, item)
			return
		}
	}

	construction := types.NewInventory()
	mut := c.MutableProto()
	for _, item := range cost.Names() {
		mut.Inventory.Add(item, -cost.Quantity(item))
		construction.Add(item, cost.Quantity(item))
	}

	foundation := tx.CreateBuilding(cmd.Type, name, c.Faction(), centre,
		types.HP{Armour: bt.Armour / 10},
		types.RegenData{MaxArmour: bt.Armour / 10},
		types.BuildingProto{
			Foundation:            true,
			ConstructionInventory: construction,
			Rotation:              cmd.Rotation,
		})
	op := tx.CreateOngoing(ctx.Height+uint64(bt.Construction.Blocks), 0, foundation.ID(),
		types.OngoingProto{
			BuildingConstruction: &types.BuildingConstructionOp{BuildingID: foundation.ID()},
		})
	foundation.MutableProto().OngoingConstructionID = op.ID()
	op.Release()

	for _, tile := range tiles {
		dyn.AddBuilding(tile)
	}
	foundation.Release()
}

type bldConfigCmd struct {
	Building   int64 `json:"b"`
	ServiceFee *int  `json:"service_fee"`
	DexFee     *int  `json:"dex_fee"`
}

// configUpdateBlocks is the delay before a building config change applies.
const configUpdateBlocks = 10

func handleBuildingConfig(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *bldConfigCmd) {
	b := tx.GetBuilding(cmd.Building)
	if b == nil {
		ctx.Debugf("%s configures missing building %d", name, cmd.Building)
		return
	}
	defer b.Release()

	if b.Owner() != name || b.Proto().Foundation {
		ctx.Debugf("%s may not configure building %d", name, cmd.Building)
		return
	}

	next := b.Proto().Config
	if cmd.ServiceFee != nil {
		if *cmd.ServiceFee < 0 || *cmd.ServiceFee > 100 {
			ctx.Debugf("%s: bad service fee %d", name, *cmd.ServiceFee)
			return
		}
		next.ServiceFeePct = *cmd.ServiceFee
	}
	if cmd.DexFee != nil {
		if *cmd.DexFee < 0 || *cmd.DexFee > 100 {
			ctx.Debugf("%s: bad dex fee %d", name, *cmd.DexFee)
			return
		}
		next.DexFeePct = *cmd.DexFee
	}

	op := tx.CreateOngoing(ctx.Height+configUpdateBlocks, 0, b.ID(), types.OngoingProto{
		BuildingConfigUpdate: &types.BuildingConfigUpdateOp{
			BuildingID: b.ID(),
			NewConfig:  next,
		},
	})
	op.Release()
}
