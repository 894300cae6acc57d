package moves

import (
	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/stats"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

type accountCmd struct {
	Faction string `json:"faction"`
}

func handleRegister(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *accountCmd) {
	if tx.GetAccount(name) != nil {
		ctx.Debugf("account %s already registered", name)
		return
	}
	faction, err := types.FactionFromString(cmd.Faction)
	if err != nil {
		ctx.Debugf("registration of %s rejected: %v", name, err)
		return
	}
	tx.CreateAccount(name, faction).Release()
}

type newCharCmd struct{}

func handleNewCharacter(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, name string) {
	acct := tx.GetAccount(name)
	defer acct.Release()

	if tx.CountCharacters(name) >= ctx.Cfg.Constants.CharacterLimit {
		ctx.Debugf("%s is at the character limit", name)
		return
	}

	pos, ok := spawnLocation(ctx, dyn, acct.Faction())
	if !ok {
		ctx.Debugf("no spawn location for %s", name)
		return
	}

	derived, err := stats.ForCharacter(ctx.Cfg, ctx.Cfg.Constants.StarterVehicle, nil)
	if err != nil {
		panic("moves: starter vehicle misconfigured: " + err.Error())
	}
	proto := types.CharacterProto{
		Vehicle:    ctx.Cfg.Constants.StarterVehicle,
		Combat:     derived.Combat,
		Mining:     derived.Mining,
		Speed:      derived.Speed,
		CargoSpace: derived.Cargo,
	}
	c := tx.CreateCharacter(name, acct.Faction(), pos, derived.HP, derived.Regen, proto)
	dyn.AddVehicle(pos, acct.Faction())
	c.Release()
}

type waypointsCmd struct {
	ID        int64    `json:"id"`
	Waypoints [][2]int `json:"wp"`
}

const maxWaypoints = 100

func handleWaypoints(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *waypointsCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if _, onMap := c.Position(); !onMap {
		ctx.Debugf("character %d cannot move inside a building", cmd.ID)
		return
	}
	if c.BusyBlocks() > 0 {
		ctx.Debugf("busy character %d cannot move", cmd.ID)
		return
	}
	if len(cmd.Waypoints) > maxWaypoints {
		ctx.Debugf("character %d: too many waypoints (%d)", cmd.ID, len(cmd.Waypoints))
		return
	}

	if len(cmd.Waypoints) == 0 {
		c.MutableProto().Movement = nil
		return
	}

	wps := make([]hexgrid.Coord, 0, len(cmd.Waypoints))
	for _, w := range cmd.Waypoints {
		coord := hexgrid.Coord{X: w[0], Y: w[1]}
		if !ctx.Map.IsOnMap(coord) {
			ctx.Debugf("character %d: waypoint (%d,%d) off the map", cmd.ID, w[0], w[1])
			return
		}
		wps = append(wps, coord)
	}
	c.MutableProto().Movement = &types.Movement{Waypoints: wps}
}

type mineCmd struct {
	ID int64 `json:"id"`
	On bool  `json:"on"`
}

func handleMine(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *mineCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if c.Proto().Mining == nil {
		ctx.Debugf("character %d has no mining rig", cmd.ID)
		return
	}
	if _, onMap := c.Position(); !onMap && cmd.On {
		ctx.Debugf("character %d cannot mine inside a building", cmd.ID)
		return
	}
	c.MutableProto().Mining.Active = cmd.On
}

type prospectCmd struct {
	ID int64 `json:"id"`
}

func handleProspect(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *prospectCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	pos, onMap := c.Position()
	if !onMap || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot prospect now", cmd.ID)
		return
	}
	v := ctx.Cfg.Vehicles[c.Proto().Vehicle]
	if v == nil || !v.Prospecting {
		ctx.Debugf("character %d has no prospecting gear", cmd.ID)
		return
	}

	regionID := ctx.Map.RegionID(pos)
	region := tx.GetRegion(regionID, ctx.Height)
	defer region.Release()

	if region.Proto().Prospection != nil {
		ctx.Debugf("region %d is already prospected", regionID)
		return
	}
	if region.Proto().ProspectingCharacter != 0 {
		ctx.Debugf("region %d is being prospected by %d", regionID, region.Proto().ProspectingCharacter)
		return
	}

	op := tx.CreateOngoing(0, c.ID(), 0, types.OngoingProto{
		Prospection: &types.ProspectionOp{RegionID: regionID},
	})
	region.MutableProto().ProspectingCharacter = c.ID()
	region.Touch(ctx.Height)
	c.SetBusyBlocks(ctx.Cfg.Constants.ProspectingBlocks)
	c.MutableProto().OngoingID = op.ID()
	op.Release()
}

type lootCmd struct {
	ID    int64            `json:"id"`
	Items map[string]int64 `json:"items"`
}

func handlePickUp(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *lootCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if pos, onMap := c.Position(); onMap {
		transferLoot(ctx, c, cmd.Items,
			func() types.Inventory { return tx.GetGroundLoot(pos) },
			func(inv types.Inventory) { tx.SetGroundLoot(pos, inv) }, true)
	} else {
		b := c.InBuilding()
		transferLoot(ctx, c, cmd.Items,
			func() types.Inventory { return tx.GetBuildingInventory(b, name) },
			func(inv types.Inventory) { tx.SetBuildingInventory(b, name, inv) }, true)
	}
}

func handleDrop(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *lootCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if pos, onMap := c.Position(); onMap {
		transferLoot(ctx, c, cmd.Items,
			func() types.Inventory { return tx.GetGroundLoot(pos) },
			func(inv types.Inventory) { tx.SetGroundLoot(pos, inv) }, false)
	} else {
		b := c.InBuilding()
		transferLoot(ctx, c, cmd.Items,
			func() types.Inventory { return tx.GetBuildingInventory(b, name) },
			func(inv types.Inventory) { tx.SetBuildingInventory(b, name, inv) }, false)
	}
}

// transferLoot moves the requested item quantities between the character's
// cargo and an external inventory. Requests are processed item by item in
// sorted order; each item clamps to what is actually available and, when
// picking up, to the remaining cargo space.
func transferLoot(ctx *gamectx.Context, c *storage.Character, items map[string]int64,
	get func() types.Inventory, set func(types.Inventory), pickUp bool) {

	if len(items) == 0 {
		return
	}
	req := types.Inventory{Items: items}
	ext := get()
	changed := false

	for _, itemName := range req.Names() {
		want := req.Quantity(itemName)
		if want <= 0 || want > types.MaxQuantity {
			ctx.Debugf("character %d: bad quantity %d of %q", c.ID(), want, itemName)
			continue
		}
		item, known := ctx.Cfg.Items[itemName]
		if !known {
			ctx.Debugf("character %d: unknown item %q", c.ID(), itemName)
			continue
		}

		if pickUp {
			if have := ext.Quantity(itemName); want > have {
				want = have
			}
			if item.Space > 0 {
				free := c.Proto().CargoSpace - stats.CargoUsed(ctx.Cfg, &c.Proto().Inventory)
				if byCargo := free / item.Space; want > byCargo {
					want = byCargo
				}
			}
			if want <= 0 || !c.Proto().Inventory.CanAdd(itemName, want) {
				continue
			}
			c.MutableProto().Inventory.Add(itemName, want)
			ext.Add(itemName, -want)
			changed = true
		} else {
			if have := c.Proto().Inventory.Quantity(itemName); want > have {
				want = have
			}
			if want <= 0 || !ext.CanAdd(itemName, want) {
				continue
			}
			c.MutableProto().Inventory.Add(itemName, -want)
			ext.Add(itemName, want)
			changed = true
		}
	}
	if changed {
		set(ext)
	}
}

type fitmentsCmd struct {
	ID       int64    `json:"id"`
	Fitments []string `json:"fitments"`
}

// handleFitments refits a character inside a building: currently equipped
// modules come off into the account's building inventory, the requested
// ones come out of it.
func handleFitments(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *fitmentsCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	buildingID := c.InBuilding()
	if buildingID == 0 || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot refit now", cmd.ID)
		return
	}
	v := ctx.Cfg.Vehicles[c.Proto().Vehicle]
	if len(cmd.Fitments) > v.FitmentSlots {
		ctx.Debugf("character %d: %d fitments exceed %d slots", cmd.ID, len(cmd.Fitments), v.FitmentSlots)
		return
	}

	// Stage the swap against the building inventory.
	inv := tx.GetBuildingInventory(buildingID, name)
	for _, old := range c.Proto().Fitments {
		inv.Add(old, 1)
	}
	for _, want := range cmd.Fitments {
		if _, ok := ctx.Cfg.Fitments[want]; !ok {
			ctx.Debugf("character %d: unknown fitment %q", cmd.ID, want)
			return
		}
		if inv.Quantity(want) < 1 {
			ctx.Debugf("character %d: fitment %q not available", cmd.ID, want)
			return
		}
		inv.Add(want, -1)
	}

	derived, err := stats.ForCharacter(ctx.Cfg, c.Proto().Vehicle, cmd.Fitments)
	if err != nil {
		ctx.Debugf("character %d: %v", cmd.ID, err)
		return
	}

	tx.SetBuildingInventory(buildingID, name, inv)
	p := c.MutableProto()
	p.Fitments = append([]string(nil), cmd.Fitments...)
	p.Combat = derived.Combat
	p.Mining = derived.Mining
	p.Speed = derived.Speed
	p.CargoSpace = derived.Cargo

	// New maxima; current HP carries over clamped.
	*c.MutableRegen() = derived.Regen
	hp := c.MutableHP()
	if hp.Armour > derived.Regen.MaxArmour {
		hp.Armour = derived.Regen.MaxArmour
	}
	if hp.Shield > derived.Regen.MaxShield {
		hp.Shield = derived.Regen.MaxShield
	}
}

type repairCmd struct {
	ID int64 `json:"id"`
}

// repairBlocks is how long an armour repair keeps the character busy.
const repairBlocks = 5

func handleRepair(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *repairCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	if c.InBuilding() == 0 || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot repair now", cmd.ID)
		return
	}
	if c.HP().Armour >= c.Regen().MaxArmour {
		ctx.Debugf("character %d needs no repair", cmd.ID)
		return
	}

	op := tx.CreateOngoing(0, c.ID(), 0, types.OngoingProto{
		ArmourRepair: &types.ArmourRepairOp{},
	})
	c.SetBusyBlocks(repairBlocks)
	c.MutableProto().OngoingID = op.ID()
	op.Release()
}

type copyBpCmd struct {
	ID        int64  `json:"id"`
	Blueprint string `json:"bp"`
	Copies    int64  `json:"n"`
}

// copyBlocksPerCopy is the busy time per blueprint copy made.
const copyBlocksPerCopy = 10

func handleCopyBlueprint(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *copyBpCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	buildingID := c.InBuilding()
	if buildingID == 0 || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot copy blueprints now", cmd.ID)
		return
	}
	if cmd.Copies <= 0 || cmd.Copies > 100 {
		ctx.Debugf("character %d: bad copy count %d", cmd.ID, cmd.Copies)
		return
	}

	original := gamecfg.BlueprintOriginal(cmd.Blueprint)
	inv := tx.GetBuildingInventory(buildingID, name)
	if inv.Quantity(original) < 1 {
		ctx.Debugf("character %d: no original blueprint %q", cmd.ID, original)
		return
	}
	inv.Add(original, -1)
	tx.SetBuildingInventory(buildingID, name, inv)

	op := tx.CreateOngoing(0, c.ID(), 0, types.OngoingProto{
		BlueprintCopy: &types.BlueprintCopyOp{
			BuildingID: buildingID,
			Account:    name,
			Original:   cmd.Blueprint,
			Copies:     cmd.Copies,
		},
	})
	c.SetBusyBlocks(int(cmd.Copies) * copyBlocksPerCopy)
	c.MutableProto().OngoingID = op.ID()
	op.Release()
}

type buildItemCmd struct {
	ID        int64  `json:"id"`
	Output    string `json:"o"`
	Count     int64  `json:"n"`
	UseCopies bool   `json:"copies"`
}

func handleBuildItem(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *buildItemCmd) {
	c := ownCharacter(tx, ctx, name, cmd.ID)
	if c == nil {
		return
	}
	defer c.Release()

	buildingID := c.InBuilding()
	if buildingID == 0 || c.BusyBlocks() > 0 {
		ctx.Debugf("character %d cannot construct items now", cmd.ID)
		return
	}
	base, ok := ctx.Cfg.Constructibles[cmd.Output]
	if !ok {
		ctx.Debugf("character %d: %q is not constructible", cmd.ID, cmd.Output)
		return
	}
	if cmd.Count <= 0 || cmd.Count > 100 {
		ctx.Debugf("character %d: bad construction count %d", cmd.ID, cmd.Count)
		return
	}

	stepBlocks := int64(ctx.Cfg.Items[cmd.Output].Complexity)
	inv := tx.GetBuildingInventory(buildingID, name)

	if cmd.UseCopies {
		copies := gamecfg.BlueprintCopy(base)
		if inv.Quantity(copies) < cmd.Count {
			ctx.Debugf("character %d: %d blueprint copies missing", cmd.ID, cmd.Count)
			return
		}
		inv.Add(copies, -cmd.Count)
	} else {
		original := gamecfg.BlueprintOriginal(base)
		if inv.Quantity(original) < 1 {
			ctx.Debugf("character %d: no original blueprint %q", cmd.ID, original)
			return
		}
		inv.Add(original, -1)
	}
	tx.SetBuildingInventory(buildingID, name, inv)

	op := tx.CreateOngoing(0, c.ID(), 0, types.OngoingProto{
		ItemConstruction: &types.ItemConstructionOp{
			BuildingID:   buildingID,
			Account:      name,
			Blueprint:    base,
			Output:       cmd.Output,
			Remaining:    cmd.Count,
			StepBlocks:   stepBlocks,
			FromOriginal: !cmd.UseCopies,
		},
	})
	// From copies everything finishes after a single step; from the
	// original the operation reschedules itself per item.
	c.SetBusyBlocks(int(stepBlocks))
	c.MutableProto().OngoingID = op.ID()
	op.Release()
}
