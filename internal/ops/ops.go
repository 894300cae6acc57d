// Package ops runs the ongoing-operations phase: counting down busy
// characters and finalising each operation variant when its time is up,
// plus the building-driven operations scheduled by height.
package ops

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/stats"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// ProcessOngoing decrements every busy character and finalises operations
// reaching zero, then finalises building-driven operations due at the
// current height.
func ProcessOngoing(tx *storage.Tx, ctx *gamectx.Context) {
	for _, c := range tx.BusyCharacters() {
		c.SetBusyBlocks(c.BusyBlocks() - 1)
		if c.BusyBlocks() == 0 {
			finaliseCharacterOp(tx, ctx, c)
		}
		c.Release()
	}

	for _, op := range tx.OngoingDueAt(ctx.Height) {
		finaliseBuildingOp(tx, ctx, op)
	}
}

func finaliseCharacterOp(tx *storage.Tx, ctx *gamectx.Context, c *storage.Character) {
	opID := c.Proto().OngoingID
	if opID == 0 {
		panic(fmt.Sprintf("ops: busy character %d has no operation", c.ID()))
	}
	op := tx.GetOngoing(opID)
	if op == nil || op.CharacterID() != c.ID() {
		panic(fmt.Sprintf("ops: operation %d of character %d is inconsistent", opID, c.ID()))
	}

	done := true
	switch op.Proto().Case() {
	case "prospection":
		finishProspection(tx, ctx, c, op.Proto().Prospection)
	case "armour_repair":
		hp := c.MutableHP()
		hp.Armour = c.Regen().MaxArmour
		hp.ArmourMhp = 0
	case "blueprint_copy":
		finishBlueprintCopy(tx, op.Proto().BlueprintCopy)
	case "item_construction":
		done = finishItemConstruction(tx, c, op)
	default:
		panic(fmt.Sprintf("ops: operation %d with variant %q bound to a character",
			op.ID(), op.Proto().Case()))
	}

	if done {
		c.MutableProto().OngoingID = 0
		op.Abandon()
		tx.DeleteOngoing(op.ID())
	} else {
		op.Release()
	}
}

// finishProspection rolls the region's resource, runs the prize lottery and
// records the result.
func finishProspection(tx *storage.Tx, ctx *gamectx.Context, c *storage.Character, p *types.ProspectionOp) {
	region := tx.GetRegion(p.RegionID, ctx.Height)
	defer region.Release()

	if region.Proto().ProspectingCharacter != c.ID() {
		panic(fmt.Sprintf("ops: region %d not locked by prospector %d", p.RegionID, c.ID()))
	}
	region.MutableProto().ProspectingCharacter = 0

	resource := ctx.Cfg.Resources[ctx.Rnd.SelectIndex(len(ctx.Cfg.Resources))]
	amount := ctx.Rnd.UniformInt64(ctx.Cfg.Constants.RegionResources.Min,
		ctx.Cfg.Constants.RegionResources.Max)

	region.MutableProto().Prospection = &types.ProspectionResult{
		Name:     c.Owner(),
		Height:   ctx.Height,
		Resource: resource,
	}
	region.SetResourceLeft(amount)
	region.Touch(ctx.Height)

	pos, onMap := c.Position()
	if !onMap {
		panic(fmt.Sprintf("ops: prospector %d is not on the map", c.ID()))
	}
	lowPrize := ctx.Map.IsLowPrize(pos)

	// Prize lottery: prizes are tried in configured order. Each prize's roll
	// is drawn before its cap is checked, so a hit on a capped prize moves
	// on to the next prize; the first prize actually awarded ends the lottery.
	for _, prize := range ctx.Cfg.Prizes {
		denom := prize.Probability
		if lowPrize {
			denom = prize.LowProbability
		}
		if !ctx.Rnd.ProbabilityRoll(1, denom) {
			continue
		}
		if tx.PrizesFound(prize.Name) >= prize.Number {
			continue
		}
		tx.IncrementPrizesFound(prize.Name)
		awardItem(tx, ctx, c, pos, prize.ItemName())
		break
	}
}

// awardItem puts the item into the character's cargo when it fits and
// drops it at the character's feet otherwise.
func awardItem(tx *storage.Tx, ctx *gamectx.Context, c *storage.Character, pos hexgrid.Coord, name string) {
	item, ok := ctx.Cfg.Items[name]
	if !ok {
		panic(fmt.Sprintf("ops: awarding unknown item %q", name))
	}
	free := c.Proto().CargoSpace - stats.CargoUsed(ctx.Cfg, &c.Proto().Inventory)
	if item.Space <= free {
		c.MutableProto().Inventory.Add(name, 1)
		return
	}
	drop := types.NewInventory()
	drop.Add(name, 1)
	tx.DropLoot(pos, drop)
}

func finishBlueprintCopy(tx *storage.Tx, bc *types.BlueprintCopyOp) {
	inv := tx.GetBuildingInventory(bc.BuildingID, bc.Account)
	inv.Add(gamecfg.BlueprintOriginal(bc.Original), 1)
	inv.Add(gamecfg.BlueprintCopy(bc.Original), bc.Copies)
	tx.SetBuildingInventory(bc.BuildingID, bc.Account, inv)
}

// finishItemConstruction emits output items. From an original blueprint one
// item finishes per step and the operation reschedules until none remain;
// from copies everything finishes at once. Returns whether the operation is
// complete.
func finishItemConstruction(tx *storage.Tx, c *storage.Character, op *storage.Ongoing) bool {
	ic := op.MutableProto().ItemConstruction

	emit := ic.Remaining
	if ic.FromOriginal {
		emit = 1
	}
	inv := tx.GetBuildingInventory(ic.BuildingID, ic.Account)
	inv.Add(ic.Output, emit)
	ic.Remaining -= emit

	if ic.Remaining > 0 {
		c.SetBusyBlocks(int(ic.StepBlocks))
		tx.SetBuildingInventory(ic.BuildingID, ic.Account, inv)
		return false
	}

	// The original blueprint comes back with the last item; copies are
	// consumed.
	if ic.FromOriginal {
		inv.Add(gamecfg.BlueprintOriginal(ic.Blueprint), 1)
	}
	tx.SetBuildingInventory(ic.BuildingID, ic.Account, inv)
	return true
}

func finaliseBuildingOp(tx *storage.Tx, ctx *gamectx.Context, op *storage.Ongoing) {
	b := tx.GetBuilding(op.BuildingID())
	if b == nil {
		panic(fmt.Sprintf("ops: operation %d references missing building %d", op.ID(), op.BuildingID()))
	}

	switch op.Proto().Case() {
	case "building_construction":
		finishBuildingConstruction(ctx, b)
	case "building_config_update":
		b.MutableProto().Config = op.Proto().BuildingConfigUpdate.NewConfig
	default:
		panic(fmt.Sprintf("ops: operation %d with variant %q bound to a building",
			op.ID(), op.Proto().Case()))
	}

	b.Release()
	op.Abandon()
	tx.DeleteOngoing(op.ID())
}

// finishBuildingConstruction promotes a foundation to a finished building
// with full HP and regeneration.
func finishBuildingConstruction(ctx *gamectx.Context, b *storage.Building) {
	if !b.Proto().Foundation {
		panic(fmt.Sprintf("ops: building %d under construction is no foundation", b.ID()))
	}
	derived, err := stats.ForBuilding(ctx.Cfg, b.Type())
	if err != nil {
		panic(fmt.Sprintf("ops: %v", err))
	}

	p := b.MutableProto()
	p.Foundation = false
	p.ConstructionInventory.Clear()
	p.OngoingConstructionID = 0
	p.Combat = derived.Combat
	*b.MutableHP() = derived.HP
	*b.MutableRegen() = derived.Regen
}
