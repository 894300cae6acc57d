package combat

import (
	"fmt"
	"sort"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// ProcessKills removes every dead fighter from the world: characters drop
// their goods, buildings spill their aggregated contents and refund their
// bidders. Victims are processed in (kind, id) order regardless of death
// order.
func ProcessKills(tx *storage.Tx, ctx *gamectx.Context, dead []types.TargetID) {
	sorted := append([]types.TargetID(nil), dead...)
	sort.Slice(sorted, func(i, j int) bool {
		return types.TargetLess(sorted[i], sorted[j])
	})

	for _, victim := range sorted {
		switch victim.Kind {
		case types.KindCharacter:
			killCharacter(tx, ctx, victim.ID, true)
		case types.KindBuilding:
			killBuilding(tx, ctx, victim.ID)
		default:
			panic(fmt.Sprintf("combat: unknown victim kind %d", victim.Kind))
		}
	}
}

// killCharacter removes one character. withDrops controls whether its
// belongings fall to the ground; characters destroyed with their building
// drop nothing themselves.
func killCharacter(tx *storage.Tx, ctx *gamectx.Context, id int64, withDrops bool) {
	c := tx.GetCharacter(id)
	if c == nil {
		// Already destroyed together with its building earlier in this
		// kill pass.
		return
	}

	cancelOngoing(tx, ctx, c)

	if withDrops {
		pos, onMap := c.Position()
		if onMap {
			drop := c.Proto().Inventory.Clone()

			// Equipped fitments drop individually, in sorted name order.
			fitments := append([]string(nil), c.Proto().Fitments...)
			sort.Strings(fitments)
			for _, name := range fitments {
				if ctx.Rnd.ProbabilityRoll(ctx.Cfg.Constants.EquippedFitmentDropPercent, 100) {
					drop.Add(name, 1)
				}
			}
			tx.DropLoot(pos, drop)
		}
	}

	ref := c.TargetRef()
	c.Abandon()
	tx.DeleteCharacter(id)
	tx.ClearDamageFor(ref)
}

// cancelOngoing destroys the character's pending operation and releases
// anything it holds, like the region lock of a running prospection.
func cancelOngoing(tx *storage.Tx, ctx *gamectx.Context, c *storage.Character) {
	opID := c.Proto().OngoingID
	if opID == 0 {
		return
	}
	op := tx.GetOngoing(opID)
	if op == nil {
		panic(fmt.Sprintf("combat: character %d references missing operation %d", c.ID(), opID))
	}
	if p := op.Proto().Prospection; p != nil {
		r := tx.GetRegion(p.RegionID, ctx.Height)
		if r.Proto().ProspectingCharacter == c.ID() {
			r.MutableProto().ProspectingCharacter = 0
			r.Touch(ctx.Height)
		}
		r.Release()
	}
	op.Abandon()
	tx.DeleteOngoing(opID)
}

// killBuilding removes one building: aggregate everything stored inside,
// refund reserved bid coins, drop surviving piles at the centre and destroy
// the characters sheltering inside.
func killBuilding(tx *storage.Tx, ctx *gamectx.Context, id int64) {
	b := tx.GetBuilding(id)
	if b == nil {
		panic(fmt.Sprintf("combat: dead building %d does not exist", id))
	}

	pool := types.NewInventory()

	// Stored inventories of every account.
	for _, account := range tx.BuildingInventoryAccounts(id) {
		inv := tx.GetBuildingInventory(id, account)
		pool.Merge(inv)
	}
	tx.DeleteBuildingInventories(id)

	// Unfinished construction materials.
	pool.Merge(b.Proto().ConstructionInventory)

	// Operations running inside: blueprints in use come back to the pool;
	// everything else just stops.
	for _, op := range tx.OngoingForBuilding(id) {
		switch {
		case op.Proto().BlueprintCopy != nil:
			pool.Add(gamecfg.BlueprintOriginal(op.Proto().BlueprintCopy.Original), 1)
		case op.Proto().ItemConstruction != nil:
			ic := op.Proto().ItemConstruction
			if ic.FromOriginal {
				pool.Add(gamecfg.BlueprintOriginal(ic.Blueprint), 1)
			}
		}
		if op.CharacterID() == 0 {
			op.Abandon()
			tx.DeleteOngoing(op.ID())
		} else {
			op.Abandon()
		}
	}

	// Resting orders: bids refund their reserved coins, asks return their
	// reserved items to the pool.
	for _, o := range tx.OrdersForBuilding(id) {
		switch o.Side {
		case storage.OrderBid:
			acct := tx.GetAccount(o.Account)
			acct.AddCoins(o.Quantity * o.Price)
			acct.Release()
		case storage.OrderAsk:
			pool.Add(o.Item, o.Quantity)
		}
		tx.DeleteOrder(o.ID)
	}

	// Characters inside die with the building; their hull, fitments and
	// cargo join the pool. They drop nothing on their own.
	for _, c := range tx.CharactersInBuilding(id) {
		pool.Add(c.Proto().Vehicle, 1)
		for _, fit := range c.Proto().Fitments {
			pool.Add(fit, 1)
		}
		pool.Merge(c.Proto().Inventory)
		cid := c.ID()
		c.Abandon()
		killCharacter(tx, ctx, cid, false)
	}

	// Per-pile drop rolls in ascending item-name order.
	drop := types.NewInventory()
	for _, name := range pool.Names() {
		if ctx.Rnd.ProbabilityRoll(ctx.Cfg.Constants.BuildingInventoryDropPercent, 100) {
			drop.Add(name, pool.Quantity(name))
		}
	}
	tx.DropLoot(b.Centre(), drop)

	ref := b.TargetRef()
	b.Abandon()
	tx.DeleteBuilding(id)
	tx.ClearDamageFor(ref)
}
