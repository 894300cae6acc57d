// Package validation implements the slow invariant pass that can run after
// every block when the node is started with validation enabled. A
// violation is a consensus-relevant corruption: the process aborts.
package validation

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

func failf(format string, args ...any) {
	panic("validation: " + fmt.Sprintf(format, args...))
}

// Check asserts every cross-entity invariant of the data model.
func Check(tx *storage.Tx, ctx *gamectx.Context) {
	accounts := make(map[string]types.Faction)
	for _, a := range tx.Accounts() {
		accounts[a.Name()] = a.Faction()
	}

	ongoing := make(map[int64]*storage.Ongoing)
	for _, op := range tx.AllOngoing() {
		ongoing[op.ID()] = op
		op.Proto().Case()
	}

	charCount := make(map[string]int)
	charOps := make(map[int64]int64)

	for _, c := range tx.Characters() {
		charCount[c.Owner()]++

		faction, ok := accounts[c.Owner()]
		if !ok {
			failf("character %d owned by unregistered %s", c.ID(), c.Owner())
		}
		if faction != c.Faction() {
			failf("character %d faction %v, owner %s is %v", c.ID(), c.Faction(), c.Owner(), faction)
		}

		_, onMap := c.Position()
		if onMap == (c.InBuilding() != 0) {
			failf("character %d must be either on the map or in a building", c.ID())
		}
		if b := c.InBuilding(); b != 0 {
			bld := tx.GetBuilding(b)
			if bld == nil {
				failf("character %d inside missing building %d", c.ID(), b)
			}
			if bld.Faction() != types.FactionAncient && bld.Faction() != c.Faction() {
				failf("character %d shelters in hostile building %d", c.ID(), b)
			}
			bld.Release()
		}

		opID := c.Proto().OngoingID
		if (c.BusyBlocks() > 0) != (opID != 0) {
			failf("character %d busy_blocks %d with operation %d", c.ID(), c.BusyBlocks(), opID)
		}
		if opID != 0 {
			op, ok := ongoing[opID]
			if !ok {
				failf("character %d references missing operation %d", c.ID(), opID)
			}
			if op.CharacterID() != c.ID() {
				failf("operation %d does not point back to character %d", opID, c.ID())
			}
			charOps[opID] = c.ID()
		}

		checkInventory(fmt.Sprintf("character %d", c.ID()), &c.Proto().Inventory)
		c.Release()
	}

	for owner, n := range charCount {
		if n > ctx.Cfg.Constants.CharacterLimit {
			failf("account %s has %d characters, limit %d", owner, n, ctx.Cfg.Constants.CharacterLimit)
		}
	}

	buildings := make(map[int64]bool)
	for _, b := range tx.Buildings() {
		buildings[b.ID()] = true
		if b.Owner() != "" {
			faction, ok := accounts[b.Owner()]
			if !ok {
				failf("building %d owned by unregistered %s", b.ID(), b.Owner())
			}
			if faction != b.Faction() {
				failf("building %d faction mismatch with owner %s", b.ID(), b.Owner())
			}
		} else if b.Faction() != types.FactionAncient {
			failf("ownerless building %d is not ancient", b.ID())
		}

		if opID := b.Proto().OngoingConstructionID; opID != 0 {
			op, ok := ongoing[opID]
			if !ok {
				failf("building %d references missing construction %d", b.ID(), opID)
			}
			if op.BuildingID() != b.ID() {
				failf("construction %d does not point back to building %d", opID, b.ID())
			}
			if !b.Proto().Foundation {
				failf("finished building %d still has a construction operation", b.ID())
			}
		}
		checkInventory(fmt.Sprintf("building %d", b.ID()), &b.Proto().ConstructionInventory)

		hp, regen := b.HP(), b.Regen()
		if hp.Armour > regen.MaxArmour || hp.Shield > regen.MaxShield {
			failf("building %d over maximum HP", b.ID())
		}
		b.Release()
	}

	for _, op := range ongoing {
		if op.CharacterID() != 0 {
			if _, ok := charOps[op.ID()]; !ok {
				failf("operation %d references character %d which does not claim it",
					op.ID(), op.CharacterID())
			}
		}
		if op.BuildingID() != 0 && !buildings[op.BuildingID()] {
			failf("operation %d references missing building %d", op.ID(), op.BuildingID())
		}
	}

	for _, tile := range tx.GroundLootTiles() {
		inv := tx.GetGroundLoot(tile)
		if inv.Empty() {
			failf("empty loot row at (%d,%d)", tile.X, tile.Y)
		}
		checkInventory(fmt.Sprintf("loot at (%d,%d)", tile.X, tile.Y), &inv)
	}
}

func checkInventory(what string, inv *types.Inventory) {
	for _, name := range inv.Names() {
		n := inv.Quantity(name)
		if n <= 0 || n > types.MaxQuantity {
			failf("%s holds %d of %q", what, n, name)
		}
	}
}
