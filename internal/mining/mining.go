// Package mining depletes prospected regions through the characters
// actively mining in them.
package mining

import (
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/stats"
	"github.com/hexfront/hexfront/internal/storage"
)

// ProcessMining lets every active miner extract a randomised amount of the
// region's resource, capped by remaining cargo space and remaining regional
// resource. Characters iterate in ascending id order; each miner in a
// minable region consumes exactly one rate draw.
func ProcessMining(tx *storage.Tx, ctx *gamectx.Context) {
	for _, c := range tx.MiningCharacters() {
		mineOne(tx, ctx, c)
		c.Release()
	}
}

func mineOne(tx *storage.Tx, ctx *gamectx.Context, c *storage.Character) {
	pos, onMap := c.Position()
	if !onMap {
		c.MutableProto().Mining.Active = false
		return
	}

	region := tx.GetRegion(ctx.Map.RegionID(pos), ctx.Height)
	defer region.Release()

	prosp := region.Proto().Prospection
	if prosp == nil || prosp.Resource == "" || region.ResourceLeft() <= 0 {
		// Nothing (left) to mine here: mining switches itself off.
		c.MutableProto().Mining.Active = false
		return
	}

	rate := c.Proto().Mining.Rate
	amount := ctx.Rnd.UniformInt64(rate.Min, rate.Max)

	item := ctx.Cfg.Items[prosp.Resource]
	if item.Space > 0 {
		free := c.Proto().CargoSpace - stats.CargoUsed(ctx.Cfg, &c.Proto().Inventory)
		if byCargo := free / item.Space; amount > byCargo {
			amount = byCargo
		}
	}
	if amount > region.ResourceLeft() {
		amount = region.ResourceLeft()
	}
	if amount <= 0 {
		return
	}

	c.MutableProto().Inventory.Add(prosp.Resource, amount)
	region.SetResourceLeft(region.ResourceLeft() - amount)
	region.Touch(ctx.Height)
}
