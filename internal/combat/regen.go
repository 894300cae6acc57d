package combat

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// Regenerate advances armour and shield of every fighter flagged as
// regenerating. Milli-HP remainders carry over between blocks; the shield
// rate honours the applied shield_regen effect.
func Regenerate(tx *storage.Tx, ctx *gamectx.Context) {
	for _, c := range tx.RegeneratingCharacters() {
		regenOne(c.MutableHP(), c.Regen(), c.Proto().Effects.ShieldRegenPct, c.ID())
		c.Release()
	}
	for _, b := range tx.RegeneratingBuildings() {
		regenOne(b.MutableHP(), b.Regen(), b.Proto().Effects.ShieldRegenPct, b.ID())
		b.Release()
	}
}

func regenOne(hp *types.HP, rd types.RegenData, shieldRegenPct int, id int64) {
	if rd.ArmourRegenMhp > 0 && hp.Armour < rd.MaxArmour {
		advance(&hp.Armour, &hp.ArmourMhp, rd.ArmourRegenMhp, rd.MaxArmour)
	}
	if rd.ShieldRegenMhp > 0 && hp.Shield < rd.MaxShield {
		rate := scalePct(rd.ShieldRegenMhp, shieldRegenPct)
		advance(&hp.Shield, &hp.ShieldMhp, rate, rd.MaxShield)
	}
	if hp.Armour > rd.MaxArmour || hp.Shield > rd.MaxShield {
		panic(fmt.Sprintf("combat: regeneration overshoot on fighter %d", id))
	}
}

func advance(full, milli *int64, rate, max int64) {
	total := *milli + rate
	*full += total / 1000
	*milli = total % 1000
	if *full >= max {
		*full = max
		*milli = 0
	}
}
