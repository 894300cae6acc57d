package combat

import (
	"sort"

	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// UpdateFame credits the kill to every account on the victim's damage list
// and debits the fame of a killed character's owner. It runs after damage
// dealing and before the victims are removed, so victim rows are still
// readable. Each id is only ever in the dead list once, so fame is awarded
// exactly once per victim.
func UpdateFame(tx *storage.Tx, ctx *gamectx.Context, dead []types.TargetID) {
	killFame := ctx.Cfg.Constants.KillFame

	for _, victim := range sortedRefs(dead) {
		attackers := tx.DamageAttackers(victim)
		if len(attackers) > 0 {
			share := killFame / int64(len(attackers))
			for _, name := range attackers {
				acct := tx.GetAccount(name)
				if acct == nil {
					// Damage lists only ever hold registered accounts.
					panic("combat: damage list references unknown account " + name)
				}
				acct.AddKill()
				acct.AddFame(share)
				acct.Release()
			}
		}

		if victim.Kind == types.KindCharacter {
			if c := tx.GetCharacter(victim.ID); c != nil {
				owner := tx.GetAccount(c.Owner())
				owner.AddFame(-killFame)
				owner.Release()
				c.Release()
			}
		}
	}
}

func sortedRefs(refs []types.TargetID) []types.TargetID {
	res := append([]types.TargetID(nil), refs...)
	sort.Slice(res, func(i, j int) bool {
		return types.TargetLess(res[i], res[j])
	})
	return res
}
