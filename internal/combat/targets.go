package combat

import (
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/storage"
)

// posIndex maps tiles to the fighters standing on them, preserving the
// (kind, id) load order within each tile.
type posIndex map[hexgrid.Coord][]*Fighter

func indexByPosition(fighters []*Fighter) posIndex {
	idx := make(posIndex)
	for _, f := range fighters {
		p := f.Position()
		idx[p] = append(idx[p], f)
	}
	return idx
}

// FindTargets re-acquires combat targets for every armed fighter. For each
// one it searches the modified-range L1 ball for the closest enemies and
// picks one uniformly via the random stream; fighters inside no-combat
// zones neither target nor get targeted. Independently it flags whether a
// friendly is in range of the fighter's friendly-area attacks.
func FindTargets(tx *storage.Tx, ctx *gamectx.Context) {
	fighters := LoadFighters(tx)
	defer ReleaseFighters(fighters)

	idx := indexByPosition(fighters)
	sz := ctx.Map.SafeZones()

	for _, f := range fighters {
		if !f.Combat().HasAttacks() || f.IsFoundation() {
			continue
		}
		pos := f.Position()
		if sz.IsNoCombat(pos) {
			f.SetTarget(nil)
			f.SetFriendlyTargets(false)
			continue
		}

		mod := modifierFor(f)
		mentecon := f.Effects().Mentecon
		radius := mod.Range(f.Combat().MaxAttackRange())

		// Closest-enemy collection. RangeL1 iterates lexicographically
		// and the per-tile lists preserve (kind, id) order, so the
		// candidate list is deterministic.
		var closest []*Fighter
		best := radius + 1
		hexgrid.RangeL1(pos, radius, func(c hexgrid.Coord) bool {
			if sz.IsNoCombat(c) {
				return true
			}
			d := hexgrid.Distance(pos, c)
			if d > best {
				return true
			}
			for _, cand := range idx[c] {
				if cand == f {
					continue
				}
				if !mentecon && cand.Faction() == f.Faction() {
					continue
				}
				if d < best {
					best = d
					closest = closest[:0]
				}
				closest = append(closest, cand)
			}
			return true
		})

		if len(closest) == 0 {
			f.SetTarget(nil)
		} else {
			pick := closest[ctx.Rnd.SelectIndex(len(closest))]
			ref := pick.Ref()
			f.SetTarget(&ref)
		}

		f.SetFriendlyTargets(friendlyInRange(f, idx, mod))
	}
}

// friendlyInRange reports whether any same-faction fighter is inside the
// modified area of the fighter's friendly attacks.
func friendlyInRange(f *Fighter, idx posIndex, mod Modifier) bool {
	area := 0
	for _, a := range f.Combat().Attacks {
		if a.Friendlies && a.Area > area {
			area = a.Area
		}
	}
	if area == 0 {
		return false
	}
	radius := mod.Range(area)
	pos := f.Position()

	found := false
	hexgrid.RangeL1(pos, radius, func(c hexgrid.Coord) bool {
		for _, cand := range idx[c] {
			if cand == f {
				continue
			}
			if cand.Faction() == f.Faction() {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
