// Package combat implements target acquisition, damage dealing, kill
// processing, regeneration and fame attribution. Damage dealing snapshots
// all modifiers before any HP changes so that processing order inside a
// phase can never influence the outcome.
package combat

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// Fighter unifies characters and buildings for the combat phases. Exactly
// one of the underlying handles is set.
type Fighter struct {
	char *storage.Character
	bldg *storage.Building
}

// LoadFighters returns every fighter on the map: characters with a map
// position followed by all buildings, each ordered by ascending id. This
// matches the (kind, id) traversal rule. Characters inside buildings do not
// take part in combat.
func LoadFighters(tx *storage.Tx) []*Fighter {
	var res []*Fighter
	for _, c := range tx.Characters() {
		if _, onMap := c.Position(); !onMap {
			c.Release()
			continue
		}
		res = append(res, &Fighter{char: c})
	}
	for _, b := range tx.Buildings() {
		res = append(res, &Fighter{bldg: b})
	}
	return res
}

// ReleaseFighters releases all underlying handles.
func ReleaseFighters(fighters []*Fighter) {
	for _, f := range fighters {
		f.Release()
	}
}

// Ref returns the fighter's (kind, id) reference.
func (f *Fighter) Ref() types.TargetID {
	if f.char != nil {
		return f.char.TargetRef()
	}
	return f.bldg.TargetRef()
}

// Faction returns the fighter's faction.
func (f *Fighter) Faction() types.Faction {
	if f.char != nil {
		return f.char.Faction()
	}
	return f.bldg.Faction()
}

// Owner returns the owning account name; empty for ancient buildings.
func (f *Fighter) Owner() string {
	if f.char != nil {
		return f.char.Owner()
	}
	return f.bldg.Owner()
}

// Position returns the combat position: the character's tile or the
// building's centre.
func (f *Fighter) Position() hexgrid.Coord {
	if f.char != nil {
		pos, onMap := f.char.Position()
		if !onMap {
			panic(fmt.Sprintf("character %d in combat without position", f.char.ID()))
		}
		return pos
	}
	return f.bldg.Centre()
}

// Combat returns the fighter's combat data for reading.
func (f *Fighter) Combat() *types.CombatData {
	if f.char != nil {
		return &f.char.Proto().Combat
	}
	return &f.bldg.Proto().Combat
}

// SetFriendlyTargets updates the friendly-in-range flag, dirtying the row
// only on change.
func (f *Fighter) SetFriendlyTargets(v bool) {
	if f.Combat().FriendlyTargets == v {
		return
	}
	if f.char != nil {
		f.char.MutableProto().Combat.FriendlyTargets = v
	} else {
		f.bldg.MutableProto().Combat.FriendlyTargets = v
	}
}

// Effects returns the currently applied effects.
func (f *Fighter) Effects() types.AttackEffects {
	if f.char != nil {
		return f.char.Proto().Effects
	}
	return f.bldg.Proto().Effects
}

// SetEffects replaces the applied effects, dirtying the row only on change.
func (f *Fighter) SetEffects(e types.AttackEffects) {
	if f.Effects() == e {
		return
	}
	if f.char != nil {
		f.char.MutableProto().Effects = e
	} else {
		f.bldg.MutableProto().Effects = e
	}
}

// HP returns the current hit points.
func (f *Fighter) HP() types.HP {
	if f.char != nil {
		return f.char.HP()
	}
	return f.bldg.HP()
}

// MutableHP returns the hit points for mutation.
func (f *Fighter) MutableHP() *types.HP {
	if f.char != nil {
		return f.char.MutableHP()
	}
	return f.bldg.MutableHP()
}

// Regen returns the fighter's regeneration data.
func (f *Fighter) Regen() types.RegenData {
	if f.char != nil {
		return f.char.Regen()
	}
	return f.bldg.Regen()
}

// Target returns the stored combat target, nil when none.
func (f *Fighter) Target() *types.TargetID {
	if f.char != nil {
		return f.char.Target()
	}
	return f.bldg.Target()
}

// SetTarget stores the combat target, dirtying the row only on change.
func (f *Fighter) SetTarget(target *types.TargetID) {
	cur := f.Target()
	if cur == nil && target == nil {
		return
	}
	if cur != nil && target != nil && *cur == *target {
		return
	}
	if f.char != nil {
		f.char.SetTarget(target)
	} else {
		f.bldg.SetTarget(target)
	}
}

// IsFoundation reports whether the fighter is an unfinished building.
func (f *Fighter) IsFoundation() bool {
	return f.bldg != nil && f.bldg.Proto().Foundation
}

// Release releases the underlying handle.
func (f *Fighter) Release() {
	if f.char != nil {
		f.char.Release()
	} else {
		f.bldg.Release()
	}
}
