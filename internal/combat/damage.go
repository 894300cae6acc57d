package combat

import (
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

type hpLayer int

const (
	layerShield hpLayer = iota
	layerArmour
)

type drainKey struct {
	target types.TargetID
	layer  hpLayer
}

type drainRec struct {
	attacker types.TargetID
	amount   int64
}

type pendingGain struct {
	attacker types.TargetID
	layer    hpLayer
	amount   int64
}

// damageState carries the working sets of one damage-dealing phase.
type damageState struct {
	tx  *storage.Tx
	ctx *gamectx.Context

	byRef map[types.TargetID]*Fighter
	idx   posIndex
	mods  map[types.TargetID]Modifier

	newEffects map[types.TargetID]types.AttackEffects
	deadSet    map[types.TargetID]bool
	newDead    []types.TargetID

	drains     map[drainKey][]drainRec
	drainOrder []drainKey
}

// DealDamage runs the damage phase: gain-HP attacks first, reconciliation,
// then all remaining attacks, the self-destruct cascade, crediting of
// drained HP to surviving attackers and the atomic effects swap. It returns
// every fighter that died, in death order, for fame attribution and kill
// processing. Modifier snapshots are taken before any HP changes.
func DealDamage(tx *storage.Tx, ctx *gamectx.Context) []types.TargetID {
	fighters := LoadFighters(tx)
	defer ReleaseFighters(fighters)

	s := &damageState{
		tx:         tx,
		ctx:        ctx,
		byRef:      make(map[types.TargetID]*Fighter, len(fighters)),
		idx:        indexByPosition(fighters),
		mods:       make(map[types.TargetID]Modifier, len(fighters)),
		newEffects: make(map[types.TargetID]types.AttackEffects),
		deadSet:    make(map[types.TargetID]bool),
		drains:     make(map[drainKey][]drainRec),
	}
	for _, f := range fighters {
		s.byRef[f.Ref()] = f
		s.mods[f.Ref()] = modifierFor(f)
	}

	// Pass A: HP-draining attacks.
	for _, f := range fighters {
		for _, a := range f.Combat().Attacks {
			if a.GainHP && !a.SelfDestruct && !a.Friendlies {
				s.processAttack(f, a, s.mods[f.Ref()], true)
			}
		}
	}

	gains := s.reconcileGains()

	// Pass B: everything else except self-destructs.
	for _, f := range fighters {
		for _, a := range f.Combat().Attacks {
			switch {
			case a.SelfDestruct:
			case a.Friendlies:
				s.processFriendly(f, a, s.mods[f.Ref()])
			case !a.GainHP:
				s.processAttack(f, a, s.mods[f.Ref()], false)
			}
		}
	}

	// Self-destruct cascade: each wave of deaths may trigger further
	// explosions. The dead fighter's boosts fully apply at zero HP, so
	// its modifier is recomputed now.
	alreadyDead := make(map[types.TargetID]bool)
	var deathOrder []types.TargetID
	queue := s.newDead
	s.newDead = nil
	for len(queue) > 0 {
		for _, ref := range queue {
			alreadyDead[ref] = true
			deathOrder = append(deathOrder, ref)
		}
		for _, ref := range queue {
			f := s.byRef[ref]
			for _, a := range f.Combat().Attacks {
				if a.SelfDestruct {
					s.processAttack(f, a, modifierFor(f), false)
				}
			}
		}
		queue = s.newDead
		s.newDead = nil
	}

	// Credit drained HP to attackers that survived the whole phase.
	for _, g := range gains {
		if alreadyDead[g.attacker] {
			continue
		}
		f := s.byRef[g.attacker]
		hp := f.MutableHP()
		regen := f.Regen()
		switch g.layer {
		case layerShield:
			hp.Shield += g.amount
			if hp.Shield > regen.MaxShield {
				hp.Shield = regen.MaxShield
			}
		case layerArmour:
			hp.Armour += g.amount
			if hp.Armour > regen.MaxArmour {
				hp.Armour = regen.MaxArmour
			}
		}
	}

	// Atomic effects swap: previous effects vanish, accumulated ones
	// apply until the next damage phase.
	for _, f := range fighters {
		if alreadyDead[f.Ref()] {
			continue
		}
		f.SetEffects(s.newEffects[f.Ref()])
	}

	return deathOrder
}

func attackShieldPct(a types.Attack) int64 {
	if a.ShieldPct == 0 {
		return 100
	}
	return int64(a.ShieldPct)
}

func attackArmourPct(a types.Attack) int64 {
	if a.ArmourPct == 0 {
		return 100
	}
	return int64(a.ArmourPct)
}

// processAttack applies one damaging attack of the fighter. Victim
// determination only reads positions, which are static during the phase.
func (s *damageState) processAttack(attacker *Fighter, a types.Attack, mod Modifier, gainPass bool) {
	sz := s.ctx.Map.SafeZones()
	if sz.IsNoCombat(attacker.Position()) {
		return
	}

	var victims []*Fighter
	switch {
	case a.Range > 0:
		tgtRef := attacker.Target()
		if tgtRef == nil {
			return
		}
		tgt, ok := s.byRef[*tgtRef]
		if !ok {
			return
		}
		if hexgrid.Distance(attacker.Position(), tgt.Position()) > mod.Range(a.Range) {
			return
		}
		if a.Area > 0 {
			victims = s.enemiesInArea(attacker, tgt.Position(), mod.Range(a.Area))
		} else if !sz.IsNoCombat(tgt.Position()) {
			victims = []*Fighter{tgt}
		}
	case a.Area > 0:
		victims = s.enemiesInArea(attacker, attacker.Position(), mod.Range(a.Area))
	}
	if len(victims) == 0 {
		return
	}

	dmg := s.ctx.Rnd.UniformInt64(mod.Damage(a.Damage.Min), mod.Damage(a.Damage.Max))

	for _, v := range victims {
		chance := mod.HitChance(BaseHitChance(v.Combat().Size, a.WeaponSize))
		if !s.ctx.Rnd.ProbabilityRoll(chance, 100) {
			continue
		}

		doneShield, doneArmour := applySplit(v.MutableHP(), dmg,
			attackShieldPct(a), attackArmourPct(a))

		if doneShield+doneArmour > 0 && attacker.Owner() != "" {
			s.tx.RecordDamage(v.Ref(), attacker.Owner(), s.ctx.Height)
		}
		if gainPass {
			s.recordDrain(v.Ref(), layerShield, attacker.Ref(), doneShield)
			s.recordDrain(v.Ref(), layerArmour, attacker.Ref(), doneArmour)
		}
		if a.Effects != nil {
			s.accumulateEffects(v.Ref(), *a.Effects)
		}
		if v.HP().Dead() && !s.deadSet[v.Ref()] {
			s.deadSet[v.Ref()] = true
			s.newDead = append(s.newDead, v.Ref())
		}
	}
}

// processFriendly applies a friendly-area attack: effects only, to
// same-faction fighters around the attacker, gated on the flag set during
// target acquisition.
func (s *damageState) processFriendly(attacker *Fighter, a types.Attack, mod Modifier) {
	if !attacker.Combat().FriendlyTargets || a.Effects == nil {
		return
	}
	pos := attacker.Position()
	radius := mod.Range(a.Area)
	hexgrid.RangeL1(pos, radius, func(c hexgrid.Coord) bool {
		for _, cand := range s.idx[c] {
			if cand == attacker || cand.Faction() != attacker.Faction() {
				continue
			}
			s.accumulateEffects(cand.Ref(), *a.Effects)
		}
		return true
	})
}

// enemiesInArea collects the attacker's enemies within the L1 ball, in
// deterministic order, excluding no-combat tiles and the attacker itself.
func (s *damageState) enemiesInArea(attacker *Fighter, centre hexgrid.Coord, radius int) []*Fighter {
	sz := s.ctx.Map.SafeZones()
	mentecon := attacker.Effects().Mentecon

	var res []*Fighter
	hexgrid.RangeL1(centre, radius, func(c hexgrid.Coord) bool {
		if sz.IsNoCombat(c) {
			return true
		}
		for _, cand := range s.idx[c] {
			if cand == attacker {
				continue
			}
			if !mentecon && cand.Faction() == attacker.Faction() {
				continue
			}
			res = append(res, cand)
		}
		return true
	})
	return res
}

func (s *damageState) recordDrain(target types.TargetID, layer hpLayer, attacker types.TargetID, amount int64) {
	if amount <= 0 {
		return
	}
	key := drainKey{target: target, layer: layer}
	recs, ok := s.drains[key]
	if !ok {
		s.drainOrder = append(s.drainOrder, key)
	}
	// Merge repeated drains of the same attacker so the "exactly one
	// attacker" rule counts attackers, not hits.
	for i := range recs {
		if recs[i].attacker == attacker {
			recs[i].amount += amount
			s.drains[key] = recs
			return
		}
	}
	s.drains[key] = append(recs, drainRec{attacker: attacker, amount: amount})
}

// reconcileGains decides, per drained target and HP layer, which attackers
// get the drained HP back: everyone when the target has HP of that layer
// left, the sole attacker when only one drained it, nobody otherwise.
func (s *damageState) reconcileGains() []pendingGain {
	var gains []pendingGain
	for _, key := range s.drainOrder {
		recs := s.drains[key]
		target := s.byRef[key.target]

		var remaining int64
		switch key.layer {
		case layerShield:
			remaining = target.HP().Shield
		case layerArmour:
			remaining = target.HP().Armour
		}

		if len(recs) > 1 && remaining <= 0 {
			continue
		}
		for _, r := range recs {
			gains = append(gains, pendingGain{attacker: r.attacker, layer: key.layer, amount: r.amount})
		}
	}
	return gains
}

func (s *damageState) accumulateEffects(ref types.TargetID, e types.AttackEffects) {
	cur := s.newEffects[ref]
	cur.SpeedPct += e.SpeedPct
	cur.RangePct += e.RangePct
	cur.HitChancePct += e.HitChancePct
	cur.ShieldRegenPct += e.ShieldRegenPct
	cur.Mentecon = cur.Mentecon || e.Mentecon
	s.newEffects[ref] = cur
}

// applySplit applies rolled damage to shield then armour with the attack's
// percentage splits. Armour is only reachable once the shield is fully
// depleted. All division truncates toward zero.
func applySplit(hp *types.HP, dmg, shieldPct, armourPct int64) (doneShield, doneArmour int64) {
	if dmg <= 0 {
		return 0, 0
	}
	prevShield := hp.Shield
	if prevShield > 0 {
		if shieldPct <= 0 {
			return 0, 0
		}
		avail := dmg * shieldPct / 100
		doneShield = avail
		if doneShield > prevShield {
			doneShield = prevShield
		}
		hp.Shield -= doneShield
		if doneShield < prevShield {
			// The shield absorbed the whole blow.
			return doneShield, 0
		}
		dmg -= doneShield * 100 / shieldPct
	}
	if dmg <= 0 || armourPct <= 0 {
		return doneShield, 0
	}
	avail := dmg * armourPct / 100
	doneArmour = avail
	if doneArmour > hp.Armour {
		doneArmour = hp.Armour
	}
	hp.Armour -= doneArmour
	return doneShield, doneArmour
}
