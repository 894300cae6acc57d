package combat

// Modifier is the snapshot of all percentage modifiers applying to one
// fighter's attacks: active low-HP boosts plus applied effects. Snapshots
// are taken for every attacker before any HP changes.
type Modifier struct {
	DamagePct    int
	RangePct     int
	HitChancePct int
}

// modifierFor computes the fighter's modifier at its current HP.
func modifierFor(f *Fighter) Modifier {
	var m Modifier

	hp := f.HP()
	maxArmour := f.Regen().MaxArmour
	for _, b := range f.Combat().LowHPBoosts {
		// Active once armour has fallen to the threshold fraction of max.
		if hp.Armour*100 <= maxArmour*int64(b.MaxHPPercent) {
			m.DamagePct += b.DamagePct
			m.RangePct += b.RangePct
			m.HitChancePct += b.HitChancePct
		}
	}

	e := f.Effects()
	m.RangePct += e.RangePct
	m.HitChancePct += e.HitChancePct
	return m
}

func scalePct(v int64, pct int) int64 {
	res := v * int64(100+pct) / 100
	if res < 0 {
		return 0
	}
	return res
}

// Damage scales a damage value.
func (m Modifier) Damage(v int64) int64 {
	return scalePct(v, m.DamagePct)
}

// Range scales a range or area value.
func (m Modifier) Range(v int) int {
	return int(scalePct(int64(v), m.RangePct))
}

// HitChance scales a hit chance, clamped to [0, 100].
func (m Modifier) HitChance(v int) int {
	res := scalePct(int64(v), m.HitChancePct)
	if res > 100 {
		return 100
	}
	return int(res)
}

// BaseHitChance returns the percent chance of a weapon of the given size
// hitting a target of the given size: certain against targets at least as
// large as the weapon, proportional below that. A zero weapon size means
// the attack always hits.
func BaseHitChance(targetSize, weaponSize int) int {
	if weaponSize == 0 || targetSize >= weaponSize {
		return 100
	}
	return 100 * targetSize / weaponSize
}
