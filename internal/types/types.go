// Package types defines the value types shared across the state processor:
// factions, entity references, inventories, hit points and the structured
// blobs stored alongside indexed entity columns.
package types

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
)

// MaxQuantity bounds every inventory quantity and every price-style
// multiplicand so products of two bounded values fit in 64 bits.
const MaxQuantity = 1_000_000_000

// Faction is the team an account and all its entities belong to. Ancient is
// reserved for neutral map structures and is never a player faction.
type Faction int

const (
	FactionInvalid Faction = iota
	FactionRed
	FactionGreen
	FactionBlue
	FactionAncient
)

// String implements fmt.Stringer using the wire names.
func (f Faction) String() string {
	switch f {
	case FactionRed:
		return "red"
	case FactionGreen:
		return "green"
	case FactionBlue:
		return "blue"
	case FactionAncient:
		return "ancient"
	}
	return "invalid"
}

// FactionFromString parses a wire faction name. Ancient is not accepted:
// it cannot be chosen by players.
func FactionFromString(s string) (Faction, error) {
	switch s {
	case "red":
		return FactionRed, nil
	case "green":
		return FactionGreen, nil
	case "blue":
		return FactionBlue, nil
	}
	return FactionInvalid, fmt.Errorf("invalid faction %q", s)
}

// EntityKind distinguishes the two fighter kinds.
type EntityKind int

const (
	KindCharacter EntityKind = 1
	KindBuilding  EntityKind = 2
)

// TargetID references a fighter by kind and database id.
type TargetID struct {
	Kind EntityKind `json:"kind"`
	ID   int64      `json:"id"`
}

// TargetLess orders fighter references by (kind, id), characters first.
// This is the ordering rule for every deterministic traversal over mixed
// fighter sets.
func TargetLess(a, b TargetID) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

// HP is the current hit-point state of a fighter. The milli fields carry
// fractional regeneration below one hit point.
type HP struct {
	Armour    int64 `json:"armour"`
	Shield    int64 `json:"shield"`
	ArmourMhp int64 `json:"armour_mhp,omitempty"`
	ShieldMhp int64 `json:"shield_mhp,omitempty"`
}

// Dead reports whether the fighter is out of hit points. Partial milli-HP
// never keeps a fighter alive.
func (h HP) Dead() bool {
	return h.Armour <= 0 && h.Shield <= 0
}

// RegenData holds the maxima and per-block milli-HP regeneration rates.
type RegenData struct {
	MaxArmour      int64 `json:"max_armour"`
	MaxShield      int64 `json:"max_shield"`
	ArmourRegenMhp int64 `json:"armour_regen_mhp,omitempty"`
	ShieldRegenMhp int64 `json:"shield_regen_mhp,omitempty"`
}

// MinMax is an inclusive integer interval, used for damage and mining rates.
type MinMax struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// AttackEffects are the non-damage modifiers an attack applies to its
// victims for the following round.
type AttackEffects struct {
	SpeedPct       int  `json:"speed_pct,omitempty" yaml:"speed_pct,omitempty"`
	RangePct       int  `json:"range_pct,omitempty" yaml:"range_pct,omitempty"`
	HitChancePct   int  `json:"hit_chance_pct,omitempty" yaml:"hit_chance_pct,omitempty"`
	ShieldRegenPct int  `json:"shield_regen_pct,omitempty" yaml:"shield_regen_pct,omitempty"`
	Mentecon       bool `json:"mentecon,omitempty" yaml:"mentecon,omitempty"`
}

// Empty reports whether the effect set carries no modifier at all.
func (e AttackEffects) Empty() bool {
	return e == AttackEffects{}
}

// Attack describes one weapon of a fighter. Range and Area use zero for
// "not present": an attack has at least one of them. An attack with only
// Area is centred on the attacker; with Range and Area the area is centred
// on the target.
type Attack struct {
	Range        int            `json:"range,omitempty" yaml:"range,omitempty"`
	Area         int            `json:"area,omitempty" yaml:"area,omitempty"`
	Damage       MinMax         `json:"damage" yaml:"damage"`
	// ShieldPct and ArmourPct split the rolled damage between the HP
	// layers; zero means the default of 100.
	ShieldPct    int            `json:"shield_pct,omitempty" yaml:"shield_pct,omitempty"`
	ArmourPct    int            `json:"armour_pct,omitempty" yaml:"armour_pct,omitempty"`
	GainHP       bool           `json:"gain_hp,omitempty" yaml:"gain_hp,omitempty"`
	SelfDestruct bool           `json:"self_destruct,omitempty" yaml:"self_destruct,omitempty"`
	Friendlies   bool           `json:"friendlies,omitempty" yaml:"friendlies,omitempty"`
	WeaponSize   int            `json:"weapon_size,omitempty" yaml:"weapon_size,omitempty"`
	Effects      *AttackEffects `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// LowHPBoost is a conditional combat modifier that activates once armour
// falls to MaxHPPercent of maximum or below.
type LowHPBoost struct {
	MaxHPPercent int `json:"max_hp_percent" yaml:"max_hp_percent"`
	DamagePct    int `json:"damage_pct,omitempty" yaml:"damage_pct,omitempty"`
	RangePct     int `json:"range_pct,omitempty" yaml:"range_pct,omitempty"`
	HitChancePct int `json:"hit_chance_pct,omitempty" yaml:"hit_chance_pct,omitempty"`
}

// CombatData aggregates everything combat needs to know about a fighter
// besides its HP: weapons, conditional boosts and its target profile size.
type CombatData struct {
	Attacks     []Attack     `json:"attacks,omitempty"`
	LowHPBoosts []LowHPBoost `json:"low_hp_boosts,omitempty"`
	Size        int          `json:"size,omitempty"`
	// FriendlyTargets is set by target acquisition when a friendly fighter
	// is in range of the fighter's friendly-area attacks.
	FriendlyTargets bool `json:"friendly_targets,omitempty"`
}

// HasAttacks reports whether the fighter carries any weapon at all.
func (c CombatData) HasAttacks() bool {
	return len(c.Attacks) > 0
}

// MaxAttackRange returns the largest base range over all attacks; area-only
// attacks contribute their area (the AoE is centred on the attacker).
func (c CombatData) MaxAttackRange() int {
	res := 0
	for _, a := range c.Attacks {
		r := a.Range
		if r == 0 {
			r = a.Area
		}
		if r > res {
			res = r
		}
	}
	return res
}

// Movement is the persisted movement state of a character. Steps[0] is the
// next tile to enter; the queue is recomputed from Waypoints when empty.
type Movement struct {
	Waypoints    []hexgrid.Coord `json:"waypoints,omitempty"`
	Steps        []hexgrid.Coord `json:"steps,omitempty"`
	PartialStep  int64           `json:"partial_step,omitempty"`
	BlockedTurns int             `json:"blocked_turns,omitempty"`
}

// Mining is the persisted mining state of a character.
type Mining struct {
	Rate   MinMax `json:"rate"`
	Active bool   `json:"active,omitempty"`
}
