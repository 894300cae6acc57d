// Package stats derives the effective combat and movement statistics of
// characters and buildings from the configuration tables: hull plus
// fitments for characters, the building table for buildings. Derivation is
// pure; it runs when a character is created or refitted and when a building
// is constructed.
package stats

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/types"
)

// CharacterStats is the full derived loadout of a vehicle with fitments.
type CharacterStats struct {
	HP     types.HP
	Regen  types.RegenData
	Combat types.CombatData
	Speed  int64
	Cargo  int64
	Mining *types.Mining
}

// ForCharacter derives the stats of the vehicle with the given fitments.
// The fitment list must already be validated against slot count and item
// availability.
func ForCharacter(cfg *gamecfg.Config, vehicle string, fitments []string) (CharacterStats, error) {
	v, ok := cfg.Vehicles[vehicle]
	if !ok {
		return CharacterStats{}, fmt.Errorf("unknown vehicle %q", vehicle)
	}

	armour, shield := v.Armour, v.Shield
	speedPct, cargoPct, damagePct, rangePct, hitChancePct := 0, 0, 0, 0, 0

	combat := types.CombatData{
		Size:        v.Size,
		Attacks:     append([]types.Attack(nil), v.Attacks...),
		LowHPBoosts: append([]types.LowHPBoost(nil), v.LowHPBoosts...),
	}

	for _, name := range fitments {
		f, ok := cfg.Fitments[name]
		if !ok {
			return CharacterStats{}, fmt.Errorf("unknown fitment %q", name)
		}
		armour += f.ArmourAdd
		shield += f.ShieldAdd
		speedPct += f.SpeedPct
		cargoPct += f.CargoPct
		damagePct += f.DamagePct
		rangePct += f.RangePct
		hitChancePct += f.HitChancePct
		if f.Attack != nil {
			combat.Attacks = append(combat.Attacks, *f.Attack)
		}
		if f.LowHPBoost != nil {
			combat.LowHPBoosts = append(combat.LowHPBoosts, *f.LowHPBoost)
		}
	}

	// Percent fitment modifiers bake into the stored attacks so combat
	// reads final values.
	for i := range combat.Attacks {
		a := &combat.Attacks[i]
		a.Damage.Min = scale(a.Damage.Min, damagePct)
		a.Damage.Max = scale(a.Damage.Max, damagePct)
		if a.Range > 0 {
			a.Range = int(scale(int64(a.Range), rangePct))
		}
	}
	if hitChancePct != 0 {
		combat.LowHPBoosts = append(combat.LowHPBoosts, types.LowHPBoost{
			MaxHPPercent: 100,
			HitChancePct: hitChancePct,
		})
	}

	stats := CharacterStats{
		HP:    types.HP{Armour: armour, Shield: shield},
		Regen: types.RegenData{
			MaxArmour:      armour,
			MaxShield:      shield,
			ArmourRegenMhp: v.ArmourRegen,
			ShieldRegenMhp: v.ShieldRegen,
		},
		Combat: combat,
		Speed:  scale(v.Speed, speedPct),
		Cargo:  scale(v.Cargo, cargoPct),
	}
	if v.Mining != nil {
		stats.Mining = &types.Mining{Rate: *v.Mining}
	}
	return stats, nil
}

// BuildingStats is the derived state of a finished building.
type BuildingStats struct {
	HP     types.HP
	Regen  types.RegenData
	Combat types.CombatData
}

// ForBuilding derives the stats of a finished building of the given type.
func ForBuilding(cfg *gamecfg.Config, typ string) (BuildingStats, error) {
	b, ok := cfg.Buildings[typ]
	if !ok {
		return BuildingStats{}, fmt.Errorf("unknown building type %q", typ)
	}
	return BuildingStats{
		HP: types.HP{Armour: b.Armour, Shield: b.Shield},
		Regen: types.RegenData{
			MaxArmour:      b.Armour,
			MaxShield:      b.Shield,
			ArmourRegenMhp: b.ArmourRegen,
			ShieldRegenMhp: b.ShieldRegen,
		},
		Combat: types.CombatData{
			Size:        b.Size,
			Attacks:     append([]types.Attack(nil), b.Attacks...),
			LowHPBoosts: append([]types.LowHPBoost(nil), b.LowHPBoosts...),
		},
	}, nil
}

// CargoUsed sums the cargo space taken by an inventory.
func CargoUsed(cfg *gamecfg.Config, inv *types.Inventory) int64 {
	var used int64
	for _, name := range inv.Names() {
		item, ok := cfg.Items[name]
		if !ok {
			panic(fmt.Sprintf("stats: inventory holds unknown item %q", name))
		}
		used += item.Space * inv.Quantity(name)
	}
	return used
}

func scale(v int64, pct int) int64 {
	return v * int64(100+pct) / 100
}
