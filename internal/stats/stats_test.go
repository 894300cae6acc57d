package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/types"
)

func cfg(t *testing.T) *gamecfg.Config {
	t.Helper()
	return gamecfg.MustLoad()
}

func TestForCharacterBareHull(t *testing.T) {
	c := cfg(t)
	s, err := ForCharacter(c, "scarab", nil)
	require.NoError(t, err)

	v := c.Vehicles["scarab"]
	assert.Equal(t, v.Armour, s.HP.Armour)
	assert.Equal(t, v.Shield, s.HP.Shield)
	assert.Equal(t, v.Speed, s.Speed)
	assert.Equal(t, v.Cargo, s.Cargo)
	assert.Equal(t, v.Size, s.Combat.Size)
	require.NotNil(t, s.Mining)
	assert.Equal(t, *v.Mining, s.Mining.Rate)
}

func TestForCharacterFitments(t *testing.T) {
	c := cfg(t)
	s, err := ForCharacter(c, "scarab", []string{"plating mk1", "turbocharger", "pulse laser"})
	require.NoError(t, err)

	v := c.Vehicles["scarab"]
	assert.Equal(t, v.Armour+100, s.HP.Armour, "plating adds flat armour")
	assert.Equal(t, v.Armour+100, s.Regen.MaxArmour)
	assert.Equal(t, v.Speed*125/100, s.Speed, "turbocharger scales speed")
	require.Len(t, s.Combat.Attacks, 1, "pulse laser adds a weapon to an unarmed hull")
	assert.Equal(t, 3, s.Combat.Attacks[0].Range)
}

func TestForCharacterPercentWeaponScaling(t *testing.T) {
	c := cfg(t)
	s, err := ForCharacter(c, "gladiator", []string{"range amplifier"})
	require.NoError(t, err)

	base := c.Vehicles["gladiator"].Attacks[0]
	assert.Equal(t, base.Range*120/100, s.Combat.Attacks[0].Range)
	assert.Equal(t, base.Damage.Max, s.Combat.Attacks[0].Damage.Max, "range amp must not scale damage")
}

func TestForCharacterHitChanceFitment(t *testing.T) {
	c := cfg(t)
	s, err := ForCharacter(c, "gladiator", []string{"targeting array"})
	require.NoError(t, err)

	// Hit-chance fitments materialise as an always-active boost.
	found := false
	for _, b := range s.Combat.LowHPBoosts {
		if b.MaxHPPercent == 100 && b.HitChancePct == 15 {
			found = true
		}
	}
	assert.True(t, found, "targeting array boost missing: %+v", s.Combat.LowHPBoosts)
}

func TestForCharacterErrors(t *testing.T) {
	c := cfg(t)
	_, err := ForCharacter(c, "no such hull", nil)
	assert.Error(t, err)
	_, err = ForCharacter(c, "scarab", []string{"no such fitment"})
	assert.Error(t, err)
}

func TestForBuilding(t *testing.T) {
	c := cfg(t)
	s, err := ForBuilding(c, "watchtower")
	require.NoError(t, err)
	assert.Equal(t, c.Buildings["watchtower"].Armour, s.HP.Armour)
	assert.Len(t, s.Combat.Attacks, 1)

	_, err = ForBuilding(c, "no such type")
	assert.Error(t, err)
}

func TestCargoUsed(t *testing.T) {
	c := cfg(t)
	inv := types.NewInventory()
	inv.Add("ore", 5)    // space 1
	inv.Add("zerium", 2) // space 2
	assert.Equal(t, int64(9), CargoUsed(c, &inv))

	empty := types.NewInventory()
	assert.Equal(t, int64(0), CargoUsed(c, &empty))
}
