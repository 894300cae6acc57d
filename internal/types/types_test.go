package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactionRoundTrip(t *testing.T) {
	for _, f := range []Faction{FactionRed, FactionGreen, FactionBlue} {
		parsed, err := FactionFromString(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, err := FactionFromString("ancient")
	assert.Error(t, err, "players must not register as ancient")
	_, err = FactionFromString("")
	assert.Error(t, err)
}

func TestTargetLess(t *testing.T) {
	charA := TargetID{Kind: KindCharacter, ID: 10}
	charB := TargetID{Kind: KindCharacter, ID: 11}
	bldg := TargetID{Kind: KindBuilding, ID: 1}

	assert.True(t, TargetLess(charA, charB))
	assert.True(t, TargetLess(charB, bldg), "characters sort before buildings")
	assert.False(t, TargetLess(bldg, charA))
	assert.False(t, TargetLess(charA, charA))
}

func TestHPDead(t *testing.T) {
	assert.True(t, HP{}.Dead())
	assert.True(t, HP{ArmourMhp: 999}.Dead(), "partial HP never keeps a fighter alive")
	assert.False(t, HP{Armour: 1}.Dead())
	assert.False(t, HP{Shield: 1}.Dead())
}

func TestInventoryBounds(t *testing.T) {
	inv := NewInventory()
	assert.True(t, inv.CanAdd("ore", MaxQuantity))
	assert.False(t, inv.CanAdd("ore", MaxQuantity+1))

	inv.Add("ore", 100)
	assert.False(t, inv.CanAdd("ore", -101))
	assert.True(t, inv.CanAdd("ore", -100))

	assert.Panics(t, func() { inv.Add("ore", MaxQuantity) })
	assert.Panics(t, func() { inv.Add("ore", -101) })
}

func TestInventoryAddRemove(t *testing.T) {
	inv := NewInventory()
	inv.Add("ore", 5)
	inv.Add("gold prize", 1)
	inv.Add("ore", -5)

	assert.Equal(t, int64(0), inv.Quantity("ore"))
	assert.Equal(t, []string{"gold prize"}, inv.Names())

	inv.Add("gold prize", -1)
	assert.True(t, inv.Empty())
	assert.Nil(t, inv.Items, "empty inventory serializes without an items key")
}

func TestInventoryMergeClone(t *testing.T) {
	a := NewInventory()
	a.Add("ore", 3)
	b := a.Clone()
	b.Add("ore", 2)
	b.Add("bronze prize", 1)

	assert.Equal(t, int64(3), a.Quantity("ore"), "clone must not alias")

	a.Merge(b)
	assert.Equal(t, int64(8), a.Quantity("ore"))
	assert.Equal(t, int64(1), a.Quantity("bronze prize"))
	assert.Equal(t, int64(9), a.TotalUnits())
}

func TestInventoryDeterministicJSON(t *testing.T) {
	inv := NewInventory()
	inv.Add("zinc", 1)
	inv.Add("alpha", 2)
	inv.Add("mid", 3)

	first, err := json.Marshal(&inv)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(&inv)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
	assert.JSONEq(t, `{"items":{"alpha":2,"mid":3,"zinc":1}}`, string(first))
}

func TestOngoingCase(t *testing.T) {
	op := OngoingProto{Prospection: &ProspectionOp{RegionID: 5}}
	assert.Equal(t, "prospection", op.Case())

	assert.Panics(t, func() { (&OngoingProto{}).Case() }, "empty union must be fatal")
	assert.Panics(t, func() {
		two := OngoingProto{
			Prospection:  &ProspectionOp{},
			ArmourRepair: &ArmourRepairOp{},
		}
		two.Case()
	})
}

func TestOngoingUnknownFieldTolerance(t *testing.T) {
	raw := `{"armour_repair":{},"future_variant_data":{"x":1}}`
	var op OngoingProto
	require.NoError(t, json.Unmarshal([]byte(raw), &op))
	assert.Equal(t, "armour_repair", op.Case())
}

func TestMaxAttackRange(t *testing.T) {
	cd := CombatData{Attacks: []Attack{
		{Range: 3, Damage: MinMax{Min: 1, Max: 2}},
		{Area: 5, Damage: MinMax{Min: 1, Max: 2}},
		{Range: 4, Area: 1, Damage: MinMax{Min: 1, Max: 2}},
	}}
	assert.Equal(t, 5, cd.MaxAttackRange())
	assert.Equal(t, 0, CombatData{}.MaxAttackRange())
}
