package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

// Building is a working handle on one building row.
type Building struct {
	tx *Tx

	id      int64
	typ     string
	owner   string // empty for ancient buildings
	faction types.Faction
	centre  hexgrid.Coord
	target  *types.TargetID
	hp      types.HP
	regen   types.RegenData
	proto   types.BuildingProto

	dirty    bool
	released bool
}

const buildingColumns = `id, type, owner, faction, x, y, target_kind, target_id,
	armour, shield, armour_mhp, shield_mhp, regen, proto`

// CreateBuilding inserts a new building and returns its handle. An empty
// owner makes it ancient-owned.
func (t *Tx) CreateBuilding(typ, owner string, faction types.Faction, centre hexgrid.Coord,
	hp types.HP, regen types.RegenData, proto types.BuildingProto) *Building {

	b := &Building{
		tx:      t,
		id:      t.NextID(),
		typ:     typ,
		owner:   owner,
		faction: faction,
		centre:  centre,
		hp:      hp,
		regen:   regen,
		proto:   proto,
	}
	var ownerVal any
	if owner != "" {
		ownerVal = owner
	}
	_, err := t.exec(`
		INSERT INTO buildings (id, type, owner, faction, x, y,
			attack_range, can_regen,
			armour, shield, armour_mhp, shield_mhp, regen, proto)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.id, typ, ownerVal, int(faction), centre.X, centre.Y,
		b.attackRange(), boolFlag(b.canRegenFlag()),
		hp.Armour, hp.Shield, hp.ArmourMhp, hp.ShieldMhp,
		marshalProto(&regen), marshalProto(&proto))
	mustSucceed(fmt.Sprintf("insert building %d", b.id), err)
	return b
}

func scanBuilding(t *Tx, sc interface{ Scan(...any) error }) (*Building, error) {
	b := &Building{tx: t}
	var owner sql.NullString
	var faction int
	var targetKind, targetID sql.NullInt64
	var regenBlob, protoBlob string
	err := sc.Scan(&b.id, &b.typ, &owner, &faction, &b.centre.X, &b.centre.Y,
		&targetKind, &targetID,
		&b.hp.Armour, &b.hp.Shield, &b.hp.ArmourMhp, &b.hp.ShieldMhp,
		&regenBlob, &protoBlob)
	if err != nil {
		return nil, err
	}
	b.owner = owner.String
	b.faction = types.Faction(faction)
	if targetKind.Valid {
		b.target = &types.TargetID{Kind: types.EntityKind(targetKind.Int64), ID: targetID.Int64}
	}
	unmarshalProto(regenBlob, &b.regen)
	unmarshalProto(protoBlob, &b.proto)
	return b, nil
}

// GetBuilding returns a handle on the building with the given id, or nil
// when it does not exist.
func (t *Tx) GetBuilding(id int64) *Building {
	row := t.queryRow(`SELECT `+buildingColumns+` FROM buildings WHERE id = ?`, id)
	b, err := scanBuilding(t, row)
	if err == sql.ErrNoRows {
		return nil
	}
	mustSucceed(fmt.Sprintf("get building %d", id), err)
	return b
}

func (t *Tx) queryBuildings(what string, where string, args ...any) []*Building {
	rows, err := t.query(`SELECT `+buildingColumns+` FROM buildings `+where+` ORDER BY id ASC`, args...)
	mustSucceed(what, err)
	defer func() { _ = rows.Close() }()

	var res []*Building
	for rows.Next() {
		b, err := scanBuilding(t, rows)
		mustSucceed(what, err)
		res = append(res, b)
	}
	mustSucceed(what, rows.Err())
	return res
}

// Buildings returns handles on all buildings, ordered by ascending id.
func (t *Tx) Buildings() []*Building {
	return t.queryBuildings("query all buildings", "")
}

// ArmedBuildings returns all buildings carrying any attack, by id.
func (t *Tx) ArmedBuildings() []*Building {
	return t.queryBuildings("query armed buildings", "WHERE attack_range > 0")
}

// TargetingBuildings returns all buildings with a combat target, by id.
func (t *Tx) TargetingBuildings() []*Building {
	return t.queryBuildings("query targeting buildings", "WHERE target_kind IS NOT NULL")
}

// RegeneratingBuildings returns all buildings that can regenerate, by id.
func (t *Tx) RegeneratingBuildings() []*Building {
	return t.queryBuildings("query regenerating buildings", "WHERE can_regen = 1")
}

// DeleteBuilding removes the building row.
func (t *Tx) DeleteBuilding(id int64) {
	_, err := t.exec(`DELETE FROM buildings WHERE id = ?`, id)
	mustSucceed(fmt.Sprintf("delete building %d", id), err)
}

// Accessors.

func (b *Building) ID() int64 { return b.id }
func (b *Building) Type() string { return b.typ }
func (b *Building) Owner() string { return b.owner }
func (b *Building) Faction() types.Faction { return b.faction }
func (b *Building) Centre() hexgrid.Coord { return b.centre }
func (b *Building) HP() types.HP { return b.hp }
func (b *Building) Regen() types.RegenData { return b.regen }
func (b *Building) Target() *types.TargetID { return b.target }

// IsAncient reports whether the building belongs to the neutral map seed.
func (b *Building) IsAncient() bool { return b.owner == "" }

// Proto returns the structured blob for reading.
func (b *Building) Proto() *types.BuildingProto {
	return &b.proto
}

// MutableProto marks the handle dirty and returns the blob for mutation.
func (b *Building) MutableProto() *types.BuildingProto {
	b.dirty = true
	return &b.proto
}

// MutableHP marks the handle dirty and returns the hit points for mutation.
func (b *Building) MutableHP() *types.HP {
	b.dirty = true
	return &b.hp
}

// MutableRegen marks the handle dirty and returns regen data for mutation.
func (b *Building) MutableRegen() *types.RegenData {
	b.dirty = true
	return &b.regen
}

// SetTarget stores the combat target; nil clears it.
func (b *Building) SetTarget(target *types.TargetID) {
	b.dirty = true
	b.target = target
}

// TargetRef returns this building as a fighter reference.
func (b *Building) TargetRef() types.TargetID {
	return types.TargetID{Kind: types.KindBuilding, ID: b.id}
}

func (b *Building) attackRange() int {
	if b.proto.Foundation {
		return 0
	}
	return b.proto.Combat.MaxAttackRange()
}

func (b *Building) canRegenFlag() bool {
	if b.proto.Foundation {
		return false
	}
	return (b.regen.ArmourRegenMhp > 0 && b.hp.Armour < b.regen.MaxArmour) ||
		(b.regen.ShieldRegenMhp > 0 && b.hp.Shield < b.regen.MaxShield)
}

// IsDirty reports whether Release will write back.
func (b *Building) IsDirty() bool { return b.dirty }

// Abandon invalidates the handle without writing back.
func (b *Building) Abandon() { b.released = true }

// Release ends the handle's scope, writing the row back iff dirty.
func (b *Building) Release() {
	if b.released {
		panic(fmt.Sprintf("building handle %d released twice", b.id))
	}
	b.released = true
	if !b.dirty {
		return
	}

	var ownerVal, targetKind, targetID any
	if b.owner != "" {
		ownerVal = b.owner
	}
	if b.target != nil {
		targetKind, targetID = int(b.target.Kind), b.target.ID
	}
	_, err := b.tx.exec(`
		UPDATE buildings SET
			type = ?, owner = ?, faction = ?, x = ?, y = ?,
			attack_range = ?, can_regen = ?,
			target_kind = ?, target_id = ?,
			armour = ?, shield = ?, armour_mhp = ?, shield_mhp = ?,
			regen = ?, proto = ?
		WHERE id = ?
	`, b.typ, ownerVal, int(b.faction), b.centre.X, b.centre.Y,
		b.attackRange(), boolFlag(b.canRegenFlag()),
		targetKind, targetID,
		b.hp.Armour, b.hp.Shield, b.hp.ArmourMhp, b.hp.ShieldMhp,
		marshalProto(&b.regen), marshalProto(&b.proto), b.id)
	mustSucceed(fmt.Sprintf("write back building %d", b.id), err)
}
