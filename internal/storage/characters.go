package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

// Character is a working handle on one character row. It exclusively owns
// the right to mutate the row until released; Release writes back iff a
// mutator ran.
type Character struct {
	tx *Tx

	id            int64
	owner         string
	faction       types.Faction
	pos           *hexgrid.Coord
	inBuilding    int64
	enterBuilding int64
	busyBlocks    int
	target        *types.TargetID
	hp            types.HP
	regen         types.RegenData
	proto         types.CharacterProto

	dirty    bool
	released bool
}

const characterColumns = `id, owner, faction, x, y, in_building, enter_building,
	busy_blocks, target_kind, target_id,
	armour, shield, armour_mhp, shield_mhp, regen, proto`

// CreateCharacter inserts a new character on the map and returns its handle.
func (t *Tx) CreateCharacter(owner string, faction types.Faction, pos hexgrid.Coord,
	hp types.HP, regen types.RegenData, proto types.CharacterProto) *Character {

	c := &Character{
		tx:      t,
		id:      t.NextID(),
		owner:   owner,
		faction: faction,
		pos:     &pos,
		hp:      hp,
		regen:   regen,
		proto:   proto,
	}
	_, err := t.exec(`
		INSERT INTO characters (id, owner, faction, x, y,
			busy_blocks, moving, mining, attack_range, can_regen,
			armour, shield, armour_mhp, shield_mhp, regen, proto)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.id, owner, int(faction), pos.X, pos.Y,
		boolFlag(c.movingFlag()), boolFlag(c.miningFlag()),
		c.proto.Combat.MaxAttackRange(), boolFlag(c.canRegenFlag()),
		hp.Armour, hp.Shield, hp.ArmourMhp, hp.ShieldMhp,
		marshalProto(&regen), marshalProto(&proto))
	mustSucceed(fmt.Sprintf("insert character %d", c.id), err)
	return c
}

func scanCharacter(t *Tx, sc interface{ Scan(...any) error }) (*Character, error) {
	c := &Character{tx: t}
	var x, y, inBuilding, enterBuilding, targetKind, targetID sql.NullInt64
	var faction int
	var regenBlob, protoBlob string
	err := sc.Scan(&c.id, &c.owner, &faction, &x, &y, &inBuilding, &enterBuilding,
		&c.busyBlocks, &targetKind, &targetID,
		&c.hp.Armour, &c.hp.Shield, &c.hp.ArmourMhp, &c.hp.ShieldMhp,
		&regenBlob, &protoBlob)
	if err != nil {
		return nil, err
	}
	c.faction = types.Faction(faction)
	if x.Valid {
		c.pos = &hexgrid.Coord{X: int(x.Int64), Y: int(y.Int64)}
	}
	c.inBuilding = inBuilding.Int64
	c.enterBuilding = enterBuilding.Int64
	if targetKind.Valid {
		c.target = &types.TargetID{Kind: types.EntityKind(targetKind.Int64), ID: targetID.Int64}
	}
	unmarshalProto(regenBlob, &c.regen)
	unmarshalProto(protoBlob, &c.proto)
	return c, nil
}

// GetCharacter returns a handle on the character with the given id, or nil
// when it does not exist.
func (t *Tx) GetCharacter(id int64) *Character {
	row := t.queryRow(`SELECT `+characterColumns+` FROM characters WHERE id = ?`, id)
	c, err := scanCharacter(t, row)
	if err == sql.ErrNoRows {
		return nil
	}
	mustSucceed(fmt.Sprintf("get character %d", id), err)
	return c
}

func (t *Tx) queryCharacters(what string, where string, args ...any) []*Character {
	rows, err := t.query(`SELECT `+characterColumns+` FROM characters `+where+` ORDER BY id ASC`, args...)
	mustSucceed(what, err)
	defer func() { _ = rows.Close() }()

	var res []*Character
	for rows.Next() {
		c, err := scanCharacter(t, rows)
		mustSucceed(what, err)
		res = append(res, c)
	}
	mustSucceed(what, rows.Err())
	return res
}

// Characters returns handles on all characters, ordered by ascending id.
func (t *Tx) Characters() []*Character {
	return t.queryCharacters("query all characters", "")
}

// CharactersForOwner returns the owner's characters, ordered by id.
func (t *Tx) CharactersForOwner(owner string) []*Character {
	return t.queryCharacters("query characters of "+owner, "WHERE owner = ?", owner)
}

// CountCharacters returns how many characters the owner has.
func (t *Tx) CountCharacters(owner string) int {
	var n int
	err := t.queryRow(`SELECT COUNT(*) FROM characters WHERE owner = ?`, owner).Scan(&n)
	mustSucceed("count characters of "+owner, err)
	return n
}

// BusyCharacters returns all characters with busy_blocks > 0, by id.
func (t *Tx) BusyCharacters() []*Character {
	return t.queryCharacters("query busy characters", "WHERE busy_blocks > 0")
}

// MovingCharacters returns all characters with active movement, by id.
func (t *Tx) MovingCharacters() []*Character {
	return t.queryCharacters("query moving characters", "WHERE moving = 1")
}

// MiningCharacters returns all actively mining characters, by id.
func (t *Tx) MiningCharacters() []*Character {
	return t.queryCharacters("query mining characters", "WHERE mining = 1")
}

// ArmedCharacters returns all characters carrying any attack, by id.
func (t *Tx) ArmedCharacters() []*Character {
	return t.queryCharacters("query armed characters", "WHERE attack_range > 0")
}

// TargetingCharacters returns all characters with a combat target, by id.
func (t *Tx) TargetingCharacters() []*Character {
	return t.queryCharacters("query targeting characters", "WHERE target_kind IS NOT NULL")
}

// RegeneratingCharacters returns all characters that can regenerate, by id.
func (t *Tx) RegeneratingCharacters() []*Character {
	return t.queryCharacters("query regenerating characters", "WHERE can_regen = 1")
}

// EnteringCharacters returns all characters with a pending building entry.
func (t *Tx) EnteringCharacters() []*Character {
	return t.queryCharacters("query entering characters", "WHERE enter_building IS NOT NULL")
}

// CharactersAt returns all characters standing on the given tile, by id.
func (t *Tx) CharactersAt(c hexgrid.Coord) []*Character {
	return t.queryCharacters(fmt.Sprintf("query characters at (%d,%d)", c.X, c.Y),
		"WHERE x = ? AND y = ?", c.X, c.Y)
}

// CharactersInBuilding returns all characters inside the building, by id.
func (t *Tx) CharactersInBuilding(buildingID int64) []*Character {
	return t.queryCharacters(fmt.Sprintf("query characters in building %d", buildingID),
		"WHERE in_building = ?", buildingID)
}

// DeleteCharacter removes the character row. Any live handle on it must
// already be abandoned.
func (t *Tx) DeleteCharacter(id int64) {
	_, err := t.exec(`DELETE FROM characters WHERE id = ?`, id)
	mustSucceed(fmt.Sprintf("delete character %d", id), err)
}

// Accessors.

func (c *Character) ID() int64 { return c.id }
func (c *Character) Owner() string { return c.owner }
func (c *Character) Faction() types.Faction { return c.faction }
func (c *Character) BusyBlocks() int { return c.busyBlocks }
func (c *Character) InBuilding() int64 { return c.inBuilding }
func (c *Character) EnterBuilding() int64 { return c.enterBuilding }
func (c *Character) HP() types.HP { return c.hp }
func (c *Character) Regen() types.RegenData { return c.regen }
func (c *Character) Target() *types.TargetID { return c.target }

// Position returns the map position, or false when inside a building.
func (c *Character) Position() (hexgrid.Coord, bool) {
	if c.pos == nil {
		return hexgrid.Coord{}, false
	}
	return *c.pos, true
}

// Proto returns the structured blob for reading. Mutate only through
// MutableProto.
func (c *Character) Proto() *types.CharacterProto {
	return &c.proto
}

// MutableProto marks the handle dirty and returns the blob for mutation.
func (c *Character) MutableProto() *types.CharacterProto {
	c.dirty = true
	return &c.proto
}

// MutableHP marks the handle dirty and returns the hit points for mutation.
func (c *Character) MutableHP() *types.HP {
	c.dirty = true
	return &c.hp
}

// MutableRegen marks the handle dirty and returns regen data for mutation.
func (c *Character) MutableRegen() *types.RegenData {
	c.dirty = true
	return &c.regen
}

// SetPosition places the character on the map.
func (c *Character) SetPosition(p hexgrid.Coord) {
	c.dirty = true
	c.pos = &p
	c.inBuilding = 0
}

// SetInBuilding moves the character inside a building, clearing its map
// position and any pending entry.
func (c *Character) SetInBuilding(buildingID int64) {
	c.dirty = true
	c.pos = nil
	c.inBuilding = buildingID
	c.enterBuilding = 0
}

// SetEnterBuilding records an entry intent; zero clears it.
func (c *Character) SetEnterBuilding(buildingID int64) {
	c.dirty = true
	c.enterBuilding = buildingID
}

// SetBusyBlocks updates the busy countdown.
func (c *Character) SetBusyBlocks(n int) {
	if n < 0 {
		panic(fmt.Sprintf("character %d: negative busy blocks %d", c.id, n))
	}
	c.dirty = true
	c.busyBlocks = n
}

// SetTarget stores the combat target; nil clears it.
func (c *Character) SetTarget(target *types.TargetID) {
	c.dirty = true
	c.target = target
}

// TargetRef returns this character as a fighter reference.
func (c *Character) TargetRef() types.TargetID {
	return types.TargetID{Kind: types.KindCharacter, ID: c.id}
}

func (c *Character) movingFlag() bool {
	return c.proto.Movement != nil
}

func (c *Character) miningFlag() bool {
	return c.proto.Mining != nil && c.proto.Mining.Active
}

func (c *Character) canRegenFlag() bool {
	return (c.regen.ArmourRegenMhp > 0 && c.hp.Armour < c.regen.MaxArmour) ||
		(c.regen.ShieldRegenMhp > 0 && c.hp.Shield < c.regen.MaxShield)
}

// IsDirty reports whether Release will write back.
func (c *Character) IsDirty() bool { return c.dirty }

// Abandon invalidates the handle without writing back. Used after the row
// has been deleted.
func (c *Character) Abandon() { c.released = true }

// Release ends the handle's scope, writing the row back iff dirty.
func (c *Character) Release() {
	if c.released {
		panic(fmt.Sprintf("character handle %d released twice", c.id))
	}
	c.released = true
	if !c.dirty {
		return
	}

	var x, y, inBuilding, enterBuilding, targetKind, targetID any
	if c.pos != nil {
		x, y = c.pos.X, c.pos.Y
	}
	if c.inBuilding != 0 {
		inBuilding = c.inBuilding
	}
	if c.enterBuilding != 0 {
		enterBuilding = c.enterBuilding
	}
	if c.target != nil {
		targetKind, targetID = int(c.target.Kind), c.target.ID
	}

	_, err := c.tx.exec(`
		UPDATE characters SET
			owner = ?, faction = ?, x = ?, y = ?,
			in_building = ?, enter_building = ?, busy_blocks = ?,
			moving = ?, mining = ?, attack_range = ?, can_regen = ?,
			target_kind = ?, target_id = ?,
			armour = ?, shield = ?, armour_mhp = ?, shield_mhp = ?,
			regen = ?, proto = ?
		WHERE id = ?
	`, c.owner, int(c.faction), x, y,
		inBuilding, enterBuilding, c.busyBlocks,
		boolFlag(c.movingFlag()), boolFlag(c.miningFlag()),
		c.proto.Combat.MaxAttackRange(), boolFlag(c.canRegenFlag()),
		targetKind, targetID,
		c.hp.Armour, c.hp.Shield, c.hp.ArmourMhp, c.hp.ShieldMhp,
		marshalProto(&c.regen), marshalProto(&c.proto), c.id)
	mustSucceed(fmt.Sprintf("write back character %d", c.id), err)
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
