package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/types"
)

// Ongoing is a working handle on one ongoing-operation row. Exactly one of
// the character and building back-references is set.
type Ongoing struct {
	tx *Tx

	id          int64
	height      uint64
	characterID int64
	buildingID  int64
	proto       types.OngoingProto

	dirty    bool
	released bool
}

const ongoingColumns = `id, height, character_id, building_id, proto`

// CreateOngoing inserts a new ongoing operation. height is the block at
// which the operation finalises for operations not driven by a character's
// busy countdown; character-driven operations store the character instead.
func (t *Tx) CreateOngoing(height uint64, characterID, buildingID int64,
	proto types.OngoingProto) *Ongoing {

	proto.Case() // assert well-formed union
	o := &Ongoing{
		tx:          t,
		id:          t.NextID(),
		height:      height,
		characterID: characterID,
		buildingID:  buildingID,
		proto:       proto,
	}
	var charVal, bldgVal any
	if characterID != 0 {
		charVal = characterID
	}
	if buildingID != 0 {
		bldgVal = buildingID
	}
	_, err := t.exec(`
		INSERT INTO ongoing_operations (id, height, character_id, building_id, proto)
		VALUES (?, ?, ?, ?, ?)
	`, o.id, height, charVal, bldgVal, marshalProto(&proto))
	mustSucceed(fmt.Sprintf("insert ongoing operation %d", o.id), err)
	return o
}

func scanOngoing(t *Tx, sc interface{ Scan(...any) error }) (*Ongoing, error) {
	o := &Ongoing{tx: t}
	var charID, bldgID sql.NullInt64
	var protoBlob string
	if err := sc.Scan(&o.id, &o.height, &charID, &bldgID, &protoBlob); err != nil {
		return nil, err
	}
	o.characterID = charID.Int64
	o.buildingID = bldgID.Int64
	unmarshalProto(protoBlob, &o.proto)
	return o, nil
}

// GetOngoing returns a handle on the operation, or nil when it does not
// exist.
func (t *Tx) GetOngoing(id int64) *Ongoing {
	row := t.queryRow(`SELECT `+ongoingColumns+` FROM ongoing_operations WHERE id = ?`, id)
	o, err := scanOngoing(t, row)
	if err == sql.ErrNoRows {
		return nil
	}
	mustSucceed(fmt.Sprintf("get ongoing operation %d", id), err)
	return o
}

// OngoingDueAt returns building-driven operations scheduled to finalise at
// the given height, ordered by id.
func (t *Tx) OngoingDueAt(height uint64) []*Ongoing {
	rows, err := t.query(`
		SELECT `+ongoingColumns+` FROM ongoing_operations
		WHERE height = ? AND character_id IS NULL
		ORDER BY id ASC
	`, height)
	mustSucceed("query due ongoing operations", err)
	defer func() { _ = rows.Close() }()

	var res []*Ongoing
	for rows.Next() {
		o, err := scanOngoing(t, rows)
		mustSucceed("query due ongoing operations", err)
		res = append(res, o)
	}
	mustSucceed("query due ongoing operations", rows.Err())
	return res
}

// OngoingForBuilding returns all operations referencing the building.
func (t *Tx) OngoingForBuilding(buildingID int64) []*Ongoing {
	rows, err := t.query(`
		SELECT `+ongoingColumns+` FROM ongoing_operations
		WHERE building_id = ? ORDER BY id ASC
	`, buildingID)
	mustSucceed("query ongoing operations of building", err)
	defer func() { _ = rows.Close() }()

	var res []*Ongoing
	for rows.Next() {
		o, err := scanOngoing(t, rows)
		mustSucceed("query ongoing operations of building", err)
		res = append(res, o)
	}
	mustSucceed("query ongoing operations of building", rows.Err())
	return res
}

// AllOngoing returns every operation, ordered by id. Used by the validation
// pass.
func (t *Tx) AllOngoing() []*Ongoing {
	rows, err := t.query(`SELECT ` + ongoingColumns + ` FROM ongoing_operations ORDER BY id ASC`)
	mustSucceed("query all ongoing operations", err)
	defer func() { _ = rows.Close() }()

	var res []*Ongoing
	for rows.Next() {
		o, err := scanOngoing(t, rows)
		mustSucceed("query all ongoing operations", err)
		res = append(res, o)
	}
	mustSucceed("query all ongoing operations", rows.Err())
	return res
}

// DeleteOngoing removes the operation row.
func (t *Tx) DeleteOngoing(id int64) {
	_, err := t.exec(`DELETE FROM ongoing_operations WHERE id = ?`, id)
	mustSucceed(fmt.Sprintf("delete ongoing operation %d", id), err)
}

func (o *Ongoing) ID() int64 { return o.id }
func (o *Ongoing) Height() uint64 { return o.height }
func (o *Ongoing) CharacterID() int64 { return o.characterID }
func (o *Ongoing) BuildingID() int64 { return o.buildingID }

// Proto returns the tagged union for reading.
func (o *Ongoing) Proto() *types.OngoingProto { return &o.proto }

// MutableProto marks the handle dirty and returns the union for mutation.
func (o *Ongoing) MutableProto() *types.OngoingProto {
	o.dirty = true
	return &o.proto
}

// SetHeight reschedules the operation.
func (o *Ongoing) SetHeight(height uint64) {
	o.dirty = true
	o.height = height
}

// Abandon invalidates the handle without writing back.
func (o *Ongoing) Abandon() { o.released = true }

// Release writes the row back iff dirty.
func (o *Ongoing) Release() {
	if o.released {
		panic(fmt.Sprintf("ongoing handle %d released twice", o.id))
	}
	o.released = true
	if !o.dirty {
		return
	}
	_, err := o.tx.exec(`
		UPDATE ongoing_operations SET height = ?, proto = ? WHERE id = ?
	`, o.height, marshalProto(&o.proto), o.id)
	mustSucceed(fmt.Sprintf("write back ongoing operation %d", o.id), err)
}
