package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/types"
)

// Region is a working handle on one region row. Rows are materialised
// lazily: an untouched region has no row and reads as the trivial state.
type Region struct {
	tx *Tx

	id             int64
	modifiedHeight uint64
	resourceLeft   int64
	proto          types.RegionProto

	persisted bool
	dirty     bool
	released  bool
}

// GetRegion returns a handle on the region, materialising the trivial state
// in memory when no row exists yet.
func (t *Tx) GetRegion(id int64, height uint64) *Region {
	row := t.queryRow(`
		SELECT id, modified_height, resource_left, proto FROM regions WHERE id = ?
	`, id)
	r := &Region{tx: t}
	var protoBlob string
	err := row.Scan(&r.id, &r.modifiedHeight, &r.resourceLeft, &protoBlob)
	if err == sql.ErrNoRows {
		return &Region{tx: t, id: id, modifiedHeight: height}
	}
	mustSucceed(fmt.Sprintf("get region %d", id), err)
	unmarshalProto(protoBlob, &r.proto)
	r.persisted = true
	return r
}

// ProspectedRegions returns all persisted regions with a prospection
// result, ordered by id.
func (t *Tx) ProspectedRegions() []*Region {
	rows, err := t.query(`
		SELECT id, modified_height, resource_left, proto FROM regions ORDER BY id ASC
	`)
	mustSucceed("query regions", err)
	defer func() { _ = rows.Close() }()

	var res []*Region
	for rows.Next() {
		r := &Region{tx: t, persisted: true}
		var protoBlob string
		err := rows.Scan(&r.id, &r.modifiedHeight, &r.resourceLeft, &protoBlob)
		mustSucceed("query regions", err)
		unmarshalProto(protoBlob, &r.proto)
		if r.proto.Prospection != nil {
			res = append(res, r)
		}
	}
	mustSucceed("query regions", rows.Err())
	return res
}

func (r *Region) ID() int64 { return r.id }
func (r *Region) ResourceLeft() int64 { return r.resourceLeft }

// Proto returns the structured blob for reading.
func (r *Region) Proto() *types.RegionProto { return &r.proto }

// MutableProto marks the handle dirty and returns the blob for mutation.
func (r *Region) MutableProto() *types.RegionProto {
	r.dirty = true
	return &r.proto
}

// SetResourceLeft updates the remaining minable resource.
func (r *Region) SetResourceLeft(n int64) {
	if n < 0 {
		panic(fmt.Sprintf("region %d: negative resource %d", r.id, n))
	}
	r.dirty = true
	r.resourceLeft = n
}

// Touch records the height of the current modification.
func (r *Region) Touch(height uint64) {
	r.modifiedHeight = height
}

// Release writes the row back iff dirty, inserting it on first change.
func (r *Region) Release() {
	if r.released {
		panic(fmt.Sprintf("region handle %d released twice", r.id))
	}
	r.released = true
	if !r.dirty {
		return
	}
	if r.persisted {
		_, err := r.tx.exec(`
			UPDATE regions SET modified_height = ?, resource_left = ?, proto = ?
			WHERE id = ?
		`, r.modifiedHeight, r.resourceLeft, marshalProto(&r.proto), r.id)
		mustSucceed(fmt.Sprintf("write back region %d", r.id), err)
		return
	}
	_, err := r.tx.exec(`
		INSERT INTO regions (id, modified_height, resource_left, proto)
		VALUES (?, ?, ?, ?)
	`, r.id, r.modifiedHeight, r.resourceLeft, marshalProto(&r.proto))
	mustSucceed(fmt.Sprintf("materialise region %d", r.id), err)
}
