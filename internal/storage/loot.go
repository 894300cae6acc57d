package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

// Ground loot piles are keyed by tile; per-account building inventories by
// (building, account). Both are plain inventories merged on drop and
// deleted when empty.

// GetGroundLoot returns the loot inventory at the tile; an empty inventory
// when none exists.
func (t *Tx) GetGroundLoot(c hexgrid.Coord) types.Inventory {
	row := t.queryRow(`SELECT proto FROM ground_loot WHERE x = ? AND y = ?`, c.X, c.Y)
	var blob string
	err := row.Scan(&blob)
	if err == sql.ErrNoRows {
		return types.Inventory{}
	}
	mustSucceed(fmt.Sprintf("get ground loot at (%d,%d)", c.X, c.Y), err)
	var inv types.Inventory
	unmarshalProto(blob, &inv)
	return inv
}

// SetGroundLoot stores the loot inventory at the tile, deleting the row
// when the inventory is empty.
func (t *Tx) SetGroundLoot(c hexgrid.Coord, inv types.Inventory) {
	if inv.Empty() {
		_, err := t.exec(`DELETE FROM ground_loot WHERE x = ? AND y = ?`, c.X, c.Y)
		mustSucceed(fmt.Sprintf("delete ground loot at (%d,%d)", c.X, c.Y), err)
		return
	}
	_, err := t.exec(`
		INSERT INTO ground_loot (x, y, proto) VALUES (?, ?, ?)
		ON CONFLICT (x, y) DO UPDATE SET proto = excluded.proto
	`, c.X, c.Y, marshalProto(&inv))
	mustSucceed(fmt.Sprintf("set ground loot at (%d,%d)", c.X, c.Y), err)
}

// DropLoot merges items onto the tile's loot pile.
func (t *Tx) DropLoot(c hexgrid.Coord, drop types.Inventory) {
	if drop.Empty() {
		return
	}
	inv := t.GetGroundLoot(c)
	inv.Merge(drop)
	t.SetGroundLoot(c, inv)
}

// GroundLootTiles returns all tiles carrying loot in lexicographic order.
func (t *Tx) GroundLootTiles() []hexgrid.Coord {
	rows, err := t.query(`SELECT x, y FROM ground_loot ORDER BY x ASC, y ASC`)
	mustSucceed("query ground loot tiles", err)
	defer func() { _ = rows.Close() }()

	var res []hexgrid.Coord
	for rows.Next() {
		var c hexgrid.Coord
		mustSucceed("query ground loot tiles", rows.Scan(&c.X, &c.Y))
		res = append(res, c)
	}
	mustSucceed("query ground loot tiles", rows.Err())
	return res
}

// GetBuildingInventory returns the account's inventory stored in the
// building; empty when none exists.
func (t *Tx) GetBuildingInventory(buildingID int64, account string) types.Inventory {
	row := t.queryRow(`
		SELECT proto FROM building_inventories WHERE building_id = ? AND account = ?
	`, buildingID, account)
	var blob string
	err := row.Scan(&blob)
	if err == sql.ErrNoRows {
		return types.Inventory{}
	}
	mustSucceed(fmt.Sprintf("get inventory of %s in building %d", account, buildingID), err)
	var inv types.Inventory
	unmarshalProto(blob, &inv)
	return inv
}

// SetBuildingInventory stores the account's inventory in the building,
// deleting the row when empty.
func (t *Tx) SetBuildingInventory(buildingID int64, account string, inv types.Inventory) {
	if inv.Empty() {
		_, err := t.exec(`
			DELETE FROM building_inventories WHERE building_id = ? AND account = ?
		`, buildingID, account)
		mustSucceed(fmt.Sprintf("delete inventory of %s in building %d", account, buildingID), err)
		return
	}
	_, err := t.exec(`
		INSERT INTO building_inventories (building_id, account, proto) VALUES (?, ?, ?)
		ON CONFLICT (building_id, account) DO UPDATE SET proto = excluded.proto
	`, buildingID, account, marshalProto(&inv))
	mustSucceed(fmt.Sprintf("set inventory of %s in building %d", account, buildingID), err)
}

// BuildingInventoryAccounts returns the accounts with goods stored in the
// building, sorted by name.
func (t *Tx) BuildingInventoryAccounts(buildingID int64) []string {
	rows, err := t.query(`
		SELECT account FROM building_inventories WHERE building_id = ? ORDER BY account ASC
	`, buildingID)
	mustSucceed("query building inventory accounts", err)
	defer func() { _ = rows.Close() }()

	var res []string
	for rows.Next() {
		var a string
		mustSucceed("query building inventory accounts", rows.Scan(&a))
		res = append(res, a)
	}
	mustSucceed("query building inventory accounts", rows.Err())
	return res
}

// DeleteBuildingInventories drops every inventory stored in the building.
func (t *Tx) DeleteBuildingInventories(buildingID int64) {
	_, err := t.exec(`DELETE FROM building_inventories WHERE building_id = ?`, buildingID)
	mustSucceed(fmt.Sprintf("delete inventories of building %d", buildingID), err)
}
