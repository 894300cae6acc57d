package storage

import (
	"fmt"
)

// Order side constants.
const (
	OrderBid = 0
	OrderAsk = 1
)

// Order is one resting trade order in a building's book. Bids have reserved
// coins (quantity*price), asks reserved items; the reservation is released
// on cancel, fill or building destruction.
type Order struct {
	ID         int64
	BuildingID int64
	Account    string
	Side       int
	Item       string
	Quantity   int64
	Price      int64
}

// CreateOrder inserts a resting order and returns its id.
func (t *Tx) CreateOrder(o Order) int64 {
	id := t.NextID()
	_, err := t.exec(`
		INSERT INTO trade_orders (id, building_id, account, side, item, quantity, price)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, o.BuildingID, o.Account, o.Side, o.Item, o.Quantity, o.Price)
	mustSucceed(fmt.Sprintf("insert order %d", id), err)
	return id
}

// GetOrder returns the order, or nil when it does not exist.
func (t *Tx) GetOrder(id int64) *Order {
	rows := t.ordersWhere("get order", "WHERE id = ?", id)
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// OrdersForBook returns the resting orders of one side of a building's
// book for an item. Bids come highest price first, asks lowest price first;
// ties break by order id (oldest first).
func (t *Tx) OrdersForBook(buildingID int64, item string, side int) []Order {
	dir := "ASC"
	if side == OrderBid {
		dir = "DESC"
	}
	return t.ordersWhere("query order book",
		fmt.Sprintf("WHERE building_id = ? AND item = ? AND side = ? ORDER BY price %s, id ASC", dir),
		buildingID, item, side)
}

// OrdersForBuilding returns every resting order in the building, by id.
func (t *Tx) OrdersForBuilding(buildingID int64) []Order {
	return t.ordersWhere("query building orders",
		"WHERE building_id = ? ORDER BY id ASC", buildingID)
}

func (t *Tx) ordersWhere(what, where string, args ...any) []Order {
	query := `SELECT id, building_id, account, side, item, quantity, price FROM trade_orders ` + where
	rows, err := t.query(query, args...)
	mustSucceed(what, err)
	defer func() { _ = rows.Close() }()

	var res []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.BuildingID, &o.Account, &o.Side, &o.Item, &o.Quantity, &o.Price)
		mustSucceed(what, err)
		res = append(res, o)
	}
	mustSucceed(what, rows.Err())
	return res
}

// UpdateOrderQuantity shrinks a partially filled order; zero deletes it.
func (t *Tx) UpdateOrderQuantity(id, quantity int64) {
	if quantity < 0 {
		panic(fmt.Sprintf("order %d: negative quantity %d", id, quantity))
	}
	if quantity == 0 {
		t.DeleteOrder(id)
		return
	}
	_, err := t.exec(`UPDATE trade_orders SET quantity = ? WHERE id = ?`, quantity, id)
	mustSucceed(fmt.Sprintf("update order %d", id), err)
}

// DeleteOrder removes the order row.
func (t *Tx) DeleteOrder(id int64) {
	_, err := t.exec(`DELETE FROM trade_orders WHERE id = ?`, id)
	mustSucceed(fmt.Sprintf("delete order %d", id), err)
}
