package types

import (
	"fmt"
	"sort"
)

// Inventory is a multiset of fungible items. Serialization is deterministic
// because encoding/json writes map keys in sorted order; in-memory traversal
// must go through Names() instead of ranging the map directly.
type Inventory struct {
	Items map[string]int64 `json:"items,omitempty"`
}

// NewInventory returns an empty inventory.
func NewInventory() Inventory {
	return Inventory{}
}

// Quantity returns the stored amount of the item, zero if absent.
func (inv *Inventory) Quantity(item string) int64 {
	return inv.Items[item]
}

// Empty reports whether no item has a positive quantity.
func (inv *Inventory) Empty() bool {
	return len(inv.Items) == 0
}

// Names returns the item names in sorted order.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.Items))
	for n := range inv.Items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CanAdd reports whether adding delta to the item keeps the quantity within
// [0, MaxQuantity]. Used by move validation before committing a change.
func (inv *Inventory) CanAdd(item string, delta int64) bool {
	cur := inv.Quantity(item)
	next := cur + delta
	return next >= 0 && next <= MaxQuantity
}

// Add changes the quantity of item by delta. Violating the quantity bounds
// is an invariant failure: validation must have rejected the change first.
func (inv *Inventory) Add(item string, delta int64) {
	if delta == 0 {
		return
	}
	cur := inv.Quantity(item)
	next := cur + delta
	if next < 0 || next > MaxQuantity {
		panic(fmt.Sprintf("inventory: quantity of %q out of bounds: %d%+d", item, cur, delta))
	}
	if inv.Items == nil {
		inv.Items = make(map[string]int64)
	}
	if next == 0 {
		delete(inv.Items, item)
		if len(inv.Items) == 0 {
			inv.Items = nil
		}
		return
	}
	inv.Items[item] = next
}

// SetQuantity forces the quantity of item to n within bounds.
func (inv *Inventory) SetQuantity(item string, n int64) {
	inv.Add(item, n-inv.Quantity(item))
}

// Merge adds every item of other into the inventory.
func (inv *Inventory) Merge(other Inventory) {
	for _, name := range other.Names() {
		inv.Add(name, other.Quantity(name))
	}
}

// Clear removes all items.
func (inv *Inventory) Clear() {
	inv.Items = nil
}

// Clone returns a deep copy.
func (inv *Inventory) Clone() Inventory {
	if len(inv.Items) == 0 {
		return Inventory{}
	}
	items := make(map[string]int64, len(inv.Items))
	for k, v := range inv.Items {
		items[k] = v
	}
	return Inventory{Items: items}
}

// TotalUnits returns the summed quantity over all items. With per-item
// bounds in force the sum of any realistic inventory fits comfortably in
// an int64.
func (inv *Inventory) TotalUnits() int64 {
	var total int64
	for _, v := range inv.Items {
		total += v
	}
	return total
}
