package moves

import (
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

type placeOrdCmd struct {
	Building int64  `json:"b"`
	Side     string `json:"side"`
	Item     string `json:"i"`
	Quantity int64  `json:"n"`
	Price    int64  `json:"p"`
}

// handlePlaceOrder reserves the bid coins or ask items, matches the order
// against the best crossing resting orders and leaves any remainder in the
// book.
func handlePlaceOrder(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *placeOrdCmd) {
	var side int
	switch cmd.Side {
	case "bid":
		side = storage.OrderBid
	case "ask":
		side = storage.OrderAsk
	default:
		ctx.Debugf("%s: bad order side %q", name, cmd.Side)
		return
	}
	if cmd.Quantity <= 0 || cmd.Quantity > types.MaxQuantity ||
		cmd.Price <= 0 || cmd.Price > types.MaxQuantity {
		ctx.Debugf("%s: order bounds violated (%d @ %d)", name, cmd.Quantity, cmd.Price)
		return
	}
	if _, ok := ctx.Cfg.Items[cmd.Item]; !ok {
		ctx.Debugf("%s: unknown item %q", name, cmd.Item)
		return
	}
	b := tx.GetBuilding(cmd.Building)
	if b == nil || b.Proto().Foundation {
		if b != nil {
			b.Release()
		}
		ctx.Debugf("%s: building %d has no market", name, cmd.Building)
		return
	}
	b.Release()

	// Reserve before matching: fills consume the reservation.
	switch side {
	case storage.OrderBid:
		acct := tx.GetAccount(name)
		total := cmd.Quantity * cmd.Price
		if acct.Coins() < total {
			ctx.Debugf("%s: %d coins short for bid", name, total-acct.Coins())
			acct.Release()
			return
		}
		acct.AddCoins(-total)
		acct.Release()
	case storage.OrderAsk:
		inv := tx.GetBuildingInventory(cmd.Building, name)
		if inv.Quantity(cmd.Item) < cmd.Quantity {
			ctx.Debugf("%s: only %d %s stored for ask", name, inv.Quantity(cmd.Item), cmd.Item)
			return
		}
		inv.Add(cmd.Item, -cmd.Quantity)
		tx.SetBuildingInventory(cmd.Building, name, inv)
	}

	order := storage.Order{
		BuildingID: cmd.Building,
		Account:    name,
		Side:       side,
		Item:       cmd.Item,
		Quantity:   cmd.Quantity,
		Price:      cmd.Price,
	}
	remaining := matchOrder(tx, ctx, order)
	if remaining > 0 {
		order.Quantity = remaining
		tx.CreateOrder(order)
	}
}

// matchOrder crosses the incoming order against the opposite side of the
// book, best price first, ties by order age. Trades settle at the resting
// order's price; a bid that crosses a cheaper ask gets the difference of
// its reservation refunded. Returns the unmatched remainder.
func matchOrder(tx *storage.Tx, ctx *gamectx.Context, incoming storage.Order) int64 {
	opposite := storage.OrderAsk
	if incoming.Side == storage.OrderAsk {
		opposite = storage.OrderBid
	}
	remaining := incoming.Quantity

	for _, resting := range tx.OrdersForBook(incoming.BuildingID, incoming.Item, opposite) {
		if remaining == 0 {
			break
		}
		crosses := false
		if incoming.Side == storage.OrderBid {
			crosses = resting.Price <= incoming.Price
		} else {
			crosses = resting.Price >= incoming.Price
		}
		if !crosses {
			break
		}

		qty := remaining
		if resting.Quantity < qty {
			qty = resting.Quantity
		}

		var buyer, seller string
		var tradePrice int64
		if incoming.Side == storage.OrderBid {
			buyer, seller = incoming.Account, resting.Account
			tradePrice = resting.Price
			// Refund the difference between the reserved bid price and
			// the actual fill price.
			if diff := incoming.Price - tradePrice; diff > 0 {
				acct := tx.GetAccount(buyer)
				acct.AddCoins(diff * qty)
				acct.Release()
			}
		} else {
			buyer, seller = resting.Account, incoming.Account
			tradePrice = resting.Price
		}

		// Items to the buyer's building inventory, coins to the seller.
		inv := tx.GetBuildingInventory(incoming.BuildingID, buyer)
		inv.Add(incoming.Item, qty)
		tx.SetBuildingInventory(incoming.BuildingID, buyer, inv)

		acct := tx.GetAccount(seller)
		acct.AddCoins(tradePrice * qty)
		acct.Release()

		tx.UpdateOrderQuantity(resting.ID, resting.Quantity-qty)
		remaining -= qty
	}
	return remaining
}

type cancelOrdCmd struct {
	Order int64 `json:"o"`
}

// handleCancelOrder returns the reservation of an own resting order.
func handleCancelOrder(tx *storage.Tx, ctx *gamectx.Context, name string, cmd *cancelOrdCmd) {
	o := tx.GetOrder(cmd.Order)
	if o == nil || o.Account != name {
		ctx.Debugf("%s cannot cancel order %d", name, cmd.Order)
		return
	}

	switch o.Side {
	case storage.OrderBid:
		acct := tx.GetAccount(name)
		acct.AddCoins(o.Quantity * o.Price)
		acct.Release()
	case storage.OrderAsk:
		inv := tx.GetBuildingInventory(o.BuildingID, name)
		inv.Add(o.Item, o.Quantity)
		tx.SetBuildingInventory(o.BuildingID, name, inv)
	}
	tx.DeleteOrder(o.ID)
}
