package storage

import (
	"context"
	"testing"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/types"
)

// newTestStore creates a file-backed store in a temp dir. File-based
// databases behave closer to production than shared in-memory ones.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), t.TempDir()+"/state.db")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})
	return store
}

func runBlock(t *testing.T, s *Store, fn func(*Tx)) {
	t.Helper()
	err := s.RunBlock(context.Background(), func(tx *Tx) error {
		fn(tx)
		return nil
	})
	if err != nil {
		t.Fatalf("block transaction: %v", err)
	}
}

func basicCharacter(tx *Tx, owner string) *Character {
	return tx.CreateCharacter(owner, types.FactionRed, hexgrid.Coord{X: 1, Y: 2},
		types.HP{Armour: 100, Shield: 30},
		types.RegenData{MaxArmour: 100, MaxShield: 30, ShieldRegenMhp: 500},
		types.CharacterProto{Vehicle: "scarab", Speed: 3000, CargoSpace: 20})
}

func TestCharacterRoundTrip(t *testing.T) {
	s := newTestStore(t)

	var id int64
	runBlock(t, s, func(tx *Tx) {
		c := basicCharacter(tx, "alice")
		id = c.ID()
		c.Release()
	})

	runBlock(t, s, func(tx *Tx) {
		c := tx.GetCharacter(id)
		if c == nil {
			t.Fatal("character not found after commit")
		}
		defer c.Release()

		if c.Owner() != "alice" || c.Faction() != types.FactionRed {
			t.Errorf("owner/faction = %s/%v", c.Owner(), c.Faction())
		}
		pos, onMap := c.Position()
		if !onMap || pos != (hexgrid.Coord{X: 1, Y: 2}) {
			t.Errorf("position = %v, %v", pos, onMap)
		}
		if c.Proto().Vehicle != "scarab" {
			t.Errorf("vehicle = %q", c.Proto().Vehicle)
		}
		if c.HP().Shield != 30 {
			t.Errorf("shield = %d", c.HP().Shield)
		}
	})

	if got := tx2id(t, s); got != id {
		t.Errorf("lookup by query returned id %d, want %d", got, id)
	}
}

func tx2id(t *testing.T, s *Store) int64 {
	t.Helper()
	var id int64
	runBlock(t, s, func(tx *Tx) {
		all := tx.Characters()
		if len(all) != 1 {
			t.Fatalf("expected 1 character, got %d", len(all))
		}
		id = all[0].ID()
		all[0].Release()
	})
	return id
}

func TestDirtyWriteBack(t *testing.T) {
	s := newTestStore(t)

	var id int64
	runBlock(t, s, func(tx *Tx) {
		c := basicCharacter(tx, "alice")
		id = c.ID()
		c.Release()
	})

	// Pure read: handle stays clean, nothing is written.
	runBlock(t, s, func(tx *Tx) {
		c := tx.GetCharacter(id)
		_ = c.HP()
		if c.IsDirty() {
			t.Error("reading must not dirty the handle")
		}
		c.Release()
	})

	// Mutation through a Mutable accessor persists.
	runBlock(t, s, func(tx *Tx) {
		c := tx.GetCharacter(id)
		c.MutableHP().Shield = 7
		if !c.IsDirty() {
			t.Error("MutableHP must dirty the handle")
		}
		c.Release()
	})
	runBlock(t, s, func(tx *Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		if c.HP().Shield != 7 {
			t.Errorf("shield = %d after write back", c.HP().Shield)
		}
	})
}

func TestDoubleReleasePanics(t *testing.T) {
	s := newTestStore(t)
	err := s.RunBlock(context.Background(), func(tx *Tx) error {
		c := basicCharacter(tx, "alice")
		c.Release()
		defer func() {
			if recover() == nil {
				t.Error("double release must panic")
			}
		}()
		c.Release()
		return nil
	})
	if err != nil {
		t.Fatalf("block transaction: %v", err)
	}
}

func TestRollbackOnError(t *testing.T) {
	s := newTestStore(t)
	wantErr := context.Canceled
	err := s.RunBlock(context.Background(), func(tx *Tx) error {
		c := basicCharacter(tx, "alice")
		c.Release()
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("RunBlock error = %v", err)
	}

	runBlock(t, s, func(tx *Tx) {
		if n := tx.CountCharacters("alice"); n != 0 {
			t.Errorf("rolled-back character visible, count = %d", n)
		}
	})
}

func TestIDAllocationMonotonic(t *testing.T) {
	s := newTestStore(t)
	runBlock(t, s, func(tx *Tx) {
		a := tx.NextID()
		b := tx.NextID()
		if b != a+1 {
			t.Errorf("ids not consecutive: %d, %d", a, b)
		}
	})
	// Ids survive across blocks and are never reused.
	runBlock(t, s, func(tx *Tx) {
		c := tx.NextID()
		if c <= 2 {
			t.Errorf("id %d reused after restart of transaction", c)
		}
	})
}

func TestIndexedFlags(t *testing.T) {
	s := newTestStore(t)

	runBlock(t, s, func(tx *Tx) {
		c := basicCharacter(tx, "alice")
		p := c.MutableProto()
		p.Mining = &types.Mining{Rate: types.MinMax{Min: 1, Max: 3}, Active: true}
		p.Movement = &types.Movement{Waypoints: []hexgrid.Coord{{X: 5, Y: 5}}}
		c.Release()

		d := basicCharacter(tx, "bob")
		d.SetBusyBlocks(3)
		d.Release()
	})

	runBlock(t, s, func(tx *Tx) {
		if got := len(tx.MiningCharacters()); got != 1 {
			t.Errorf("mining characters = %d", got)
		}
		if got := len(tx.MovingCharacters()); got != 1 {
			t.Errorf("moving characters = %d", got)
		}
		busy := tx.BusyCharacters()
		if len(busy) != 1 || busy[0].Owner() != "bob" {
			t.Errorf("busy characters = %v", busy)
		}
		for _, c := range append(tx.MiningCharacters(), append(tx.MovingCharacters(), busy...)...) {
			c.Abandon()
		}
	})
}

func TestRegionLazyMaterialisation(t *testing.T) {
	s := newTestStore(t)

	runBlock(t, s, func(tx *Tx) {
		r := tx.GetRegion(42, 10)
		// Untouched region: releasing must not create a row.
		r.Release()
	})
	runBlock(t, s, func(tx *Tx) {
		if regions := tx.ProspectedRegions(); len(regions) != 0 {
			t.Errorf("unexpected persisted regions: %d", len(regions))
		}
	})

	runBlock(t, s, func(tx *Tx) {
		r := tx.GetRegion(42, 11)
		r.MutableProto().Prospection = &types.ProspectionResult{
			Name: "alice", Height: 11, Resource: "ore",
		}
		r.SetResourceLeft(500)
		r.Touch(11)
		r.Release()
	})
	runBlock(t, s, func(tx *Tx) {
		r := tx.GetRegion(42, 12)
		defer r.Release()
		if r.ResourceLeft() != 500 {
			t.Errorf("resource left = %d", r.ResourceLeft())
		}
		if r.Proto().Prospection == nil || r.Proto().Prospection.Resource != "ore" {
			t.Errorf("prospection = %+v", r.Proto().Prospection)
		}
	})
}

func TestGroundLootMergeAndDelete(t *testing.T) {
	s := newTestStore(t)
	tile := hexgrid.Coord{X: 3, Y: -1}

	runBlock(t, s, func(tx *Tx) {
		drop := types.NewInventory()
		drop.Add("ore", 5)
		tx.DropLoot(tile, drop)

		more := types.NewInventory()
		more.Add("ore", 2)
		more.Add("crystal", 1)
		tx.DropLoot(tile, more)
	})

	runBlock(t, s, func(tx *Tx) {
		inv := tx.GetGroundLoot(tile)
		if inv.Quantity("ore") != 7 || inv.Quantity("crystal") != 1 {
			t.Errorf("merged loot = %v", inv.Items)
		}
		inv.Add("ore", -7)
		inv.Add("crystal", -1)
		tx.SetGroundLoot(tile, inv)
	})

	runBlock(t, s, func(tx *Tx) {
		if tiles := tx.GroundLootTiles(); len(tiles) != 0 {
			t.Errorf("empty pile still listed: %v", tiles)
		}
	})
}

func TestOrderBookOrdering(t *testing.T) {
	s := newTestStore(t)

	runBlock(t, s, func(tx *Tx) {
		tx.CreateOrder(Order{BuildingID: 1, Account: "a", Side: OrderBid, Item: "ore", Quantity: 1, Price: 5})
		tx.CreateOrder(Order{BuildingID: 1, Account: "b", Side: OrderBid, Item: "ore", Quantity: 1, Price: 9})
		tx.CreateOrder(Order{BuildingID: 1, Account: "c", Side: OrderBid, Item: "ore", Quantity: 1, Price: 9})
		tx.CreateOrder(Order{BuildingID: 1, Account: "d", Side: OrderAsk, Item: "ore", Quantity: 1, Price: 12})
		tx.CreateOrder(Order{BuildingID: 1, Account: "e", Side: OrderAsk, Item: "ore", Quantity: 1, Price: 11})
	})

	runBlock(t, s, func(tx *Tx) {
		bids := tx.OrdersForBook(1, "ore", OrderBid)
		if len(bids) != 3 || bids[0].Account != "b" || bids[1].Account != "c" || bids[2].Account != "a" {
			t.Errorf("bid ordering wrong: %+v", bids)
		}
		asks := tx.OrdersForBook(1, "ore", OrderAsk)
		if len(asks) != 2 || asks[0].Account != "e" {
			t.Errorf("ask ordering wrong: %+v", asks)
		}
	})
}

func TestDamageListWindow(t *testing.T) {
	s := newTestStore(t)
	victim := types.TargetID{Kind: types.KindCharacter, ID: 7}

	runBlock(t, s, func(tx *Tx) {
		tx.RecordDamage(victim, "alice", 100)
		tx.RecordDamage(victim, "bob", 150)
		// Re-recording refreshes the height.
		tx.RecordDamage(victim, "alice", 160)
	})

	runBlock(t, s, func(tx *Tx) {
		tx.PruneDamageLists(151)
		attackers := tx.DamageAttackers(victim)
		if len(attackers) != 1 || attackers[0] != "alice" {
			t.Errorf("attackers after prune = %v", attackers)
		}
		tx.ClearDamageFor(victim)
		if got := tx.DamageAttackers(victim); len(got) != 0 {
			t.Errorf("attackers after clear = %v", got)
		}
	})
}

func TestBlockMeta(t *testing.T) {
	s := newTestStore(t)
	runBlock(t, s, func(tx *Tx) {
		if _, _, ok := tx.CurrentBlock(); ok {
			t.Error("fresh store claims a processed block")
		}
		if tx.IsInitialised() {
			t.Error("fresh store claims initialisation")
		}
		tx.SetCurrentBlock(55, "aa")
		tx.MarkInitialised()
	})
	runBlock(t, s, func(tx *Tx) {
		h, hash, ok := tx.CurrentBlock()
		if !ok || h != 55 || hash != "aa" {
			t.Errorf("current block = %d %q %v", h, hash, ok)
		}
		if !tx.IsInitialised() {
			t.Error("initialisation flag lost")
		}
	})
}

func TestPrizeCounters(t *testing.T) {
	s := newTestStore(t)
	runBlock(t, s, func(tx *Tx) {
		if tx.PrizesFound("gold") != 0 {
			t.Error("fresh counter non-zero")
		}
		tx.IncrementPrizesFound("gold")
		tx.IncrementPrizesFound("gold")
		if tx.PrizesFound("gold") != 2 {
			t.Errorf("gold counter = %d", tx.PrizesFound("gold"))
		}
	})
}

func TestBuildingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	var id int64
	runBlock(t, s, func(tx *Tx) {
		b := tx.CreateBuilding("obelisk", "", types.FactionAncient, hexgrid.Coord{X: 10, Y: -5},
			types.HP{Armour: 2000, Shield: 500},
			types.RegenData{MaxArmour: 2000, MaxShield: 500, ShieldRegenMhp: 1000},
			types.BuildingProto{})
		id = b.ID()
		b.Release()
	})

	runBlock(t, s, func(tx *Tx) {
		b := tx.GetBuilding(id)
		if b == nil {
			t.Fatal("building not found")
		}
		defer b.Release()
		if !b.IsAncient() {
			t.Error("ownerless building must be ancient")
		}
		if b.Centre() != (hexgrid.Coord{X: 10, Y: -5}) {
			t.Errorf("centre = %v", b.Centre())
		}
		// Shield below max and a regen rate: must show up as regenerating.
		b.MutableHP().Shield = 100
	})
	runBlock(t, s, func(tx *Tx) {
		regen := tx.RegeneratingBuildings()
		if len(regen) != 1 {
			t.Fatalf("regenerating buildings = %d", len(regen))
		}
		regen[0].Abandon()
	})
}
