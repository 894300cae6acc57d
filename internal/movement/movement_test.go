package movement

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/rnd"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), t.TempDir()+"/state.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testCtx(t *testing.T, def mapdata.Definition, prm *params.Params) *gamectx.Context {
	t.Helper()
	world, err := mapdata.New(def)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if prm == nil {
		prm = params.ForChain(params.ChainRegtest)
	}
	return &gamectx.Context{
		Params: prm,
		Map:    world,
		Cfg:    gamecfg.MustLoad(),
		Height: 100,
		Rnd:    rnd.NewStream([sha256.Size]byte{1}),
	}
}

func flatMap() mapdata.Definition {
	return mapdata.Definition{Radius: 100, DefaultWeight: 1000, RegionSize: 10}
}

func run(t *testing.T, s *storage.Store, fn func(*storage.Tx)) {
	t.Helper()
	err := s.RunBlock(context.Background(), func(tx *storage.Tx) error {
		fn(tx)
		return nil
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
}

func addMover(tx *storage.Tx, f types.Faction, pos hexgrid.Coord, speed int64,
	waypoints ...hexgrid.Coord) *storage.Character {

	proto := types.CharacterProto{Vehicle: "scarab", Speed: speed}
	if len(waypoints) > 0 {
		proto.Movement = &types.Movement{Waypoints: waypoints}
	}
	return tx.CreateCharacter("mover", f, pos,
		types.HP{Armour: 100}, types.RegenData{MaxArmour: 100}, proto)
}

func TestEdgeWeightStarterZones(t *testing.T) {
	def := flatMap()
	def.Patches = []mapdata.Patch{{X: 0, Y: 0, Radius: 10, Weight: 30}}
	def.SafeZones = []mapdata.SafeZoneDef{{X: 0, Y: 0, Radius: 5, Faction: "red"}}
	world, err := mapdata.New(def)
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	from := hexgrid.Coord{X: 0, Y: 0}
	to := hexgrid.Coord{X: 1, Y: 0}

	// Same faction: base weight 30 divided by 3.
	if w := EdgeWeight(world, 3, types.FactionRed, from, to); w != 10 {
		t.Errorf("red transit = %d, want 10", w)
	}
	// Other factions are blocked entirely.
	if w := EdgeWeight(world, 3, types.FactionGreen, from, to); w != mapdata.NoConnection {
		t.Errorf("green transit = %d, want NoConnection", w)
	}
	// Outside the zone the plain weight applies.
	out1 := hexgrid.Coord{X: 8, Y: 0}
	out2 := hexgrid.Coord{X: 9, Y: 0}
	if w := EdgeWeight(world, 3, types.FactionGreen, out1, out2); w != 30 {
		t.Errorf("weight outside zone = %d, want 30", w)
	}
}

func TestSimpleMovement(t *testing.T) {
	s := testStore(t)
	ctx := testCtx(t, flatMap(), nil)

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 3000, hexgrid.Coord{X: 5, Y: 0})
		id = c.ID()
		c.Release()
	})

	// Speed 3000 against weight 1000 covers three tiles per block.
	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{}, types.FactionRed)
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		if pos != (hexgrid.Coord{X: 3, Y: 0}) {
			t.Errorf("after one block at %v, want (3,0)", pos)
		}
	})

	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{X: 3, Y: 0}, types.FactionRed)
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		if pos != (hexgrid.Coord{X: 5, Y: 0}) {
			t.Errorf("after two blocks at %v, want (5,0)", pos)
		}
		if c.Proto().Movement != nil {
			t.Error("movement must clear at the final waypoint")
		}
	})
}

func TestPartialStepAccumulation(t *testing.T) {
	s := testStore(t)
	ctx := testCtx(t, flatMap(), nil)

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 400, hexgrid.Coord{X: 2, Y: 0})
		id = c.ID()
		c.Release()
	})

	// Speed 400 against weight 1000: the first two blocks accumulate,
	// the third crosses the threshold.
	for block := 1; block <= 3; block++ {
		run(t, s, func(tx *storage.Tx) {
			dyn := dynobstacles.New()
			c := tx.GetCharacter(id)
			pos, _ := c.Position()
			c.Release()
			dyn.AddVehicle(pos, types.FactionRed)
			ProcessMovement(tx, ctx, dyn)
		})
		run(t, s, func(tx *storage.Tx) {
			c := tx.GetCharacter(id)
			defer c.Release()
			pos, _ := c.Position()
			wantX := 0
			if block == 3 {
				wantX = 1
			}
			if pos.X != wantX {
				t.Errorf("block %d: at x=%d, want %d", block, pos.X, wantX)
			}
		})
	}
}

func TestVehicleBlockingPreFork(t *testing.T) {
	s := testStore(t)
	prm := params.TestParams(map[params.Fork]uint64{params.ForkUnblockVehicles: 1000})
	ctx := testCtx(t, flatMap(), prm) // height 100, fork inactive

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 3000, hexgrid.Coord{X: 2, Y: 0})
		id = c.ID()
		c.Release()
	})

	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{}, types.FactionRed)
		dyn.AddVehicle(hexgrid.Coord{X: 1, Y: 0}, types.FactionGreen)
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		if pos != (hexgrid.Coord{}) {
			t.Errorf("pre-fork: moved onto blocked tile, at %v", pos)
		}
		if c.Proto().Movement.BlockedTurns != 1 {
			t.Errorf("blocked turns = %d, want 1", c.Proto().Movement.BlockedTurns)
		}
	})
}

func TestVehicleBlockingPostFork(t *testing.T) {
	s := testStore(t)
	ctx := testCtx(t, flatMap(), nil) // regtest: fork active from height 0

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 3000, hexgrid.Coord{X: 2, Y: 0})
		id = c.ID()
		c.Release()
	})

	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{}, types.FactionRed)
		dyn.AddVehicle(hexgrid.Coord{X: 1, Y: 0}, types.FactionGreen)
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		// Stepping onto the occupied tile costs 1000 + 2000 penalty,
		// which consumes the whole block's speed: the character makes
		// the step but no further progress.
		if pos != (hexgrid.Coord{X: 1, Y: 0}) {
			t.Errorf("post-fork: at %v, want (1,0)", pos)
		}
		if c.Proto().Movement.PartialStep != 0 {
			t.Errorf("partial step = %d after paying the penalty", c.Proto().Movement.PartialStep)
		}
	})
}

func TestFriendlyVehicleSlowsDown(t *testing.T) {
	s := testStore(t)
	prm := params.TestParams(map[params.Fork]uint64{params.ForkUnblockVehicles: 1000})
	ctx := testCtx(t, flatMap(), prm)

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 3000, hexgrid.Coord{X: 2, Y: 0})
		id = c.ID()
		c.Release()
	})

	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{}, types.FactionRed)
		dyn.AddVehicle(hexgrid.Coord{X: 1, Y: 0}, types.FactionRed)
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		if pos != (hexgrid.Coord{}) {
			t.Errorf("slowed mover advanced to %v", pos)
		}
		// A friendly vehicle ahead does not count as a blocked turn.
		if c.Proto().Movement.BlockedTurns != 0 {
			t.Errorf("blocked turns = %d, want 0", c.Proto().Movement.BlockedTurns)
		}
	})
}

func TestMovementAroundBuilding(t *testing.T) {
	s := testStore(t)
	ctx := testCtx(t, flatMap(), nil)

	var id int64
	run(t, s, func(tx *storage.Tx) {
		c := addMover(tx, types.FactionRed, hexgrid.Coord{}, 10_000, hexgrid.Coord{X: 2, Y: 0})
		id = c.ID()
		c.Release()
	})

	run(t, s, func(tx *storage.Tx) {
		dyn := dynobstacles.New()
		dyn.AddVehicle(hexgrid.Coord{}, types.FactionRed)
		dyn.AddBuilding(hexgrid.Coord{X: 1, Y: 0})
		ProcessMovement(tx, ctx, dyn)
	})
	run(t, s, func(tx *storage.Tx) {
		c := tx.GetCharacter(id)
		defer c.Release()
		pos, _ := c.Position()
		if pos != (hexgrid.Coord{X: 2, Y: 0}) {
			t.Errorf("at %v, want the waypoint despite the building", pos)
		}
	})
}
