package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/storage"
)

func testWorld(t *testing.T) *mapdata.Map {
	t.Helper()
	world, err := mapdata.New(mapdata.Definition{
		Radius: 200, DefaultWeight: 1000, RegionSize: 10,
		SafeZones: []mapdata.SafeZoneDef{
			{X: 50, Y: 0, Radius: 3, Faction: "red"},
			{X: -50, Y: 0, Radius: 3, Faction: "green"},
		},
	})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	return world
}

func testGame(t *testing.T) *Game {
	t.Helper()
	store, err := storage.Open(context.Background(), t.TempDir()+"/state.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return New(store, params.ForChain(params.ChainRegtest), testWorld(t),
		gamecfg.MustLoad(), Options{Validate: true})
}

// blockJSON builds the JSON for one block at the given height with a
// deterministic per-height seed.
func blockJSON(height uint64, movesJSON string) []byte {
	seed := fmt.Sprintf("%064x", height+1)
	return []byte(fmt.Sprintf(`{
		"block": {"height": %d, "timestamp": %d, "hash": "%s", "rngseed": "%s"},
		"admin": [],
		"moves": %s
	}`, height, 1_700_000_000+int64(height), seed, seed, movesJSON))
}

func apply(t *testing.T, g *Game, height uint64, movesJSON string) {
	t.Helper()
	if err := g.UpdateState(context.Background(), blockJSON(height, movesJSON)); err != nil {
		t.Fatalf("apply block %d: %v", height, err)
	}
}

func TestInitialiseState(t *testing.T) {
	g := testGame(t)
	ctx := context.Background()

	if err := g.InitialiseState(ctx); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	// Idempotent.
	if err := g.InitialiseState(ctx); err != nil {
		t.Fatalf("re-initialise: %v", err)
	}

	err := g.WithState(ctx, func(tx *storage.Tx) error {
		buildings := tx.Buildings()
		if len(buildings) != len(g.cfg.InitialBuildings) {
			t.Errorf("initial buildings = %d, want %d", len(buildings), len(g.cfg.InitialBuildings))
		}
		for _, b := range buildings {
			if !b.IsAncient() {
				t.Errorf("initial building %d is not ancient", b.ID())
			}
			b.Release()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestUpdateStateHeightContinuity(t *testing.T) {
	g := testGame(t)
	ctx := context.Background()

	if err := g.UpdateState(ctx, blockJSON(0, "[]")); err == nil {
		t.Fatal("uninitialised state accepted a block")
	}
	if err := g.InitialiseState(ctx); err != nil {
		t.Fatalf("initialise: %v", err)
	}

	// Regtest genesis height is 0.
	if err := g.UpdateState(ctx, blockJSON(5, "[]")); err == nil {
		t.Fatal("height gap accepted")
	}
	apply(t, g, 0, "[]")
	if err := g.UpdateState(ctx, blockJSON(0, "[]")); err == nil {
		t.Fatal("replayed height accepted")
	}
	apply(t, g, 1, "[]")

	height, ok := g.CurrentBlockHeight(ctx)
	if !ok || height != 1 {
		t.Errorf("current height = %d, %v", height, ok)
	}
}

// gameplayBlocks drives a few busy blocks: registrations, spawns, a
// prospection and movement.
func gameplayBlocks(t *testing.T, g *Game) {
	apply(t, g, 0, `[
		{"name": "alice", "move": {"hf": {"acc": {"faction": "red"}, "nc": {}}}},
		{"name": "bob", "move": {"hf": {"acc": {"faction": "green"}, "nc": {}}}}
	]`)
	apply(t, g, 1, `[
		{"name": "alice", "move": {"hf": {"wp": {"id": 4, "wp": [[40, 0]]}}}},
		{"name": "bob", "move": {"hf": {"pr": {"id": 5}}}}
	]`)
	for h := uint64(2); h <= 14; h++ {
		apply(t, g, h, "[]")
	}
}

func TestStateTransitionDeterminism(t *testing.T) {
	ctx := context.Background()

	var states [][]byte
	for i := 0; i < 2; i++ {
		g := testGame(t)
		if err := g.InitialiseState(ctx); err != nil {
			t.Fatalf("initialise: %v", err)
		}
		gameplayBlocks(t, g)
		state, err := g.GetStateJSON(ctx)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		states = append(states, state)
	}

	if !bytes.Equal(states[0], states[1]) {
		t.Error("independent executions produced different serialized states")
	}
}

func TestGameplayEffects(t *testing.T) {
	g := testGame(t)
	ctx := context.Background()
	if err := g.InitialiseState(ctx); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	gameplayBlocks(t, g)

	err := g.WithState(ctx, func(tx *storage.Tx) error {
		// Alice's character has been walking towards (40,0) out of the
		// starter zone.
		alice := tx.CharactersForOwner("alice")
		if len(alice) != 1 {
			t.Fatalf("alice characters = %d", len(alice))
		}
		pos, onMap := alice[0].Position()
		if !onMap {
			t.Fatal("alice's character left the map")
		}
		if pos.X >= 50 {
			t.Errorf("character never moved, still at %v", pos)
		}
		alice[0].Release()

		// Bob's prospection has finalised its region.
		regions := tx.ProspectedRegions()
		if len(regions) != 1 {
			t.Fatalf("prospected regions = %d", len(regions))
		}
		if regions[0].Proto().Prospection.Name != "bob" {
			t.Errorf("prospection by %q", regions[0].Proto().Prospection.Name)
		}
		regions[0].Release()
		return nil
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestGetStateJSONShape(t *testing.T) {
	g := testGame(t)
	ctx := context.Background()
	if err := g.InitialiseState(ctx); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	apply(t, g, 0, `[{"name": "alice", "move": {"hf": {"acc": {"faction": "red"}, "nc": {}}}}]`)

	raw, err := g.GetStateJSON(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	var state struct {
		Height     uint64           `json:"height"`
		Accounts   []map[string]any `json:"accounts"`
		Characters []map[string]any `json:"characters"`
		Buildings  []map[string]any `json:"buildings"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("state is not valid JSON: %v", err)
	}
	if state.Height != 0 {
		t.Errorf("height = %d", state.Height)
	}
	if len(state.Accounts) != 1 || state.Accounts[0]["name"] != "alice" {
		t.Errorf("accounts = %+v", state.Accounts)
	}
	if len(state.Characters) != 1 {
		t.Errorf("characters = %d", len(state.Characters))
	}
	if len(state.Buildings) == 0 {
		t.Error("ancient buildings missing from the report")
	}
}

func TestInitialStateBlockPerChain(t *testing.T) {
	store, err := storage.Open(context.Background(), t.TempDir()+"/state.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, chain := range []params.Chain{params.ChainMain, params.ChainTest, params.ChainRegtest} {
		g := New(store, params.ForChain(chain), testWorld(t), gamecfg.MustLoad(), Options{})
		height, hash := g.InitialStateBlock()
		if hash == "" {
			t.Errorf("%v: empty genesis hash", chain)
		}
		if chain != params.ChainRegtest && height == 0 {
			t.Errorf("%v: zero genesis height", chain)
		}
	}
}
