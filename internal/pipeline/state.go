package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// The state report is the full serialized game state. Struct field order
// and the ordered store queries make it byte-identical for identical
// states, which the determinism tests rely on.

type accountState struct {
	Name    string             `json:"name"`
	Faction string             `json:"faction"`
	Kills   int64              `json:"kills"`
	Fame    int64              `json:"fame"`
	Coins   int64              `json:"coins"`
	Proto   types.AccountProto `json:"proto"`
}

type characterState struct {
	ID            int64                `json:"id"`
	Owner         string               `json:"owner"`
	Faction       string               `json:"faction"`
	Position      *hexgrid.Coord       `json:"position,omitempty"`
	InBuilding    int64                `json:"in_building,omitempty"`
	EnterBuilding int64                `json:"enter_building,omitempty"`
	BusyBlocks    int                  `json:"busy_blocks,omitempty"`
	HP            types.HP             `json:"hp"`
	Regen         types.RegenData      `json:"regen"`
	Target        *types.TargetID      `json:"target,omitempty"`
	Proto         types.CharacterProto `json:"proto"`
}

type buildingState struct {
	ID      int64               `json:"id"`
	Type    string              `json:"type"`
	Owner   string              `json:"owner,omitempty"`
	Faction string              `json:"faction"`
	Centre  hexgrid.Coord       `json:"centre"`
	HP      types.HP            `json:"hp"`
	Regen   types.RegenData     `json:"regen"`
	Target  *types.TargetID     `json:"target,omitempty"`
	Proto   types.BuildingProto `json:"proto"`
}

type regionState struct {
	ID           int64             `json:"id"`
	ResourceLeft int64             `json:"resource_left"`
	Proto        types.RegionProto `json:"proto"`
}

type lootState struct {
	Position  hexgrid.Coord   `json:"position"`
	Inventory types.Inventory `json:"inventory"`
}

type gameState struct {
	Height     uint64           `json:"height"`
	Hash       string           `json:"hash"`
	Accounts   []accountState   `json:"accounts"`
	Characters []characterState `json:"characters"`
	Buildings  []buildingState  `json:"buildings"`
	Regions    []regionState    `json:"regions"`
	GroundLoot []lootState      `json:"ground_loot"`
}

// GetStateJSON serializes the current confirmed game state.
func (g *Game) GetStateJSON(ctx context.Context) ([]byte, error) {
	var state gameState
	err := g.store.View(ctx, func(tx *storage.Tx) error {
		height, hash, ok := tx.CurrentBlock()
		if !ok && !tx.IsInitialised() {
			return fmt.Errorf("no state to report")
		}
		state.Height = height
		state.Hash = hash

		for _, a := range tx.Accounts() {
			state.Accounts = append(state.Accounts, accountState{
				Name:    a.Name(),
				Faction: a.Faction().String(),
				Kills:   a.Kills(),
				Fame:    a.Fame(),
				Coins:   a.Coins(),
				Proto:   *a.Proto(),
			})
		}
		for _, c := range tx.Characters() {
			cs := characterState{
				ID:            c.ID(),
				Owner:         c.Owner(),
				Faction:       c.Faction().String(),
				InBuilding:    c.InBuilding(),
				EnterBuilding: c.EnterBuilding(),
				BusyBlocks:    c.BusyBlocks(),
				HP:            c.HP(),
				Regen:         c.Regen(),
				Target:        c.Target(),
				Proto:         *c.Proto(),
			}
			if pos, onMap := c.Position(); onMap {
				cs.Position = &pos
			}
			state.Characters = append(state.Characters, cs)
		}
		for _, b := range tx.Buildings() {
			state.Buildings = append(state.Buildings, buildingState{
				ID:      b.ID(),
				Type:    b.Type(),
				Owner:   b.Owner(),
				Faction: b.Faction().String(),
				Centre:  b.Centre(),
				HP:      b.HP(),
				Regen:   b.Regen(),
				Target:  b.Target(),
				Proto:   *b.Proto(),
			})
		}
		for _, r := range tx.ProspectedRegions() {
			state.Regions = append(state.Regions, regionState{
				ID:           r.ID(),
				ResourceLeft: r.ResourceLeft(),
				Proto:        *r.Proto(),
			})
		}
		for _, tile := range tx.GroundLootTiles() {
			state.GroundLoot = append(state.GroundLoot, lootState{
				Position:  tile,
				Inventory: tx.GetGroundLoot(tile),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(&state)
}

// CurrentBlockHeight returns the height of the last processed block.
func (g *Game) CurrentBlockHeight(ctx context.Context) (uint64, bool) {
	var height uint64
	var ok bool
	_ = g.store.View(ctx, func(tx *storage.Tx) error {
		height, _, ok = tx.CurrentBlock()
		return nil
	})
	return height, ok
}

// WithState runs a read-only snapshot query against the store, for custom
// state callbacks of the host daemon.
func (g *Game) WithState(ctx context.Context, fn func(*storage.Tx) error) error {
	return g.store.View(ctx, fn)
}
