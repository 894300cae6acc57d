// Package pipeline drives the per-block state transition. The phase order
// in UpdateState is contract, not convenience: every phase advances the
// single random stream in its declared place, and reordering any two
// phases is a consensus break.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/hexfront/hexfront/internal/combat"
	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/mining"
	"github.com/hexfront/hexfront/internal/movement"
	"github.com/hexfront/hexfront/internal/moves"
	"github.com/hexfront/hexfront/internal/ops"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/rnd"
	"github.com/hexfront/hexfront/internal/stats"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
	"github.com/hexfront/hexfront/internal/validation"
)

// Options tune a Game instance without touching consensus behaviour.
type Options struct {
	// Validate enables the slow invariant pass after every block.
	Validate bool
	// DebugLog receives move-rejection and tracing output.
	DebugLog *log.Logger
}

// Game is the state processor bound to one store and one chain.
type Game struct {
	store *storage.Store
	prm   *params.Params
	world *mapdata.Map
	cfg   *gamecfg.Config
	opts  Options
}

// New builds a Game instance. Map and configuration are injectable so
// tests can run on purpose-built worlds; production passes
// mapdata.Default() and gamecfg.MustLoad().
func New(store *storage.Store, prm *params.Params, world *mapdata.Map,
	cfg *gamecfg.Config, opts Options) *Game {
	return &Game{store: store, prm: prm, world: world, cfg: cfg, opts: opts}
}

// SetupSchema creates the database schema.
func (g *Game) SetupSchema(ctx context.Context) error {
	return g.store.SetupSchema(ctx)
}

// InitialStateBlock returns the block the game state starts at on the
// configured chain.
func (g *Game) InitialStateBlock() (uint64, string) {
	return g.prm.GenesisHeight, g.prm.GenesisHash
}

// InitialiseState writes the genesis game state: the ancient map seed
// buildings and nothing else.
func (g *Game) InitialiseState(ctx context.Context) error {
	return g.store.RunBlock(ctx, func(tx *storage.Tx) error {
		if tx.IsInitialised() {
			return nil
		}
		for _, ib := range g.cfg.InitialBuildings {
			derived, err := stats.ForBuilding(g.cfg, ib.Type)
			if err != nil {
				return fmt.Errorf("initial building: %w", err)
			}
			b := tx.CreateBuilding(ib.Type, "", types.FactionAncient,
				hexgrid.Coord{X: ib.X, Y: ib.Y}, derived.HP, derived.Regen,
				types.BuildingProto{Rotation: ib.Rotation, Combat: derived.Combat})
			b.Release()
		}
		tx.MarkInitialised()
		return nil
	})
}

// UpdateState applies one block to the state. The block must be the direct
// successor of the last processed one.
func (g *Game) UpdateState(ctx context.Context, blockJSON []byte) error {
	bd, err := moves.ParseBlockData(blockJSON)
	if err != nil {
		return err
	}

	return g.store.RunBlock(ctx, func(tx *storage.Tx) error {
		if !tx.IsInitialised() {
			return fmt.Errorf("state is not initialised")
		}
		expected := g.prm.GenesisHeight
		if cur, _, ok := tx.CurrentBlock(); ok {
			expected = cur + 1
		}
		if bd.Block.Height != expected {
			return fmt.Errorf("block height %d, expected %d", bd.Block.Height, expected)
		}

		stream := &rnd.Stream{}
		if err := stream.SeedFromHex(bd.Block.Seed()); err != nil {
			return fmt.Errorf("seed random stream: %w", err)
		}

		gctx := &gamectx.Context{
			Params:    g.prm,
			Map:       g.world,
			Cfg:       g.cfg,
			Height:    bd.Block.Height,
			Timestamp: bd.Block.Timestamp,
			Rnd:       stream,
			DebugLog:  g.opts.DebugLog,
		}
		g.runPhases(tx, gctx, bd)

		tx.SetCurrentBlock(bd.Block.Height, bd.Block.Hash)
		return nil
	})
}

// runPhases executes the sub-phases in their contractual order.
func (g *Game) runPhases(tx *storage.Tx, gctx *gamectx.Context, bd *moves.BlockData) {
	window := g.cfg.Constants.DamageListWindow
	if gctx.Height > window {
		tx.PruneDamageLists(gctx.Height - window)
	}

	dead := combat.DealDamage(tx, gctx)
	combat.UpdateFame(tx, gctx, dead)
	combat.ProcessKills(tx, gctx, dead)
	combat.Regenerate(tx, gctx)

	ops.ProcessOngoing(tx, gctx)

	dyn := buildObstacles(tx, gctx)

	moves.ProcessAdmin(tx, gctx, dyn, bd.Admin)
	moves.ProcessMoves(tx, gctx, dyn, bd.Moves)

	mining.ProcessMining(tx, gctx)
	movement.ProcessMovement(tx, gctx, dyn)
	moves.ProcessEnterBuildings(tx, gctx, dyn)

	combat.FindTargets(tx, gctx)

	if g.opts.Validate {
		validation.Check(tx, gctx)
	}
}

// buildObstacles scans the store into a fresh dynamic-obstacle index.
func buildObstacles(tx *storage.Tx, gctx *gamectx.Context) *dynobstacles.Index {
	dyn := dynobstacles.New()
	for _, c := range tx.Characters() {
		if pos, onMap := c.Position(); onMap {
			dyn.AddVehicle(pos, c.Faction())
		}
		c.Release()
	}
	for _, b := range tx.Buildings() {
		for _, tile := range gctx.Cfg.BuildingTiles(b.Type(), b.Centre(), b.Proto().Rotation) {
			dyn.AddBuilding(tile)
		}
		b.Release()
	}
	return dyn
}
