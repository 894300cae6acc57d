package moves

import (
	"encoding/json"

	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/hexgrid"
	"github.com/hexfront/hexfront/internal/stats"
	"github.com/hexfront/hexfront/internal/storage"
	"github.com/hexfront/hexfront/internal/types"
)

// adminCommand is one entry of the admin channel. The channel is secured
// by the host chain; commands are still validated and rejected as no-ops
// when inconsistent.
type adminCommand struct {
	Cmd struct {
		Build *adminBuildCmd `json:"build"`
		Drop  *adminDropCmd  `json:"drop"`
		Give  *adminGiveCmd  `json:"give"`
		SetHP *adminSetHPCmd `json:"sethp"`
	} `json:"cmd"`
}

type adminBuildCmd struct {
	Type     string `json:"t"`
	Owner    string `json:"owner"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rot"`
}

type adminDropCmd struct {
	X     int              `json:"x"`
	Y     int              `json:"y"`
	Items map[string]int64 `json:"items"`
}

type adminGiveCmd struct {
	Name  string `json:"name"`
	Coins int64  `json:"coins"`
}

type adminSetHPCmd struct {
	Kind   string `json:"kind"`
	ID     int64  `json:"id"`
	Armour *int64 `json:"armour"`
	Shield *int64 `json:"shield"`
}

// ProcessAdmin applies the admin channel in array order, before any player
// move.
func ProcessAdmin(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, raw []json.RawMessage) {
	for _, entry := range raw {
		var cmd adminCommand
		if err := json.Unmarshal(entry, &cmd); err != nil {
			ctx.Debugf("admin entry malformed: %v", err)
			continue
		}
		switch {
		case cmd.Cmd.Build != nil:
			adminBuild(tx, ctx, dyn, cmd.Cmd.Build)
		case cmd.Cmd.Drop != nil:
			adminDrop(tx, ctx, cmd.Cmd.Drop)
		case cmd.Cmd.Give != nil:
			adminGive(tx, ctx, cmd.Cmd.Give)
		case cmd.Cmd.SetHP != nil:
			adminSetHP(tx, ctx, cmd.Cmd.SetHP)
		}
	}
}

// adminBuild places a finished building, ancient when no owner is given.
func adminBuild(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, cmd *adminBuildCmd) {
	derived, err := stats.ForBuilding(ctx.Cfg, cmd.Type)
	if err != nil {
		ctx.Debugf("admin build: %v", err)
		return
	}
	if cmd.Rotation < 0 || cmd.Rotation > 5 {
		ctx.Debugf("admin build: bad rotation %d", cmd.Rotation)
		return
	}

	faction := types.FactionAncient
	owner := ""
	if cmd.Owner != "" {
		acct := tx.GetAccount(cmd.Owner)
		if acct == nil {
			ctx.Debugf("admin build: unknown owner %s", cmd.Owner)
			return
		}
		faction = acct.Faction()
		owner = cmd.Owner
		acct.Release()
	}

	centre := hexgrid.Coord{X: cmd.X, Y: cmd.Y}
	tiles := ctx.Cfg.BuildingTiles(cmd.Type, centre, cmd.Rotation)
	for _, tile := range tiles {
		if !ctx.Map.IsPassable(tile) || !dyn.IsFree(tile) {
			ctx.Debugf("admin build: tile (%d,%d) not free", tile.X, tile.Y)
			return
		}
	}

	b := tx.CreateBuilding(cmd.Type, owner, faction, centre, derived.HP, derived.Regen,
		types.BuildingProto{Rotation: cmd.Rotation, Combat: derived.Combat})
	b.Release()
	for _, tile := range tiles {
		dyn.AddBuilding(tile)
	}
}

func adminDrop(tx *storage.Tx, ctx *gamectx.Context, cmd *adminDropCmd) {
	pos := hexgrid.Coord{X: cmd.X, Y: cmd.Y}
	if !ctx.Map.IsOnMap(pos) {
		ctx.Debugf("admin drop: (%d,%d) off the map", cmd.X, cmd.Y)
		return
	}
	drop := types.NewInventory()
	req := types.Inventory{Items: cmd.Items}
	for _, name := range req.Names() {
		n := req.Quantity(name)
		if n <= 0 || n > types.MaxQuantity {
			continue
		}
		if _, ok := ctx.Cfg.Items[name]; !ok {
			ctx.Debugf("admin drop: unknown item %q", name)
			continue
		}
		drop.Add(name, n)
	}
	tx.DropLoot(pos, drop)
}

func adminGive(tx *storage.Tx, ctx *gamectx.Context, cmd *adminGiveCmd) {
	acct := tx.GetAccount(cmd.Name)
	if acct == nil {
		ctx.Debugf("admin give: unknown account %s", cmd.Name)
		return
	}
	defer acct.Release()
	if cmd.Coins <= 0 || cmd.Coins > types.MaxQuantity-acct.Coins() {
		ctx.Debugf("admin give: bad amount %d", cmd.Coins)
		return
	}
	acct.AddCoins(cmd.Coins)
}

func adminSetHP(tx *storage.Tx, ctx *gamectx.Context, cmd *adminSetHPCmd) {
	apply := func(hp *types.HP, regen types.RegenData) {
		if cmd.Armour != nil && *cmd.Armour >= 0 && *cmd.Armour <= regen.MaxArmour {
			hp.Armour = *cmd.Armour
		}
		if cmd.Shield != nil && *cmd.Shield >= 0 && *cmd.Shield <= regen.MaxShield {
			hp.Shield = *cmd.Shield
		}
	}
	switch cmd.Kind {
	case "character":
		if c := tx.GetCharacter(cmd.ID); c != nil {
			apply(c.MutableHP(), c.Regen())
			c.Release()
		}
	case "building":
		if b := tx.GetBuilding(cmd.ID); b != nil {
			apply(b.MutableHP(), b.Regen())
			b.Release()
		}
	default:
		ctx.Debugf("admin sethp: unknown kind %q", cmd.Kind)
	}
}
