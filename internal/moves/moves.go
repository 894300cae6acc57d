// Package moves parses the per-block JSON batch and applies admin and
// player commands to the game state. Malformed or disallowed commands are
// silent no-ops at command granularity: they never abort the block and
// never affect other commands.
package moves

import (
	"encoding/json"
	"fmt"

	"github.com/hexfront/hexfront/internal/dynobstacles"
	"github.com/hexfront/hexfront/internal/gamectx"
	"github.com/hexfront/hexfront/internal/storage"
)

// GameID is the key under which this game's commands live inside a move.
const GameID = "hf"

// BlockHeader carries the chain-level data of one block.
type BlockHeader struct {
	Height    uint64 `json:"height"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash"`
	// RngSeed overrides the hash as random seed when the chain provides a
	// dedicated seed commitment.
	RngSeed string `json:"rngseed"`
}

// Seed returns the hex seed for the block's random stream.
func (b *BlockHeader) Seed() string {
	if b.RngSeed != "" {
		return b.RngSeed
	}
	return b.Hash
}

// RawMove is one player move as delivered by the chain daemon.
type RawMove struct {
	Name string          `json:"name"`
	Move json.RawMessage `json:"move"`
}

// BlockData is the full input of one state transition. Unknown fields are
// ignored.
type BlockData struct {
	Block BlockHeader       `json:"block"`
	Admin []json.RawMessage `json:"admin"`
	Moves []RawMove         `json:"moves"`
}

// ParseBlockData parses the block JSON.
func ParseBlockData(raw []byte) (*BlockData, error) {
	var bd BlockData
	if err := json.Unmarshal(raw, &bd); err != nil {
		return nil, fmt.Errorf("parse block data: %w", err)
	}
	if bd.Block.Height == 0 && bd.Block.Hash == "" {
		return nil, fmt.Errorf("block data misses the block header")
	}
	return &bd, nil
}

// command is the decoded per-game command object of one move.
type command struct {
	Account   *accountCmd   `json:"acc"`
	NewChar   *newCharCmd   `json:"nc"`
	Waypoints *waypointsCmd `json:"wp"`
	Mine      *mineCmd      `json:"mi"`
	Prospect  *prospectCmd  `json:"pr"`
	PickUp    *lootCmd      `json:"pu"`
	Drop      *lootCmd      `json:"dr"`
	Fitments  *fitmentsCmd  `json:"fit"`
	Repair    *repairCmd    `json:"rep"`
	CopyBp    *copyBpCmd    `json:"cp"`
	BuildItem *buildItemCmd `json:"ib"`
	Enter     *enterCmd     `json:"eb"`
	Exit      *exitCmd      `json:"xb"`
	Construct *constructCmd `json:"cb"`
	BldConfig *bldConfigCmd `json:"bc"`
	PlaceOrd  *placeOrdCmd  `json:"po"`
	CancelOrd *cancelOrdCmd `json:"co"`
}

// ProcessMoves applies the player moves in block order. Within one move the
// command kinds apply in a fixed order, account registration first.
func ProcessMoves(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, raw []RawMove) {
	for _, mv := range raw {
		processMove(tx, ctx, dyn, mv)
	}
}

func processMove(tx *storage.Tx, ctx *gamectx.Context, dyn *dynobstacles.Index, mv RawMove) {
	if mv.Name == "" {
		ctx.Debugf("move without a name rejected")
		return
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(mv.Move, &envelope); err != nil {
		ctx.Debugf("move of %s is not an object: %v", mv.Name, err)
		return
	}
	gameRaw, ok := envelope[GameID]
	if !ok {
		return
	}

	var cmd command
	if err := json.Unmarshal(gameRaw, &cmd); err != nil {
		ctx.Debugf("game move of %s malformed: %v", mv.Name, err)
		return
	}

	if cmd.Account != nil {
		handleRegister(tx, ctx, mv.Name, cmd.Account)
	}

	// Everything below needs a registered account.
	acct := tx.GetAccount(mv.Name)
	if acct == nil {
		ctx.Debugf("moves of unregistered account %s skipped", mv.Name)
		return
	}
	acct.Release()

	if cmd.NewChar != nil {
		handleNewCharacter(tx, ctx, dyn, mv.Name)
	}
	if cmd.Waypoints != nil {
		handleWaypoints(tx, ctx, mv.Name, cmd.Waypoints)
	}
	if cmd.Mine != nil {
		handleMine(tx, ctx, mv.Name, cmd.Mine)
	}
	if cmd.Prospect != nil {
		handleProspect(tx, ctx, mv.Name, cmd.Prospect)
	}
	if cmd.PickUp != nil {
		handlePickUp(tx, ctx, mv.Name, cmd.PickUp)
	}
	if cmd.Drop != nil {
		handleDrop(tx, ctx, mv.Name, cmd.Drop)
	}
	if cmd.Fitments != nil {
		handleFitments(tx, ctx, mv.Name, cmd.Fitments)
	}
	if cmd.Repair != nil {
		handleRepair(tx, ctx, mv.Name, cmd.Repair)
	}
	if cmd.CopyBp != nil {
		handleCopyBlueprint(tx, ctx, mv.Name, cmd.CopyBp)
	}
	if cmd.BuildItem != nil {
		handleBuildItem(tx, ctx, mv.Name, cmd.BuildItem)
	}
	if cmd.Enter != nil {
		handleEnterIntent(tx, ctx, mv.Name, cmd.Enter)
	}
	if cmd.Exit != nil {
		handleExit(tx, ctx, dyn, mv.Name, cmd.Exit)
	}
	if cmd.Construct != nil {
		handleConstruct(tx, ctx, dyn, mv.Name, cmd.Construct)
	}
	if cmd.BldConfig != nil {
		handleBuildingConfig(tx, ctx, mv.Name, cmd.BldConfig)
	}
	if cmd.PlaceOrd != nil {
		handlePlaceOrder(tx, ctx, mv.Name, cmd.PlaceOrd)
	}
	if cmd.CancelOrd != nil {
		handleCancelOrder(tx, ctx, mv.Name, cmd.CancelOrd)
	}
}

// ownCharacter resolves a character id against the acting account. Returns
// nil (and logs) when the id is unknown or owned by someone else. The
// caller must release the handle.
func ownCharacter(tx *storage.Tx, ctx *gamectx.Context, name string, id int64) *storage.Character {
	c := tx.GetCharacter(id)
	if c == nil {
		ctx.Debugf("%s references missing character %d", name, id)
		return nil
	}
	if c.Owner() != name {
		ctx.Debugf("%s does not own character %d", name, id)
		c.Release()
		return nil
	}
	return c
}
