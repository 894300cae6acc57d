package storage

import (
	"database/sql"
	"fmt"

	"github.com/hexfront/hexfront/internal/types"
)

// Account is a working handle on one account row. Accounts are keyed by
// name and never deleted.
type Account struct {
	tx *Tx

	name    string
	faction types.Faction
	kills   int64
	fame    int64
	coins   int64
	proto   types.AccountProto

	dirty    bool
	released bool
}

const accountColumns = `name, faction, kills, fame, coins, proto`

// CreateAccount registers a new account.
func (t *Tx) CreateAccount(name string, faction types.Faction) *Account {
	a := &Account{tx: t, name: name, faction: faction}
	_, err := t.exec(`
		INSERT INTO accounts (name, faction, proto) VALUES (?, ?, ?)
	`, name, int(faction), marshalProto(&a.proto))
	mustSucceed(fmt.Sprintf("insert account %s", name), err)
	return a
}

// GetAccount returns a handle on the account, or nil when unregistered.
func (t *Tx) GetAccount(name string) *Account {
	row := t.queryRow(`SELECT `+accountColumns+` FROM accounts WHERE name = ?`, name)
	a := &Account{tx: t}
	var faction int
	var protoBlob string
	err := row.Scan(&a.name, &faction, &a.kills, &a.fame, &a.coins, &protoBlob)
	if err == sql.ErrNoRows {
		return nil
	}
	mustSucceed(fmt.Sprintf("get account %s", name), err)
	a.faction = types.Faction(faction)
	unmarshalProto(protoBlob, &a.proto)
	return a
}

// Accounts returns handles on all accounts, ordered by name.
func (t *Tx) Accounts() []*Account {
	rows, err := t.query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY name ASC`)
	mustSucceed("query all accounts", err)
	defer func() { _ = rows.Close() }()

	var res []*Account
	for rows.Next() {
		a := &Account{tx: t}
		var faction int
		var protoBlob string
		err := rows.Scan(&a.name, &faction, &a.kills, &a.fame, &a.coins, &protoBlob)
		mustSucceed("query all accounts", err)
		a.faction = types.Faction(faction)
		unmarshalProto(protoBlob, &a.proto)
		res = append(res, a)
	}
	mustSucceed("query all accounts", rows.Err())
	return res
}

func (a *Account) Name() string { return a.name }
func (a *Account) Faction() types.Faction { return a.faction }
func (a *Account) Kills() int64 { return a.kills }
func (a *Account) Fame() int64 { return a.fame }
func (a *Account) Coins() int64 { return a.coins }

// Proto returns the structured blob for reading.
func (a *Account) Proto() *types.AccountProto { return &a.proto }

// MutableProto marks the handle dirty and returns the blob for mutation.
func (a *Account) MutableProto() *types.AccountProto {
	a.dirty = true
	return &a.proto
}

// AddKill increments the kill counter.
func (a *Account) AddKill() {
	a.dirty = true
	a.kills++
}

// AddFame adjusts the fame score; fame never drops below zero.
func (a *Account) AddFame(delta int64) {
	a.dirty = true
	a.fame += delta
	if a.fame < 0 {
		a.fame = 0
	}
}

// AddCoins adjusts the banked coin balance. Overdrafts are invariant
// failures: validation must reject them first.
func (a *Account) AddCoins(delta int64) {
	next := a.coins + delta
	if next < 0 || next > types.MaxQuantity {
		panic(fmt.Sprintf("account %s: coin balance out of bounds: %d%+d", a.name, a.coins, delta))
	}
	a.dirty = true
	a.coins = next
}

// Release ends the handle's scope, writing the row back iff dirty.
func (a *Account) Release() {
	if a.released {
		panic(fmt.Sprintf("account handle %s released twice", a.name))
	}
	a.released = true
	if !a.dirty {
		return
	}
	_, err := a.tx.exec(`
		UPDATE accounts SET faction = ?, kills = ?, fame = ?, coins = ?, proto = ?
		WHERE name = ?
	`, int(a.faction), a.kills, a.fame, a.coins, marshalProto(&a.proto), a.name)
	mustSucceed(fmt.Sprintf("write back account %s", a.name), err)
}
