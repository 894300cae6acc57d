package storage

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Schema-meta keys persisted across blocks.
const (
	metaHeight      = "current_height"
	metaBlockHash   = "current_hash"
	metaInitialised = "initialised"
)

func (t *Tx) getMeta(key string) (string, bool) {
	row := t.queryRow(`SELECT value FROM schema_meta WHERE key = ?`, key)
	var v string
	err := row.Scan(&v)
	if err == sql.ErrNoRows {
		return "", false
	}
	mustSucceed("get meta "+key, err)
	return v, true
}

func (t *Tx) setMeta(key, value string) {
	_, err := t.exec(`
		INSERT INTO schema_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	mustSucceed("set meta "+key, err)
}

// CurrentBlock returns the height and hash of the last processed block.
func (t *Tx) CurrentBlock() (uint64, string, bool) {
	h, ok := t.getMeta(metaHeight)
	if !ok {
		return 0, "", false
	}
	height, err := strconv.ParseUint(h, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("storage: corrupt height meta %q", h))
	}
	hash, _ := t.getMeta(metaBlockHash)
	return height, hash, true
}

// SetCurrentBlock records the block the state now corresponds to.
func (t *Tx) SetCurrentBlock(height uint64, hash string) {
	t.setMeta(metaHeight, strconv.FormatUint(height, 10))
	t.setMeta(metaBlockHash, hash)
}

// IsInitialised reports whether the genesis state has been written.
func (t *Tx) IsInitialised() bool {
	v, ok := t.getMeta(metaInitialised)
	return ok && v == "1"
}

// MarkInitialised records that the genesis state exists.
func (t *Tx) MarkInitialised() {
	t.setMeta(metaInitialised, "1")
}
