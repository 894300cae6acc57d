package storage

import (
	"database/sql"
	"fmt"
)

// PrizesFound returns how many of the named prize have been found so far.
func (t *Tx) PrizesFound(name string) int64 {
	row := t.queryRow(`SELECT found FROM prize_counters WHERE name = ?`, name)
	var found int64
	err := row.Scan(&found)
	if err == sql.ErrNoRows {
		return 0
	}
	mustSucceed(fmt.Sprintf("get prize counter %s", name), err)
	return found
}

// IncrementPrizesFound bumps the monotonic prize counter.
func (t *Tx) IncrementPrizesFound(name string) {
	_, err := t.exec(`
		INSERT INTO prize_counters (name, found) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET found = found + 1
	`, name)
	mustSucceed(fmt.Sprintf("increment prize counter %s", name), err)
}
