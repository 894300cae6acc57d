package storage

import (
	"fmt"

	"github.com/hexfront/hexfront/internal/types"
)

// Damage lists remember which accounts dealt damage to which fighter
// recently. They feed fame attribution and are pruned once entries fall out
// of the sliding window.

// RecordDamage upserts the (victim, attacker) entry at the given height.
func (t *Tx) RecordDamage(victim types.TargetID, attacker string, height uint64) {
	_, err := t.exec(`
		INSERT INTO damage_lists (victim_kind, victim_id, attacker, height)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (victim_kind, victim_id, attacker) DO UPDATE SET height = excluded.height
	`, int(victim.Kind), victim.ID, attacker, height)
	mustSucceed(fmt.Sprintf("record damage on %v by %s", victim, attacker), err)
}

// DamageAttackers returns the attackers credited on the victim, sorted by
// account name.
func (t *Tx) DamageAttackers(victim types.TargetID) []string {
	rows, err := t.query(`
		SELECT attacker FROM damage_lists
		WHERE victim_kind = ? AND victim_id = ?
		ORDER BY attacker ASC
	`, int(victim.Kind), victim.ID)
	mustSucceed("query damage attackers", err)
	defer func() { _ = rows.Close() }()

	var res []string
	for rows.Next() {
		var a string
		mustSucceed("query damage attackers", rows.Scan(&a))
		res = append(res, a)
	}
	mustSucceed("query damage attackers", rows.Err())
	return res
}

// PruneDamageLists drops all entries strictly older than cutoff.
func (t *Tx) PruneDamageLists(cutoff uint64) {
	_, err := t.exec(`DELETE FROM damage_lists WHERE height < ?`, cutoff)
	mustSucceed("prune damage lists", err)
}

// ClearDamageFor removes every entry of a dead victim.
func (t *Tx) ClearDamageFor(victim types.TargetID) {
	_, err := t.exec(`
		DELETE FROM damage_lists WHERE victim_kind = ? AND victim_id = ?
	`, int(victim.Kind), victim.ID)
	mustSucceed(fmt.Sprintf("clear damage list of %v", victim), err)
}
