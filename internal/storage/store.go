// Package storage implements the transactional entity store of the game
// state on sqlite. Every block transition runs inside a single transaction;
// entity rows are accessed through handles that write back on release iff a
// field was mutated. All multi-row queries are ordered so iteration is
// deterministic.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store owns the database connection.
type Store struct {
	db *sql.DB
}

// ConnString builds the sqlite connection string with the pragmas the state
// processor relies on.
func ConnString(path string) string {
	conn := path
	if !strings.HasPrefix(conn, "file:") {
		conn = "file:" + conn
	}
	sep := "?"
	if strings.Contains(conn, "?") {
		sep = "&"
	}
	conn += sep + "_pragma=busy_timeout(30000)"
	conn += "&_pragma=journal_mode(WAL)"
	conn += "&_pragma=foreign_keys(ON)"
	return conn
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", ConnString(path))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// The whole-block transaction model needs one connection; more would
	// only add lock contention.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.SetupSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// SetupSchema creates all tables and indices if they do not exist yet.
func (s *Store) SetupSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set up schema: %w", err)
		}
	}
	return nil
}

// RunBlock brackets one block transition in a transaction: commit when fn
// returns nil, roll back otherwise. Invariant-failure panics propagate after
// rollback; the process is expected to die.
func (s *Store) RunBlock(ctx context.Context, fn func(*Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin block transaction: %w", err)
	}

	tx := &Tx{ctx: ctx, tx: dbTx}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit block transaction: %w", err)
	}
	committed = true
	return nil
}

// View runs a read-only function against the store outside any block
// transition (state RPC, snapshots). The transaction is always rolled
// back, so accidental writes never become visible.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()
	return fn(&Tx{ctx: ctx, tx: dbTx})
}

// Tx is one open block (or read) transaction. All table access goes through
// it; handles created from it must be released before it ends.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *Tx) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, args...)
}

func (t *Tx) query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, args...)
}

func (t *Tx) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, query, args...)
}

// NextID allocates the next entity id. Ids are monotonic across all entity
// kinds and never reused.
func (t *Tx) NextID() int64 {
	var id int64
	err := t.queryRow(`
		UPDATE counters SET value = value + 1 WHERE name = 'entity_id'
		RETURNING value
	`).Scan(&id)
	if err != nil {
		panic(fmt.Sprintf("storage: allocate entity id: %v", err))
	}
	return id
}
