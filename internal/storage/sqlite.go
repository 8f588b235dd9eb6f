package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"typepool/internal/graph"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			name TEXT PRIMARY KEY,
			source TEXT,
			content_hash TEXT,
			data BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			from_name TEXT,
			to_name TEXT,
			kind TEXT,
			PRIMARY KEY (from_name, to_name, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_classes_source ON classes(source);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_name);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// ContentHash is the hash recorded for class bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// --- ClassStore Implementation ---

func (s *SQLiteStore) SaveClasses(ctx context.Context, classes []Class) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (name, source, content_hash, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source=excluded.source,
			content_hash=excluded.content_hash,
			data=excluded.data
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range classes {
		hash := c.ContentHash
		if hash == "" {
			hash = ContentHash(c.Data)
		}
		if _, err := stmt.ExecContext(ctx, c.Name, c.Source, hash, c.Data); err != nil {
			return fmt.Errorf("failed to save class %s: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// Locate implements locator.Locator.
func (s *SQLiteStore) Locate(name string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM classes WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query class %s: %w", name, err)
	}
	return data, true, nil
}

func (s *SQLiteStore) ContentHashes(ctx context.Context, source string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, content_hash FROM classes WHERE source = ?", source)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var name, hash string
		if err := rows.Scan(&name, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		hashes[name] = hash
	}
	return hashes, rows.Err()
}

func (s *SQLiteStore) DeleteClasses(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM classes WHERE name = ?",
		"DELETE FROM edges WHERE from_name = ?",
	} {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, err := stmt.ExecContext(ctx, name); err != nil {
				stmt.Close()
				return err
			}
		}
		stmt.Close()
	}

	return tx.Commit()
}

func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM classes ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- EdgeStore Implementation ---

func (s *SQLiteStore) ReplaceEdges(ctx context.Context, from string, edges []graph.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM edges WHERE from_name = ?", from); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (from_name, to_name, kind) VALUES (?, ?, ?)
		ON CONFLICT(from_name, to_name, kind) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edges {
		if e.From != from {
			return fmt.Errorf("edge %s -> %s does not leave %s", e.From, e.To, from)
		}
		if _, err := stmt.ExecContext(ctx, e.From, e.To, string(e.Kind)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Dependencies(ctx context.Context, name string) ([]graph.Edge, error) {
	return s.queryEdges(ctx, "SELECT from_name, to_name, kind FROM edges WHERE from_name = ? ORDER BY to_name, kind", name)
}

func (s *SQLiteStore) Dependents(ctx context.Context, name string) ([]graph.Edge, error) {
	return s.queryEdges(ctx, "SELECT from_name, to_name, kind FROM edges WHERE to_name = ? ORDER BY from_name, kind", name)
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	edges, err := s.queryEdges(ctx, "SELECT from_name, to_name, kind FROM edges ORDER BY from_name, to_name, kind")
	if err != nil {
		return nil, err
	}
	g := graph.NewGraph()
	g.Edges = append(g.Edges, edges...)
	return g, nil
}

func (s *SQLiteStore) queryEdges(ctx context.Context, query string, args ...any) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.From, &e.To, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.Kind = graph.RelationKind(kind)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
