// Package store persists client-local chat state in sqlite. Today
// that is the active-conversation set: which direct conversations the
// local participant has open, so they survive restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database holding client-local state.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an ephemeral database. Used in tests and when no
// state directory is configured.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			local_id TEXT NOT NULL,
			peer_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (local_id, peer_id)
		)`,
		`CREATE INDEX IF NOT EXISTS conversations_local_idx ON conversations(local_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize state schema: %w", err)
		}
	}
	return nil
}

// LoadActiveConversations returns the peers of the stored direct
// conversations for localID, ordered by when each was first opened.
func (s *Store) LoadActiveConversations(ctx context.Context, localID string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("state store unavailable")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT peer_id FROM conversations
		WHERE local_id = ?
		ORDER BY created_at, peer_id
	`, localID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	defer rows.Close()

	var peers []string
	for rows.Next() {
		var peer string
		if err := rows.Scan(&peer); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		peers = append(peers, peer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation query error: %w", err)
	}
	return peers, nil
}

// SaveActiveConversations replaces the stored set for localID with
// peers. First-opened timestamps of surviving rows are preserved.
func (s *Store) SaveActiveConversations(ctx context.Context, localID string, peers []string) error {
	if s == nil || s.db == nil {
		return errors.New("state store unavailable")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(peers) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE local_id = ?`, localID); err != nil {
			return fmt.Errorf("failed to clear conversations: %w", err)
		}
		return tx.Commit()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, peer := range peers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (local_id, peer_id, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(local_id, peer_id) DO NOTHING
		`, localID, peer, now); err != nil {
			return fmt.Errorf("failed to store conversation: %w", err)
		}
	}

	// Drop rows no longer in the set.
	query := `DELETE FROM conversations WHERE local_id = ? AND peer_id NOT IN (?` +
		placeholders(len(peers)-1) + `)`
	args := make([]any, 0, len(peers)+1)
	args = append(args, localID)
	for _, peer := range peers {
		args = append(args, peer)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to prune conversations: %w", err)
	}

	return tx.Commit()
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ",?"
	}
	return out
}
