// SQLite-backed cache store.
//
// Information Hiding:
// - SQLite connection management hidden behind Store
// - Schema encapsulated and created on open
// - Writes serialised through a single connection

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using a SQLite database file.
// Thread-safe: the pool is capped at one connection so concurrent writers
// queue instead of failing with SQLITE_BUSY.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite cache at the given path.
// Creates parent directories if they don't exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite cache: %w", err)
	}
	return newSQLiteStore(db)
}

// NewSQLiteInMemory creates an in-memory cache (useful for testing).
func NewSQLiteInMemory() (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	return newSQLiteStore(db)
}

func newSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			tool_path TEXT NOT NULL,
			command_path TEXT NOT NULL,
			help_digest TEXT NOT NULL,
			contract_version TEXT NOT NULL,
			model_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cache_fingerprint
		ON cache_entries(fingerprint, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_cache_tool
		ON cache_entries(tool_path);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Lookup returns the newest entry for the fingerprint.
func (s *SQLiteStore) Lookup(ctx context.Context, fingerprint string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, tool_path, command_path, help_digest, contract_version, model_id, payload, created_at
		FROM cache_entries
		WHERE fingerprint = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, fingerprint)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return entry, true, nil
}

// Put appends an entry inside its own transaction.
func (s *SQLiteStore) Put(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	path, err := json.Marshal(entry.CommandPath)
	if err != nil {
		return fmt.Errorf("failed to encode command path: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_entries
			(id, fingerprint, tool_path, command_path, help_digest, contract_version, model_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Fingerprint, entry.ToolPath, string(path), entry.HelpDigest,
		entry.ContractVersion, entry.ModelID, string(entry.Payload), entry.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return nil
}

// List returns entries for a tool, newest first.
func (s *SQLiteStore) List(ctx context.Context, tool string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, tool_path, command_path, help_digest, contract_version, model_id, payload, created_at
		FROM cache_entries
		WHERE ? = '' OR tool_path = ? OR tool_path LIKE ?
		ORDER BY created_at DESC, rowid DESC
	`, tool, tool, "%/"+tool)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry     Entry
		path      string
		payload   string
		createdAt int64
	)
	if err := row.Scan(&entry.ID, &entry.Fingerprint, &entry.ToolPath, &path, &entry.HelpDigest,
		&entry.ContractVersion, &entry.ModelID, &payload, &createdAt); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(path), &entry.CommandPath); err != nil {
		return Entry{}, fmt.Errorf("invalid command path %q: %w", path, err)
	}
	entry.Payload = json.RawMessage(payload)
	entry.CreatedAt = time.Unix(0, createdAt)
	return entry, nil
}

// Verify SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
