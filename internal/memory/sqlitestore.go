package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultDBName = "memories.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    action_items TEXT NOT NULL,
    completed_items TEXT NOT NULL,
    mood TEXT NOT NULL,
    transcript TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    pinned INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStorage persists the collection in a SQLite database. Like the file
// collaborator it replaces the whole collection on every save; the store, not
// the database, owns ordering and mutation semantics.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStorage opens or creates the database in dataDir and applies the
// schema.
func OpenSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	dbPath := filepath.Join(dataDir, defaultDBName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the backing database location.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Load reads the full collection.
func (s *SQLiteStorage) Load(ctx context.Context) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, title, category, action_items, completed_items,
               mood, transcript, created_at_ms, pinned
        FROM memories`)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	memories := []Memory{}
	for rows.Next() {
		var (
			m              Memory
			actionItems    string
			completedItems string
			createdAtMs    int64
			pinned         int
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Category, &actionItems, &completedItems,
			&m.Mood, &m.Transcript, &createdAtMs, &pinned); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if err := json.Unmarshal([]byte(actionItems), &m.ActionItems); err != nil {
			return nil, fmt.Errorf("decode action items for %s: %w", m.ID, err)
		}
		if err := json.Unmarshal([]byte(completedItems), &m.CompletedItems); err != nil {
			return nil, fmt.Errorf("decode completed items for %s: %w", m.ID, err)
		}
		if m.ActionItems == nil {
			m.ActionItems = []string{}
		}
		if m.CompletedItems == nil {
			m.CompletedItems = []int{}
		}
		m.CreatedAt = time.UnixMilli(createdAtMs).UTC()
		m.Pinned = pinned != 0
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return memories, nil
}

// Save replaces the whole collection in one transaction.
func (s *SQLiteStorage) Save(ctx context.Context, memories []Memory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO memories (
            id, title, category, action_items, completed_items,
            mood, transcript, created_at_ms, pinned
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range memories {
		actionItems, err := json.Marshal(m.ActionItems)
		if err != nil {
			return fmt.Errorf("encode action items for %s: %w", m.ID, err)
		}
		completedItems, err := json.Marshal(m.CompletedItems)
		if err != nil {
			return fmt.Errorf("encode completed items for %s: %w", m.ID, err)
		}
		pinned := 0
		if m.Pinned {
			pinned = 1
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.Title, m.Category,
			string(actionItems), string(completedItems),
			m.Mood, m.Transcript, m.CreatedAt.UnixMilli(), pinned); err != nil {
			return fmt.Errorf("insert memory %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
