package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hupe1980/agentchain/core"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions as JSON documents in a SQLite database,
// surviving process restarts. Session rows are small (context, history
// and file mapping of one conversation), so the whole document is
// rewritten per mutation instead of maintaining a normalized schema.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetOrCreate implements core.SessionStore.
func (s *SQLiteStore) GetOrCreate(id string) (*core.Session, error) {
	sess, err := s.Get(id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	sess = core.NewSession(id)
	if err := s.save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get implements core.SessionStore.
func (s *SQLiteStore) Get(id string) (*core.Session, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete implements core.SessionStore.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// AppendTurn implements core.SessionStore.
func (s *SQLiteStore) AppendTurn(id string, turn core.ChatTurn) error {
	return s.mutate(id, func(sess *core.Session) { sess.AppendTurn(turn) })
}

// ApplyContext implements core.SessionStore.
func (s *SQLiteStore) ApplyContext(id string, delta core.ChainContext) error {
	return s.mutate(id, func(sess *core.Session) { sess.ApplyContext(delta) })
}

// AddFile implements core.SessionStore.
func (s *SQLiteStore) AddFile(id, filename, path string) error {
	return s.mutate(id, func(sess *core.Session) { sess.AddFile(filename, path) })
}

// List implements core.SessionStore.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) mutate(id string, fn func(sess *core.Session)) error {
	sess, err := s.GetOrCreate(id)
	if err != nil {
		return err
	}
	fn(sess)
	return s.save(sess)
}

func (s *SQLiteStore) save(sess *core.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, created_at, updated_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, data = excluded.data`,
		sess.ID, sess.Created, sess.Updated, data,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}
