package memory

import (
	"database/sql"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/theboatbrokers/brokerchat/internal/logger"
)

// SQLiteStore persists conversation history in a local sqlite database so
// sessions survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates on first use) the history database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_text TEXT NOT NULL,
		assistant_text TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns all turns of a session in insertion order. Read failures are
// logged and yield an empty history rather than breaking the request.
func (s *SQLiteStore) Get(sessionID string) []Turn {
	rows, err := s.db.Query(
		`SELECT user_text, assistant_text, created_at FROM turns WHERE session_id = ? ORDER BY id ASC;`,
		sessionID)
	if err != nil {
		logger.L.Error("failed to read history from sqlite", "session_id", sessionID, "error", err)
		return []Turn{}
	}
	defer rows.Close()

	out := []Turn{}
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.User, &t.Assistant, &t.At); err != nil {
			logger.L.Error("failed to scan history row", "error", err)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Append persists one exchange. Write failures are logged; the turn is
// dropped rather than failing the request that produced it.
func (s *SQLiteStore) Append(sessionID, user, assistant string) {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, user_text, assistant_text, created_at) VALUES (?,?,?,?);`,
		sessionID, user, assistant, time.Now())
	if err != nil {
		logger.L.Error("failed to store turn in sqlite", "session_id", sessionID, "error", err)
	}
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
