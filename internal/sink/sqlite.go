package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ilyasfoo/lockdown/internal/config"
)

// SQLite keeps the latest version of every document in one table.
type SQLite struct {
	conn *sql.DB
}

func NewSQLite(cfg config.SQLiteSinkConfig) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Write(ctx context.Context, name string, doc []byte) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, string(doc), time.Now().UTC())
	return err
}

// Read returns the stored document, or sql.ErrNoRows.
func (s *SQLite) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.conn.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

func (s *SQLite) Close() error { return s.conn.Close() }
