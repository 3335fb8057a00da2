package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/enviducate/enviducate/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS results (
	id          TEXT PRIMARY KEY,
	share_token TEXT NOT NULL,
	category    TEXT NOT NULL,
	query       TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_results_share_token ON results(share_token);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.EnvironmentalResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, share_token, category, query, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		result.ID, ShareToken(result), string(result.Category), result.OriginalQuery,
		string(payload), result.GeneratedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save result")
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.EnvironmentalResult, error) {
	return s.getByColumn(ctx, "id", id)
}

func (s *SQLiteStore) GetResultByShareToken(ctx context.Context, token string) (*model.EnvironmentalResult, error) {
	return s.getByColumn(ctx, "share_token", token)
}

func (s *SQLiteStore) getByColumn(ctx context.Context, column, value string) (*model.EnvironmentalResult, error) {
	var payload string
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE `+column+` = ? LIMIT 1`, value)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get result")
	}

	var result model.EnvironmentalResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &result, nil
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// ShareToken extracts the share token from a result's shareable URL.
func ShareToken(result *model.EnvironmentalResult) string {
	parts := strings.Split(result.ShareableURL, "/")
	return parts[len(parts)-1]
}
