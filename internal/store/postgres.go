package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/enviducate/enviducate/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, extracted so tests
// can substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS results (
	id          TEXT PRIMARY KEY,
	share_token TEXT NOT NULL,
	category    TEXT NOT NULL,
	query       TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_results_share_token ON results(share_token);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *model.EnvironmentalResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO results (id, share_token, category, query, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		result.ID, ShareToken(result), string(result.Category), result.OriginalQuery,
		payload, result.GeneratedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save result")
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.EnvironmentalResult, error) {
	return s.getByColumn(ctx, "id", id)
}

func (s *PostgresStore) GetResultByShareToken(ctx context.Context, token string) (*model.EnvironmentalResult, error) {
	return s.getByColumn(ctx, "share_token", token)
}

func (s *PostgresStore) getByColumn(ctx context.Context, column, value string) (*model.EnvironmentalResult, error) {
	var payload []byte
	row := s.pool.QueryRow(ctx, `SELECT payload FROM results WHERE `+column+` = $1 LIMIT 1`, value)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get result")
	}

	var result model.EnvironmentalResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &result, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	tag, err := s.pool.Exec(ctx, `DELETE FROM results WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}
