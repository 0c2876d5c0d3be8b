package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Luc0-0/Samarth/internal/model"
)

// Pool is the subset of pgxpool.Pool the executor needs; pgxmock
// implements the same surface for tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Executor using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS agri_production (
	state             TEXT NOT NULL,
	district          TEXT,
	crop              TEXT NOT NULL,
	year              INTEGER NOT NULL,
	production_tonnes DOUBLE PRECISION,
	area_hectares     DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS climate_obs (
	state       TEXT NOT NULL,
	district    TEXT,
	year        INTEGER NOT NULL,
	rainfall_mm DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_agri_state_year ON agri_production(state, year);
CREATE INDEX IF NOT EXISTS idx_agri_crop ON agri_production(crop);
CREATE INDEX IF NOT EXISTS idx_climate_state_year ON climate_obs(state, year);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Execute(ctx context.Context, plan *model.QueryPlan) (*ExecResult, error) {
	query, args, err := BuildSQL(plan, sq.Dollar)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, model.ExecutionFailed("postgres: query", err)
	}
	defer rows.Close()

	result, err := scanPgxRows(rows)
	if err != nil {
		return nil, model.ExecutionFailed("postgres: scan", err)
	}
	return &ExecResult{Rows: result, Query: query}, nil
}

func (s *PostgresStore) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	var n int64
	for _, row := range rows {
		if _, err := s.pool.Exec(ctx, stmt, row...); err != nil {
			return n, eris.Wrapf(err, "postgres: insert into %s", table)
		}
		n++
	}
	return n, nil
}

func scanPgxRows(rows pgx.Rows) (model.ResultSet, error) {
	fields := rows.FieldDescriptions()

	var result model.ResultSet
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(model.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
