package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Luc0-0/Samarth/internal/model"
)

// SQLiteStore implements Executor using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS agri_production (
	state             TEXT NOT NULL,
	district          TEXT,
	crop              TEXT NOT NULL,
	year              INTEGER NOT NULL,
	production_tonnes REAL,
	area_hectares     REAL
);

CREATE TABLE IF NOT EXISTS climate_obs (
	state       TEXT NOT NULL,
	district    TEXT,
	year        INTEGER NOT NULL,
	rainfall_mm REAL
);

CREATE INDEX IF NOT EXISTS idx_agri_state_year ON agri_production(state, year);
CREATE INDEX IF NOT EXISTS idx_agri_crop ON agri_production(crop);
CREATE INDEX IF NOT EXISTS idx_climate_state_year ON climate_obs(state, year);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Execute(ctx context.Context, plan *model.QueryPlan) (*ExecResult, error) {
	query, args, err := BuildSQL(plan, sq.Question)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.ExecutionFailed("sqlite: query", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, model.ExecutionFailed("sqlite: scan", err)
	}
	return &ExecResult{Rows: result, Query: query}, nil
}

func (s *SQLiteStore) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert")
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	var n int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, eris.Wrapf(err, "sqlite: insert into %s", table)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert")
	}
	return n, nil
}

// scanRows converts sql rows into ordered column-keyed maps.
func scanRows(rows *sql.Rows) (model.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result model.ResultSet
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(model.Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
