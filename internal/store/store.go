// Package store implements the analytic store executors. The store is a
// shared, read-mostly resource: executors tolerate concurrent reads and
// take no locks on the query path.
package store

import (
	"context"

	"github.com/Luc0-0/Samarth/internal/model"
)

// ExecResult is the outcome of executing one query plan. The rendered
// query text travels with the rows so provenance can cite it verbatim.
type ExecResult struct {
	Rows  model.ResultSet
	Query string
}

// Executor runs structured query plans against the historical store.
type Executor interface {
	Execute(ctx context.Context, plan *model.QueryPlan) (*ExecResult, error)

	// InsertRows bulk-loads ingested rows into a table.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
