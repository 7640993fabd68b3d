package orm

import (
	"context"
	"database/sql"
	"errors"
)

var errNoRows = errors.New("test querier: no result rows")

// TestQuerier records statements instead of sending them anywhere.
// Exported for use in the orm_test package.
type TestQuerier struct {
	D       Dialect
	Queries []TestQuery
	NextID  int64
}

// TestQuery holds a captured query string and its args.
type TestQuery struct {
	SQL  string
	Args []any
}

// NewTestQuerier creates a TestQuerier with the given Dialect.
func NewTestQuerier(d Dialect) *TestQuerier {
	return &TestQuerier{D: d}
}

func (tq *TestQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	return nil, errNoRows
}

func (tq *TestQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	return testResult{id: tq.NextID}, nil
}

var _ Querier = (*TestQuerier)(nil)

// LastQuery returns the most recently captured query, or panics if empty.
func (tq *TestQuerier) LastQuery() TestQuery {
	return tq.Queries[len(tq.Queries)-1]
}

func (tq *TestQuerier) dialect() Dialect { return tq.D }

type testResult struct{ id int64 }

func (r testResult) LastInsertId() (int64, error) { return r.id, nil }
func (testResult) RowsAffected() (int64, error)   { return 0, nil }

// Statement exposes the verb classifier used by MetricsLogger.
var Statement = statement
