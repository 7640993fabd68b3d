package record_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/ormrecord/internal/fixture"
	"github.com/mickamy/ormrecord/orm"
	"github.com/mickamy/ormrecord/record"
)

// recorder captures every statement sent through an orm.DB.
type recorder struct {
	mu      sync.Mutex
	queries []statement
}

type statement struct {
	SQL  string
	Args []any
}

func (r *recorder) log(_ context.Context, query string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, statement{SQL: query, Args: args})
}

// reset forgets the statements recorded so far.
func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = nil
}

func (r *recorder) sql() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queries))
	for i, q := range r.queries {
		out[i] = q.SQL
	}
	return out
}

func (r *recorder) selects() int {
	n := 0
	for _, s := range r.sql() {
		if strings.HasPrefix(s, "SELECT") {
			n++
		}
	}
	return n
}

func (r *recorder) last() statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

// openSQLite returns an in-memory database without tables.
func openSQLite(t *testing.T) (*orm.DB, *recorder) {
	t.Helper()

	odb, err := orm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection keeps the in-memory database alive across statements.
	odb.Raw().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = odb.Close() })

	rec := &recorder{}
	return odb.Debug(orm.LoggerFunc(rec.log)), rec
}

// setup returns a record.DB over the seeded car fixture. Statements issued
// while seeding are not recorded.
func setup(t *testing.T) (context.Context, *record.DB, *recorder) {
	t.Helper()

	ctx := context.Background()
	odb, rec := openSQLite(t)
	require.NoError(t, fixture.Setup(ctx, odb))
	rec.reset()

	db := record.New(odb)
	fixture.Define(db)
	return ctx, db, rec
}

func uuidString(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id.String()
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newDebugLogger(b *syncBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
