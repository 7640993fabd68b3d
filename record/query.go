package record

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mickamy/ormrecord/orm"
	"github.com/mickamy/ormrecord/scope"
)

// Query is a pending query against one model with the relationships to
// load eagerly on its results. Builder methods return a new Query; the
// receiver is never modified. Builder errors are reported by the terminal
// method before any statement runs.
type Query struct {
	db    *DB
	model *Model
	q     *orm.Query[orm.Row]

	with       []Request
	positional bool
	err        error
}

func newQuery(db *DB, m *Model) *Query {
	return &Query{
		db:    db,
		model: m,
		q:     orm.NewRowQuery(db.q, m.table, m.idColumn, true),
	}
}

func (q *Query) clone() *Query {
	q2 := *q
	q2.with = append([]Request(nil), q.with...)
	return &q2
}

func (q *Query) apply(fn func(*orm.Query[orm.Row]) *orm.Query[orm.Row]) *Query {
	if q.err != nil {
		return q
	}
	q2 := q.clone()
	q2.q = fn(q.q)
	return q2
}

// Model returns the queried model, or nil when it is unknown.
func (q *Query) Model() *Model { return q.model }

// Where adds a raw condition with ? placeholders, ANDed with the others.
func (q *Query) Where(clause string, args ...any) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.Where(clause, args...) })
}

// WhereEq adds "column = value".
func (q *Query) WhereEq(column string, value any) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.WhereEq(column, value) })
}

// WhereIn adds "column IN (values)"; empty values match nothing.
func (q *Query) WhereIn(column string, values []any) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.WhereIn(column, values) })
}

// WhereIDIs restricts the query to one primary key.
func (q *Query) WhereIDIs(id any) *Query {
	if q.err != nil {
		return q
	}
	return q.WhereEq(q.model.idColumn, id)
}

// WhereIDIn restricts the query to a set of primary keys.
func (q *Query) WhereIDIn(ids []any) *Query {
	if q.err != nil {
		return q
	}
	return q.WhereIn(q.model.idColumn, ids)
}

// OrderBy appends an ORDER BY clause, passed through as written.
func (q *Query) OrderBy(clause string) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.OrderBy(clause) })
}

// GroupBy groups by the given columns.
func (q *Query) GroupBy(columns ...string) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.GroupBy(columns...) })
}

// Select restricts the selected columns.
func (q *Query) Select(columns ...string) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.SelectColumns(columns...) })
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.Limit(n) })
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.Offset(n) })
}

// Scopes applies scope fragments.
func (q *Query) Scopes(scopes ...scope.Scope) *Query {
	return q.apply(func(o *orm.Query[orm.Row]) *orm.Query[orm.Row] { return o.Scopes(scopes...) })
}

// Filter applies the model's filter registered under name.
func (q *Query) Filter(name string, args ...any) *Query {
	if q.err != nil {
		return q
	}
	fn, ok := q.model.filter(name)
	if !ok {
		q2 := q.clone()
		q2.err = errors.Wrapf(ErrUnknownFilter, "%q on %s", name, q.model.name)
		return q2
	}
	return fn(q, args...)
}

// With loads the named relationships on every result. "a.b" loads b on
// the entities loaded for a.
func (q *Query) With(names ...string) *Query {
	return q.WithRequests(parseWith(names...)...)
}

// WithRequests is With for requests carrying declaration arguments or
// nested requests.
func (q *Query) WithRequests(reqs ...Request) *Query {
	q2 := q.clone()
	q2.with = append(q2.with, reqs...)
	return q2
}

// NonAssociative makes FindMany return a ListCollection instead of a
// collection keyed by primary key.
func (q *Query) NonAssociative() *Query {
	q2 := q.clone()
	q2.positional = true
	return q2
}

// FindOne returns the first matching entity, or the entity with the given
// primary key when id is passed. It fails with ErrNotFound.
func (q *Query) FindOne(ctx context.Context, id ...any) (*Entity, error) {
	if len(id) > 0 {
		q = q.WhereIDIs(id[0])
	}
	if q.err != nil {
		return nil, q.err
	}
	row, err := q.q.First(ctx)
	if err != nil {
		if errors.Is(err, orm.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "record: find %s", q.model.name)
	}
	e := q.db.hydrate(q.model, row)
	if err := q.db.resolve(ctx, q.model, NewListCollection(e), q.with); err != nil {
		return nil, err
	}
	return e, nil
}

// FindMany returns every matching entity, keyed by primary key unless
// NonAssociative was called or some row lacks one.
func (q *Query) FindMany(ctx context.Context) (Collection, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := q.q.All(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "record: find %s", q.model.name)
	}
	c := q.db.collect(q.model, rows, q.positional)
	if err := q.db.resolve(ctx, q.model, c, q.with); err != nil {
		return nil, err
	}
	return c, nil
}

func (db *DB) collect(m *Model, rows []orm.Row, positional bool) Collection {
	if !positional {
		for _, r := range rows {
			if r.Get(m.idColumn) == nil {
				positional = true
				break
			}
		}
	}
	if positional {
		c := NewListCollection()
		for _, r := range rows {
			c.Add(db.hydrate(m, r))
		}
		return c
	}
	c := NewKeyedCollection()
	for _, r := range rows {
		c.Add(r.Get(m.idColumn), db.hydrate(m, r))
	}
	return c
}

// Count returns the number of matching rows.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	n, err := q.q.Count(ctx)
	return n, errors.Wrapf(err, "record: count %s", q.model.name)
}

// Exists reports whether any row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	ok, err := q.q.Exists(ctx)
	return ok, errors.Wrapf(err, "record: exists %s", q.model.name)
}

// Pluck returns column of the first matching row, or nil when none match.
func (q *Query) Pluck(ctx context.Context, column string) (any, error) {
	if q.err != nil {
		return nil, q.err
	}
	row, err := q.q.SelectColumns(column).First(ctx)
	if errors.Is(err, orm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "record: pluck %s.%s", q.model.name, column)
	}
	return row.Get(column), nil
}

// Pair is one entry of FindPairs.
type Pair struct {
	Key   any
	Value any
}

// FindPairs returns (key, value) column pairs ordered by value, or nil when
// no row matches.
func (q *Query) FindPairs(ctx context.Context, key, value string) ([]Pair, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := q.q.SelectColumns(key, value).OrderBy(q.q.Quote(value) + " ASC").All(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "record: pairs %s", q.model.name)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	pairs := make([]Pair, len(rows))
	for i, r := range rows {
		pairs[i] = Pair{Key: r.Get(key), Value: r.Get(value)}
	}
	return pairs, nil
}

// Create returns a new, unsaved entity of the queried model filled with data.
func (q *Query) Create(data map[string]any) (*Entity, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.db.create(q.model, data), nil
}

// Insert saves one new entity per row inside a single transaction. The
// returned entities are bound to q's DB, not to the finished transaction.
func (q *Query) Insert(ctx context.Context, rows []map[string]any) (Collection, error) {
	if q.err != nil {
		return nil, q.err
	}
	out := NewListCollection()
	err := q.db.Transaction(ctx, func(tx *DB) error {
		for _, data := range rows {
			e := tx.create(q.model, data)
			if err := e.Save(ctx); err != nil {
				return err
			}
			out.Add(e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, e := range out.items {
		e.db = q.db
	}
	return out, nil
}

// DeleteMany deletes every matching row. A query without conditions is refused.
func (q *Query) DeleteMany(ctx context.Context) error {
	if q.err != nil {
		return q.err
	}
	return errors.Wrapf(q.q.Delete(ctx), "record: delete %s", q.model.name)
}
