package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mickamy/ormrecord/scope"
)

// ScanFunc scans a single row into T.
type ScanFunc[T any] func(rows *sql.Rows) (T, error)

// ColumnValueFunc extracts column names and their values from a *T.
// When includesPK is false the primary key column is excluded (for INSERT
// with auto-increment).
type ColumnValueFunc[T any] func(t *T, includesPK bool) (columns []string, values []any)

// SetPKFunc sets the auto-generated primary key on *T after INSERT.
// May be nil when the primary key is not auto-generated.
type SetPKFunc[T any] func(t *T, id int64)

// JoinConfig holds the metadata needed to build a JOIN clause at runtime.
type JoinConfig struct {
	TargetTable  string
	TargetColumn string
	SourceTable  string
	SourceColumn string
}

// Query represents a pending query against a single table.
// All builder methods return a new Query; the receiver is never modified.
type Query[T any] struct {
	db          Querier
	table       string
	columns     []string
	pk          string
	scan        ScanFunc[T]
	colValPairs ColumnValueFunc[T]
	setPK       SetPKFunc[T]

	wheres     []whereClause
	orderBys   []string
	groupBys   []string
	joins      []string
	selects    *string
	selectCols []string
	distinctOn string
	limit      *int
	offset     *int

	joinDefs map[string]JoinConfig
}

type whereClause struct {
	clause string
	args   []any
}

// NewQuery builds a Query for table. A nil columns slice selects "*".
func NewQuery[T any](
	db Querier,
	table string,
	columns []string,
	pk string,
	scan ScanFunc[T],
	colValPairs ColumnValueFunc[T],
	setPK SetPKFunc[T],
) *Query[T] {
	return &Query[T]{
		db:          db,
		table:       table,
		columns:     columns,
		pk:          pk,
		scan:        scan,
		colValPairs: colValPairs,
		setPK:       setPK,
	}
}

// Table returns the table the query reads from.
func (q *Query[T]) Table() string { return q.table }

// RegisterJoin returns a Query that knows the named join definition,
// for use with Join/LeftJoin.
func (q *Query[T]) RegisterJoin(name string, cfg JoinConfig) *Query[T] {
	q2 := q.clone()
	defs := make(map[string]JoinConfig, len(q.joinDefs)+1)
	for k, v := range q.joinDefs {
		defs[k] = v
	}
	defs[name] = cfg
	q2.joinDefs = defs
	return q2
}

// clone returns a shallow copy with slices copied to avoid aliasing.
func (q *Query[T]) clone() *Query[T] {
	q2 := *q
	q2.wheres = append([]whereClause(nil), q.wheres...)
	q2.orderBys = append([]string(nil), q.orderBys...)
	q2.groupBys = append([]string(nil), q.groupBys...)
	q2.joins = append([]string(nil), q.joins...)
	q2.selectCols = append([]string(nil), q.selectCols...)
	return &q2
}

// --- Builder methods ---

func (q *Query[T]) Where(clause string, args ...any) *Query[T] {
	q2 := q.clone()
	q2.wheres = append(q2.wheres, whereClause{clause, args})
	return q2
}

// WhereEq adds "column = ?" with the column quoted for the dialect.
func (q *Query[T]) WhereEq(column string, value any) *Query[T] {
	return q.Where(q.qi(column)+" = ?", value)
}

// WhereIn adds "column IN (?, ...)". An empty values slice matches nothing.
func (q *Query[T]) WhereIn(column string, values []any) *Query[T] {
	if len(values) == 0 {
		return q.Where("1 = 0")
	}
	return q.Where(q.qi(column)+" IN ("+placeholders(len(values))+")", values...)
}

func (q *Query[T]) OrderBy(clause string) *Query[T] {
	q2 := q.clone()
	q2.orderBys = append(q2.orderBys, clause)
	return q2
}

// GroupBy appends quoted GROUP BY columns.
func (q *Query[T]) GroupBy(columns ...string) *Query[T] {
	q2 := q.clone()
	for _, c := range columns {
		q2.groupBys = append(q2.groupBys, q.qi(c))
	}
	return q2
}

// OnePer restricts the result to one row per distinct value of column:
// DISTINCT ON for PostgreSQL, GROUP BY elsewhere.
func (q *Query[T]) OnePer(column string) *Query[T] {
	if !q.db.dialect().UseDistinctOn() {
		return q.GroupBy(column)
	}
	q2 := q.clone()
	q2.distinctOn = column
	return q2
}

func (q *Query[T]) Limit(n int) *Query[T] {
	q2 := q.clone()
	q2.limit = &n
	return q2
}

func (q *Query[T]) Offset(n int) *Query[T] {
	q2 := q.clone()
	q2.offset = &n
	return q2
}

// Select overrides the select list with a raw expression.
func (q *Query[T]) Select(columns string) *Query[T] {
	q2 := q.clone()
	q2.selects = &columns
	return q2
}

// SelectColumns appends quoted column references ("car.*", "car_part.car_id")
// to the select list.
func (q *Query[T]) SelectColumns(refs ...string) *Query[T] {
	q2 := q.clone()
	for _, r := range refs {
		q2.selectCols = append(q2.selectCols, q.qi(r))
	}
	return q2
}

// SelectAs appends "ref AS alias" to the select list.
func (q *Query[T]) SelectAs(ref, alias string) *Query[T] {
	q2 := q.clone()
	q2.selectCols = append(q2.selectCols, q.qi(ref)+" AS "+q.qi(alias))
	return q2
}

// Join adds an INNER JOIN for the named relation.
func (q *Query[T]) Join(name string) *Query[T] {
	return q.addJoin("INNER JOIN", name)
}

// LeftJoin adds a LEFT JOIN for the named relation.
func (q *Query[T]) LeftJoin(name string) *Query[T] {
	return q.addJoin("LEFT JOIN", name)
}

func (q *Query[T]) addJoin(joinType, name string) *Query[T] {
	cfg, ok := q.joinDefs[name]
	if !ok {
		return q
	}
	q2 := q.clone()
	q2.joins = append(q2.joins, q.joinClause(joinType, cfg))
	return q2
}

func (q *Query[T]) joinClause(joinType string, cfg JoinConfig) string {
	return fmt.Sprintf(
		"%s %s ON %s.%s = %s.%s",
		joinType,
		q.qi(cfg.TargetTable),
		q.qi(cfg.TargetTable), q.qi(cfg.TargetColumn),
		q.qi(cfg.SourceTable), q.qi(cfg.SourceColumn),
	)
}

// Scopes applies the given scope.Scope values to the query.
func (q *Query[T]) Scopes(scopes ...scope.Scope) *Query[T] {
	q2 := q.clone()
	for _, s := range scopes {
		s.Apply(q2)
	}
	return q2
}

// --- scope.Applier implementation ---

func (q *Query[T]) ApplyWhere(clause string, args []any) {
	q.wheres = append(q.wheres, whereClause{clause, args})
}

func (q *Query[T]) ApplyOrderBy(clause string) {
	q.orderBys = append(q.orderBys, clause)
}

func (q *Query[T]) ApplyGroupBy(column string) {
	q.groupBys = append(q.groupBys, q.qi(column))
}

func (q *Query[T]) ApplyJoin(cfg scope.JoinSpec) {
	q.joins = append(q.joins, q.joinClause(cfg.Type, JoinConfig{
		TargetTable:  cfg.Table,
		TargetColumn: cfg.Column,
		SourceTable:  cfg.OnTable,
		SourceColumn: cfg.OnColumn,
	}))
}

func (q *Query[T]) ApplyLimit(n int)  { q.limit = &n }
func (q *Query[T]) ApplyOffset(n int) { q.offset = &n }

func (q *Query[T]) ApplySelect(columns string) {
	q.selects = &columns
}

// Quote quotes a possibly table-qualified identifier for the query's dialect.
func (q *Query[T]) Quote(ref string) string { return q.qi(ref) }

var _ scope.Applier = (*Query[any])(nil)

// --- Terminal methods ---

// All executes a SELECT and returns all matching rows.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	query, args := q.buildSelect()
	query, args = q.rewrite(query, args)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	var result []T
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return result, nil
}

// First executes a SELECT with LIMIT 1 and returns the first row.
// Returns ErrNotFound if no rows match.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	q2 := q.Limit(1)
	items, err := q2.All(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(items) == 0 {
		var zero T
		return zero, ErrNotFound
	}
	return items[0], nil
}

// Count returns the number of rows matching the current query conditions.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	query, args := q.buildCount()
	query, args = q.rewrite(query, args)

	var count int64
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return 0, errors.New("orm: COUNT returned no rows")
	}
	if err := rows.Scan(&count); err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return count, rows.Err() //nolint:wrapcheck // pass through
}

// Exists returns true if at least one row matches the current query conditions.
func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Limit(1).Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts t. When the query generates keys, the new key is stored
// on t via RETURNING (PostgreSQL) or LastInsertId (MySQL, SQLite).
func (q *Query[T]) Create(ctx context.Context, t *T) error {
	return q.insert(ctx, []*T{t})
}

// CreateAll inserts items in a single multi-row INSERT. Generated keys are
// assigned in order; without RETURNING they are assumed consecutive from
// LastInsertId.
func (q *Query[T]) CreateAll(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}
	return q.insert(ctx, items)
}

func (q *Query[T]) insert(ctx context.Context, items []*T) error {
	includesPK := q.setPK == nil
	columns, _ := q.colValPairs(items[0], includesPK)

	var values []any
	for _, item := range items {
		_, vals := q.colValPairs(item, includesPK)
		values = append(values, vals...)
	}
	query, values := q.rewrite(q.buildInsert(columns, len(items)), values)

	d := q.db.dialect()
	if q.setPK != nil && d.UseReturning() {
		return q.insertReturning(ctx, query+d.ReturningClause(q.pk), values, items)
	}

	result, err := q.db.ExecContext(ctx, query, values...)
	if err != nil || q.setPK == nil {
		return err //nolint:wrapcheck // pass through
	}
	first, err := result.LastInsertId()
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	// SQLite and MySQL report the first key of a multi-row insert differently;
	// both are consecutive from the last one.
	if len(items) > 1 && q.lastInsertIsLastRow() {
		first -= int64(len(items) - 1)
	}
	for i, item := range items {
		q.setPK(item, first+int64(i))
	}
	return nil
}

func (q *Query[T]) insertReturning(ctx context.Context, query string, values []any, items []*T) error {
	rows, err := q.db.QueryContext(ctx, query, values...)
	if err != nil {
		return err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for ; rows.Next() && n < len(items); n++ {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err //nolint:wrapcheck // pass through
		}
		q.setPK(items[n], id)
	}
	if err := rows.Err(); err != nil {
		return err //nolint:wrapcheck // pass through
	}
	if n == 0 {
		return errors.New("orm: INSERT RETURNING returned no rows")
	}
	return nil
}

func (q *Query[T]) lastInsertIsLastRow() bool {
	_, ok := q.db.dialect().(sqliteDialect)
	return ok
}

// Update updates the row identified by the primary key of t.
// All non-PK columns are SET.
func (q *Query[T]) Update(ctx context.Context, t *T) error {
	allCols, allVals := q.colValPairs(t, true)

	var setCols []string
	var setVals []any
	var pkVal any
	for i, col := range allCols {
		if col == q.pk {
			pkVal = allVals[i]
		} else {
			setCols = append(setCols, col)
			setVals = append(setVals, allVals[i])
		}
	}
	if pkVal == nil {
		return ErrMissingPK
	}
	if len(setCols) == 0 {
		return nil
	}

	setVals = append(setVals, pkVal)
	query := q.buildUpdate(setCols)
	query, setVals = q.rewrite(query, setVals)

	_, err := q.db.ExecContext(ctx, query, setVals...)
	return err //nolint:wrapcheck // pass through
}

// Delete deletes rows matching the accumulated WHERE clauses.
// Returns an error if no WHERE clauses are set (safety guard).
func (q *Query[T]) Delete(ctx context.Context) error {
	if len(q.wheres) == 0 {
		return ErrMissingWhere
	}
	query, args := q.buildDelete()
	query, args = q.rewrite(query, args)

	_, err := q.db.ExecContext(ctx, query, args...)
	return err //nolint:wrapcheck // pass through
}

// --- SQL building ---

// qi quotes an identifier (table/column name, optionally table-qualified)
// using the dialect.
func (q *Query[T]) qi(name string) string {
	return quoteRef(q.db.dialect(), name)
}

// quoteColumns joins column names with dialect-aware quoting.
func (q *Query[T]) quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = q.qi(c)
	}
	return strings.Join(quoted, ", ")
}

func (q *Query[T]) selectList() string {
	switch {
	case q.selects != nil:
		return *q.selects
	case len(q.selectCols) > 0:
		return strings.Join(q.selectCols, ", ")
	case len(q.columns) > 0:
		return q.quoteColumns(q.columns)
	default:
		return "*"
	}
}

func (q *Query[T]) buildSelect() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")

	if q.distinctOn != "" {
		fmt.Fprintf(&b, "DISTINCT ON (%s) ", q.qi(q.distinctOn))
	}
	b.WriteString(q.selectList())

	b.WriteString(" FROM ")
	b.WriteString(q.qi(q.table))

	for _, j := range q.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}

	args := q.appendWhere(&b)

	if len(q.groupBys) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(q.groupBys, ", "))
	}

	orderBys := q.orderBys
	if q.distinctOn != "" && len(orderBys) > 0 {
		// DISTINCT ON must lead the ORDER BY list.
		orderBys = append([]string{q.qi(q.distinctOn)}, orderBys...)
	}
	if len(orderBys) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderBys, ", "))
	}

	if q.limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.limit)
	}
	if q.offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *q.offset)
	}

	return b.String(), args
}

// buildCount counts matching rows, or matching groups when the query is
// grouped or restricted to one row per value.
func (q *Query[T]) buildCount() (string, []any) {
	if len(q.groupBys) > 0 || q.distinctOn != "" {
		sub := q.clone()
		sub.selects = nil
		sub.orderBys = nil
		if len(q.groupBys) > 0 {
			sub.selectCols = append([]string(nil), q.groupBys...)
		} else {
			sub.selectCols = []string{q.qi(q.distinctOn)}
		}
		inner, args := sub.buildSelect()
		return "SELECT COUNT(*) FROM (" + inner + ") AS sub", args
	}

	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(q.qi(q.table))

	for _, j := range q.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}

	args := q.appendWhere(&b)

	if q.limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *q.limit)
	}
	if q.offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *q.offset)
	}

	return b.String(), args
}

func (q *Query[T]) buildInsert(columns []string, rowCount int) string {
	row := "(" + placeholders(len(columns)) + ")"
	rows := make([]string, rowCount)
	for i := range rows {
		rows[i] = row
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		q.qi(q.table),
		q.quoteColumns(columns),
		strings.Join(rows, ", "),
	)
}

func (q *Query[T]) buildUpdate(setCols []string) string {
	sets := make([]string, len(setCols))
	for i, col := range setCols {
		sets[i] = q.qi(col) + " = ?"
	}
	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		q.qi(q.table),
		strings.Join(sets, ", "),
		q.qi(q.pk),
	)
}

func (q *Query[T]) buildDelete() (string, []any) {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(q.qi(q.table))
	args := q.appendWhere(&b)
	return b.String(), args
}

func (q *Query[T]) appendWhere(b *strings.Builder) []any {
	if len(q.wheres) == 0 {
		return nil
	}

	var args []any
	b.WriteString(" WHERE ")
	for i, w := range q.wheres {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(w.clause)
		args = append(args, w.args...)
	}
	return args
}

// rewrite converts ? placeholders to dialect-specific placeholders.
// For MySQL and SQLite this is a no-op. For PostgreSQL, ? becomes $1, $2, etc.
func (q *Query[T]) rewrite(query string, args []any) (string, []any) {
	return rewritePlaceholders(q.db.dialect(), query), args
}
