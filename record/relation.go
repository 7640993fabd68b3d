package record

import (
	"github.com/mickamy/ormrecord/internal/naming"
	"github.com/mickamy/ormrecord/orm"
	"github.com/mickamy/ormrecord/scope"
)

// Kind is the shape of a relationship.
type Kind int

const (
	// One is 1:1 with the key on the associated table.
	One Kind = iota + 1
	// Many is 1:n with the key on the associated table.
	Many
	// Belongs is 1:1 with the key on the base table.
	Belongs
	// ManyThrough is n:m through a join table.
	ManyThrough
)

func (k Kind) String() string {
	switch k {
	case One:
		return "one"
	case Many:
		return "many"
	case Belongs:
		return "belongs"
	case ManyThrough:
		return "many_through"
	default:
		return "unknown"
	}
}

// Relation describes a declared relationship of one entity: its kind, the
// columns linking both sides, and an unexecuted query against the
// associated model. The query carries no relating predicate; Query adds
// it for the declaring entity and the eager loader adds a batched
// "key IN (...)" instead.
type Relation struct {
	Kind  Kind
	Model *Model

	// ForeignKey is the linking column: on the associated table for One
	// and Many, on the base table for Belongs, and the join-table column
	// pointing at the base row for ManyThrough.
	ForeignKey string
	// LocalKey is the column matched against ForeignKey: on the base table
	// for One, Many and ManyThrough, on the associated table for Belongs.
	LocalKey string
	// Through is set for ManyThrough only.
	Through *Through

	parent *Entity
	query  *Query
	err    error
}

// Through names the join table of a ManyThrough relationship.
type Through struct {
	Table string
	// AssociatedKey is the join-table column pointing at the associated row.
	AssociatedKey string
	// TargetKey is the associated column AssociatedKey refers to.
	TargetKey string
}

// RelationOption overrides the conventional keys of a declaration.
type RelationOption func(*relationConfig)

type relationConfig struct {
	foreignKey    string
	localKey      string
	joinModel     string
	joinTable     string
	associatedKey string
	targetKey     string
}

// ForeignKey sets Relation.ForeignKey.
func ForeignKey(column string) RelationOption {
	return func(c *relationConfig) { c.foreignKey = column }
}

// LocalKey sets the base-table column for One, Many and ManyThrough.
func LocalKey(column string) RelationOption {
	return func(c *relationConfig) { c.localKey = column }
}

// OwnerKey sets the associated-table column a Belongs foreign key refers to.
func OwnerKey(column string) RelationOption {
	return func(c *relationConfig) { c.localKey = column }
}

// JoinModel names the model whose table joins a ManyThrough relationship.
func JoinModel(name string) RelationOption {
	return func(c *relationConfig) { c.joinModel = name }
}

// JoinTable names the join table of a ManyThrough relationship directly.
func JoinTable(table string) RelationOption {
	return func(c *relationConfig) { c.joinTable = table }
}

// AssociatedKey sets the join-table column pointing at the associated row.
func AssociatedKey(column string) RelationOption {
	return func(c *relationConfig) { c.associatedKey = column }
}

// TargetKey sets the associated column AssociatedKey refers to.
func TargetKey(column string) RelationOption {
	return func(c *relationConfig) { c.targetKey = column }
}

// HasOne declares a 1:1 relationship whose key lives on the associated
// table, "<base table>_id" by default.
func (e *Entity) HasOne(associated string, opts ...RelationOption) *Relation {
	return e.declare(One, associated, opts)
}

// HasMany declares a 1:n relationship whose key lives on the associated
// table, "<base table>_id" by default.
func (e *Entity) HasMany(associated string, opts ...RelationOption) *Relation {
	return e.declare(Many, associated, opts)
}

// BelongsTo declares the inverse of HasOne/HasMany: the key lives on this
// entity's table, "<associated table>_id" by default.
func (e *Entity) BelongsTo(associated string, opts ...RelationOption) *Relation {
	return e.declare(Belongs, associated, opts)
}

// HasManyThrough declares an n:m relationship through a join table. The
// join model defaults to both model names sorted and concatenated, and
// its columns to "<base table>_id" and "<associated table>_id".
func (e *Entity) HasManyThrough(associated string, opts ...RelationOption) *Relation {
	return e.declare(ManyThrough, associated, opts)
}

func (e *Entity) declare(kind Kind, associated string, opts []RelationOption) *Relation {
	var cfg relationConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Relation{Kind: kind, parent: e}
	m, ok := e.model.reg.model(associated)
	if !ok {
		r.err = unknownModel(associated)
		return r
	}
	r.Model = m
	r.query = newQuery(e.db, m)

	base := e.model
	plural := e.model.reg.plural
	switch kind {
	case One, Many:
		r.ForeignKey = or(cfg.foreignKey, naming.ForeignKey(base.table, plural))
		r.LocalKey = or(cfg.localKey, base.idColumn)
	case Belongs:
		r.ForeignKey = or(cfg.foreignKey, naming.ForeignKey(m.table, plural))
		r.LocalKey = or(cfg.localKey, m.idColumn)
	case ManyThrough:
		table := cfg.joinTable
		if table == "" {
			joinModel := or(cfg.joinModel, naming.JoinModel(base.name, associated))
			if jm, ok := e.model.reg.model(joinModel); ok {
				table = jm.table
			} else {
				table = naming.TableName(joinModel, plural)
			}
		}
		r.ForeignKey = or(cfg.foreignKey, naming.ForeignKey(base.table, plural))
		r.LocalKey = or(cfg.localKey, base.idColumn)
		r.Through = &Through{
			Table:         table,
			AssociatedKey: or(cfg.associatedKey, naming.ForeignKey(m.table, plural)),
			TargetKey:     or(cfg.targetKey, m.idColumn),
		}
	}
	return r
}

// Err reports a declaration failure, such as an undefined associated model.
func (r *Relation) Err() error { return r.err }

// Where constrains the associated query.
func (r *Relation) Where(clause string, args ...any) *Relation {
	return r.with(func(q *Query) *Query { return q.Where(clause, args...) })
}

// OrderBy orders the associated rows.
func (r *Relation) OrderBy(clause string) *Relation {
	return r.with(func(q *Query) *Query { return q.OrderBy(clause) })
}

// Scopes applies scope fragments to the associated query.
func (r *Relation) Scopes(scopes ...scope.Scope) *Relation {
	return r.with(func(q *Query) *Query { return q.Scopes(scopes...) })
}

// Filter applies a named filter of the associated model.
func (r *Relation) Filter(name string, args ...any) *Relation {
	return r.with(func(q *Query) *Query { return q.Filter(name, args...) })
}

func (r *Relation) with(fn func(*Query) *Query) *Relation {
	if r.err != nil {
		return r
	}
	r2 := *r
	r2.query = fn(r.query)
	return &r2
}

// Query returns the associated query restricted to the declaring entity.
func (r *Relation) Query() *Query {
	if r.err != nil {
		return &Query{db: r.parent.db, err: r.err}
	}
	switch r.Kind {
	case Belongs:
		return r.query.WhereEq(r.LocalKey, r.parent.Attr(r.ForeignKey))
	case ManyThrough:
		return r.throughQuery().WhereEq(r.Through.Table+"."+r.ForeignKey, r.parent.Attr(r.LocalKey))
	default:
		return r.query.WhereEq(r.ForeignKey, r.parent.Attr(r.LocalKey))
	}
}

// pivotAlias is the select alias carrying the join-table key of a
// ManyThrough row back to its parent.
func (r *Relation) pivotAlias() string {
	return "pivot_" + r.ForeignKey
}

func (r *Relation) throughQuery() *Query {
	t := r.Through
	table := r.Model.table
	q := r.query.clone()
	q.q = q.q.
		RegisterJoin(t.Table, orm.JoinConfig{
			TargetTable:  t.Table,
			TargetColumn: t.AssociatedKey,
			SourceTable:  table,
			SourceColumn: t.TargetKey,
		}).
		Join(t.Table).
		SelectColumns(table + ".*")
	return q
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
