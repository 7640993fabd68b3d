package record

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/mickamy/ormrecord/orm"
)

// resolve loads reqs on every entity of parents, one query per request,
// and recurses into nested requests on the fetched entities. Every name
// is checked against m before the first query is issued.
func (db *DB) resolve(ctx context.Context, m *Model, parents Collection, reqs []Request) error {
	if parents.Len() == 0 || len(reqs) == 0 {
		return nil
	}

	fns := make([]RelationFunc, len(reqs))
	for i, req := range reqs {
		fn, ok := m.relation(req.Name)
		if !ok {
			return unknownRelationship(m, req.Name)
		}
		fns[i] = fn
	}

	for i, req := range reqs {
		rel := fns[i](parents.First(), req.Args...)
		if rel == nil {
			return &RelationError{Model: m.name, Relation: req.Name, Err: errors.New("declaration returned nil")}
		}
		if err := rel.err; err != nil {
			return &RelationError{Model: m.name, Relation: req.Name, Err: err}
		}
		if rel.query.err != nil {
			return &RelationError{Model: m.name, Relation: req.Name, Err: rel.query.err}
		}

		children, err := db.load(ctx, rel, req.Name, parents)
		if err != nil {
			return &RelationError{Model: m.name, Relation: req.Name, Err: err}
		}
		db.logger.DebugContext(ctx, "record: eager load",
			slog.String("model", m.name),
			slog.String("relation", req.Name),
			slog.String("kind", rel.Kind.String()),
			slog.Int("parents", parents.Len()),
			slog.Int("rows", children.Len()),
		)

		if err := db.resolve(ctx, rel.Model, children, req.With); err != nil {
			return err
		}
	}
	return nil
}

// load runs the batched query of rel for parents, fills the name slot of
// every parent and returns the fetched entities.
func (db *DB) load(ctx context.Context, rel *Relation, name string, parents Collection) (Collection, error) {
	switch rel.Kind {
	case One:
		return db.loadOne(ctx, rel, name, parents)
	case Belongs:
		return db.loadBelongs(ctx, rel, name, parents)
	case Many:
		return db.loadMany(ctx, rel, name, parents)
	case ManyThrough:
		return db.loadThrough(ctx, rel, name, parents)
	default:
		return nil, errors.Errorf("unsupported relation kind %d", rel.Kind)
	}
}

func (db *DB) loadOne(ctx context.Context, rel *Relation, name string, parents Collection) (Collection, error) {
	keys := distinctValues(parents, rel.LocalKey)
	rows, err := rel.query.q.WhereIn(rel.ForeignKey, keys).OnePer(rel.ForeignKey).All(ctx)
	if err != nil {
		return nil, err
	}

	children := NewListCollection()
	byKey := make(map[any]*Entity, len(rows))
	for _, row := range rows {
		child := db.hydrate(rel.Model, row)
		children.Add(child)
		k := orm.NormalizeValue(row.Get(rel.ForeignKey))
		if _, ok := byKey[k]; !ok {
			byKey[k] = child
		}
	}
	assignOne(parents, name, rel.LocalKey, byKey)
	return children, nil
}

func (db *DB) loadBelongs(ctx context.Context, rel *Relation, name string, parents Collection) (Collection, error) {
	keys := distinctValues(parents, rel.ForeignKey)
	rows, err := rel.query.q.WhereIn(rel.LocalKey, keys).All(ctx)
	if err != nil {
		return nil, err
	}

	children := NewListCollection()
	byKey := make(map[any]*Entity, len(rows))
	for _, row := range rows {
		k := orm.NormalizeValue(row.Get(rel.LocalKey))
		if _, ok := byKey[k]; ok {
			continue
		}
		child := db.hydrate(rel.Model, row)
		children.Add(child)
		byKey[k] = child
	}
	assignOne(parents, name, rel.ForeignKey, byKey)
	return children, nil
}

func assignOne(parents Collection, name, parentKey string, byKey map[any]*Entity) {
	for _, p := range parents.Pairs() {
		var related *Entity
		if k := p.Attr(parentKey); k != nil {
			related = byKey[orm.NormalizeValue(k)]
		}
		p.relations[name] = related
	}
}

func (db *DB) loadMany(ctx context.Context, rel *Relation, name string, parents Collection) (Collection, error) {
	keys := distinctValues(parents, rel.LocalKey)
	rows, err := rel.query.q.WhereIn(rel.ForeignKey, keys).All(ctx)
	if err != nil {
		return nil, err
	}

	children := NewListCollection()
	pairs := make([]orm.JoinPair[any, *Entity], 0, len(rows))
	for _, row := range rows {
		child := db.hydrate(rel.Model, row)
		children.Add(child)
		pairs = append(pairs, orm.JoinPair[any, *Entity]{Source: orm.NormalizeValue(row.Get(rel.ForeignKey)), Target: child})
	}
	byKey := orm.GroupBySource(pairs)

	idColumn := rel.Model.idColumn
	for _, p := range parents.Pairs() {
		matched := byKey[orm.NormalizeValue(p.Attr(rel.LocalKey))]
		p.relations[name] = keyedOrList(matched, idColumn)
	}
	return children, nil
}

// keyedOrList collects es by primary key, dropping repeats, or by position
// when some entity has no key.
func keyedOrList(es []*Entity, idColumn string) Collection {
	for _, e := range es {
		if e.Attr(idColumn) == nil {
			return NewListCollection(es...)
		}
	}
	c := NewKeyedCollection()
	for _, e := range es {
		if _, ok := c.Get(e.Attr(idColumn)); !ok {
			c.Add(e.Attr(idColumn), e)
		}
	}
	return c
}

func (db *DB) loadThrough(ctx context.Context, rel *Relation, name string, parents Collection) (Collection, error) {
	pivotColumn := rel.Through.Table + "." + rel.ForeignKey
	alias := rel.pivotAlias()

	keys := distinctValues(parents, rel.LocalKey)
	rows, err := rel.throughQuery().q.SelectAs(pivotColumn, alias).WhereIn(pivotColumn, keys).All(ctx)
	if err != nil {
		return nil, err
	}

	children := NewListCollection()
	pairs := make([]orm.JoinPair[any, *Entity], 0, len(rows))
	for _, row := range rows {
		k := orm.NormalizeValue(row.Get(alias))
		row.Delete(alias)
		child := db.hydrate(rel.Model, row)
		children.Add(child)
		pairs = append(pairs, orm.JoinPair[any, *Entity]{Source: k, Target: child})
	}
	byKey := orm.GroupBySource(pairs)

	for _, p := range parents.Pairs() {
		matched := byKey[orm.NormalizeValue(p.Attr(rel.LocalKey))]
		p.relations[name] = NewListCollection(matched...)
	}
	return children, nil
}

// distinctValues returns the non-nil values of column across c, first
// occurrence order.
func distinctValues(c Collection, column string) []any {
	seen := make(map[any]struct{}, c.Len())
	var out []any
	for _, e := range c.Pairs() {
		v := e.Attr(column)
		if v == nil {
			continue
		}
		k := orm.NormalizeValue(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
