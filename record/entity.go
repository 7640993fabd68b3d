package record

import (
	"context"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/mickamy/ormrecord/orm"
)

// Entity is one row of a model plus its relationship cache.
type Entity struct {
	db    *DB
	model *Model

	attrs orm.Row
	dirty map[string]struct{}
	isNew bool

	// relations holds *Entity (possibly nil) for One/Belongs and a
	// Collection for Many/ManyThrough. A present key means loaded.
	relations map[string]any
}

func (db *DB) hydrate(m *Model, row orm.Row) *Entity {
	if row.Values == nil {
		row.Values = make(map[string]any)
	}
	return &Entity{
		db:        db,
		model:     m,
		attrs:     row,
		dirty:     make(map[string]struct{}),
		relations: make(map[string]any),
	}
}

func (db *DB) create(m *Model, data map[string]any) *Entity {
	e := db.hydrate(m, orm.NewRow())
	e.isNew = true
	for _, col := range sortedKeys(data) {
		e.setAttr(col, data[col])
	}
	return e
}

// Model returns the entity's model.
func (e *Entity) Model() *Model { return e.model }

// ID returns the primary key value, or nil for an unsaved entity.
func (e *Entity) ID() any { return e.attrs.Get(e.model.idColumn) }

// IsNew reports whether the entity has not been inserted yet.
func (e *Entity) IsNew() bool { return e.isNew }

// IsDirty reports whether field was set since the entity was loaded or saved.
func (e *Entity) IsDirty(field string) bool {
	_, ok := e.dirty[field]
	return ok
}

// Attr returns the stored attribute value, ignoring accessors and relationships.
func (e *Entity) Attr(name string) any { return e.attrs.Get(name) }

// Has reports whether the entity carries the attribute name.
func (e *Entity) Has(name string) bool { return e.attrs.Has(name) }

// Columns lists the attribute names in select order.
func (e *Entity) Columns() []string { return append([]string(nil), e.attrs.Columns...) }

// GetString and friends read an attribute converted to the named type.
func (e *Entity) GetString(name string) string   { return cast.ToString(e.attrs.Get(name)) }
func (e *Entity) GetInt64(name string) int64     { return cast.ToInt64(e.attrs.Get(name)) }
func (e *Entity) GetFloat64(name string) float64 { return cast.ToFloat64(e.attrs.Get(name)) }
func (e *Entity) GetBool(name string) bool       { return cast.ToBool(e.attrs.Get(name)) }

// Get reads name: a stored attribute first, then a registered getter, then
// the relationship cache, and finally a declared relationship, which is
// loaded and cached on first read. Unknown names read as nil.
func (e *Entity) Get(ctx context.Context, name string) (any, error) {
	if v := e.attrs.Get(name); v != nil {
		return v, nil
	}
	if fn, ok := e.model.getter(name); ok {
		return fn(e), nil
	}
	if v, ok := e.relations[name]; ok {
		return untyped(v), nil
	}
	if !e.model.HasRelation(name) || name == e.model.idColumn {
		return nil, nil
	}
	if err := e.db.resolve(ctx, e.model, NewListCollection(e), []Request{{Name: name}}); err != nil {
		return nil, err
	}
	return untyped(e.relations[name]), nil
}

// untyped turns an unmatched One/Belongs slot into a plain nil.
func untyped(v any) any {
	if related, ok := v.(*Entity); ok && related == nil {
		return nil
	}
	return v
}

// One reads a One or Belongs relationship.
func (e *Entity) One(ctx context.Context, name string) (*Entity, error) {
	v, err := e.relation(ctx, name)
	if err != nil || v == nil {
		return nil, err
	}
	related, ok := v.(*Entity)
	if !ok {
		return nil, errors.Errorf("record: relationship %q on %s holds %T, not a single entity", name, e.model.name, v)
	}
	return related, nil
}

// Many reads a Many or ManyThrough relationship.
func (e *Entity) Many(ctx context.Context, name string) (Collection, error) {
	v, err := e.relation(ctx, name)
	if err != nil {
		return nil, err
	}
	c, ok := v.(Collection)
	if !ok {
		return nil, errors.Errorf("record: relationship %q on %s holds %T, not a collection", name, e.model.name, v)
	}
	return c, nil
}

func (e *Entity) relation(ctx context.Context, name string) (any, error) {
	if v, ok := e.relations[name]; ok {
		return v, nil
	}
	if !e.model.HasRelation(name) {
		return nil, unknownRelationship(e.model, name)
	}
	if err := e.db.resolve(ctx, e.model, NewListCollection(e), []Request{{Name: name}}); err != nil {
		return nil, err
	}
	return e.relations[name], nil
}

// Related returns the cached value of a relationship without loading it.
func (e *Entity) Related(name string) (any, bool) {
	v, ok := e.relations[name]
	return v, ok
}

// Forget drops the cached value of a relationship.
func (e *Entity) Forget(name string) { delete(e.relations, name) }

// Set stores value under name. A registered setter transforms the value
// first. Setting a declared relationship name fills its cache slot
// instead of an attribute.
func (e *Entity) Set(name string, value any) *Entity {
	if fn, ok := e.model.setter(name); ok {
		e.setAttr(name, fn(e, value))
		return e
	}
	if e.model.HasRelation(name) {
		e.relations[name] = value
		return e
	}
	e.setAttr(name, value)
	return e
}

// SetAll calls Set for every entry of data.
func (e *Entity) SetAll(data map[string]any) *Entity {
	for _, name := range sortedKeys(data) {
		e.Set(name, data[name])
	}
	return e
}

func (e *Entity) setAttr(name string, value any) {
	e.attrs.Set(name, value)
	e.dirty[name] = struct{}{}
}

// Hydrate replaces every attribute with data without marking anything dirty.
func (e *Entity) Hydrate(data map[string]any) *Entity {
	row := orm.NewRow()
	for _, col := range sortedKeys(data) {
		row.Set(col, data[col])
	}
	e.attrs = row
	e.dirty = make(map[string]struct{})
	return e
}

// AsMap copies the attributes, restricted to columns when any are given.
func (e *Entity) AsMap(columns ...string) map[string]any {
	if len(columns) == 0 {
		columns = e.attrs.Columns
	}
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		if e.attrs.Has(col) {
			out[col] = e.attrs.Get(col)
		}
	}
	return out
}

// Save inserts a new entity or updates the dirty attributes of a loaded one.
func (e *Entity) Save(ctx context.Context) error {
	m := e.model
	if m.timestamps {
		now := orm.Now(ctx)
		if e.isNew && !e.attrs.Has("created_at") {
			e.setAttr("created_at", now)
		}
		e.setAttr("updated_at", now)
	}

	if e.isNew {
		row := orm.Row{Columns: e.Columns(), Values: e.AsMap()}
		q := orm.NewRowQuery(e.db.q, m.table, m.idColumn, e.ID() == nil)
		if err := q.Create(ctx, &row); err != nil {
			return errors.Wrapf(err, "record: insert %s", m.name)
		}
		e.attrs.Set(m.idColumn, row.Get(m.idColumn))
		e.isNew = false
		e.dirty = make(map[string]struct{})
		return nil
	}

	if len(e.dirty) == 0 {
		return nil
	}
	row := orm.NewRow()
	row.Set(m.idColumn, e.ID())
	for _, col := range e.attrs.Columns {
		if _, ok := e.dirty[col]; ok && col != m.idColumn {
			row.Set(col, e.attrs.Get(col))
		}
	}
	if err := orm.NewRowQuery(e.db.q, m.table, m.idColumn, true).Update(ctx, &row); err != nil {
		return errors.Wrapf(err, "record: update %s %v", m.name, e.ID())
	}
	e.dirty = make(map[string]struct{})
	return nil
}

// Delete removes the entity's row.
func (e *Entity) Delete(ctx context.Context) error {
	m := e.model
	err := orm.NewRowQuery(e.db.q, m.table, m.idColumn, true).WhereEq(m.idColumn, e.ID()).Delete(ctx)
	return errors.Wrapf(err, "record: delete %s %v", m.name, e.ID())
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
