package record

import (
	"github.com/pkg/errors"
)

const defaultIDColumn = "id"

// RelationFunc declares a relationship of e. It is called with the
// arguments of the with-request (or none for a lazy read).
type RelationFunc func(e *Entity, args ...any) *Relation

// FilterFunc is a named, reusable query fragment.
type FilterFunc func(q *Query, args ...any) *Query

// GetterFunc computes the value read for a field that has no attribute.
type GetterFunc func(e *Entity) any

// SetterFunc transforms a value before it is stored on a field.
type SetterFunc func(e *Entity, value any) any

// Model describes one entity type: its table, primary key column and the
// relationships, filters and accessors registered for it.
type Model struct {
	name       string
	table      string
	idColumn   string
	timestamps bool
	reg        *registry

	relations map[string]RelationFunc
	filters   map[string]FilterFunc
	getters   map[string]GetterFunc
	setters   map[string]SetterFunc
}

// ModelOption configures a Model at definition time.
type ModelOption func(*Model)

// Table overrides the derived table name.
func Table(name string) ModelOption {
	return func(m *Model) { m.table = name }
}

// IDColumn overrides the primary key column (default "id").
func IDColumn(column string) ModelOption {
	return func(m *Model) { m.idColumn = column }
}

// Timestamps makes Save maintain created_at and updated_at.
func Timestamps() ModelOption {
	return func(m *Model) { m.timestamps = true }
}

func (m *Model) Name() string     { return m.name }
func (m *Model) Table() string    { return m.table }
func (m *Model) IDColumn() string { return m.idColumn }

// Relation registers a relationship declaration under name.
func (m *Model) Relation(name string, fn RelationFunc) *Model {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	m.relations[name] = fn
	return m
}

// Filter registers a named query fragment usable through Query.Filter.
func (m *Model) Filter(name string, fn FilterFunc) *Model {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	m.filters[name] = fn
	return m
}

// Getter registers a computed accessor for field.
func (m *Model) Getter(field string, fn GetterFunc) *Model {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	m.getters[field] = fn
	return m
}

// Setter registers a mutator for field.
func (m *Model) Setter(field string, fn SetterFunc) *Model {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	m.setters[field] = fn
	return m
}

// HasRelation reports whether name is a declared relationship.
func (m *Model) HasRelation(name string) bool {
	_, ok := m.relation(name)
	return ok
}

func (m *Model) relation(name string) (RelationFunc, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	fn, ok := m.relations[name]
	return fn, ok
}

func (m *Model) filter(name string) (FilterFunc, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	fn, ok := m.filters[name]
	return fn, ok
}

func (m *Model) getter(field string) (GetterFunc, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	fn, ok := m.getters[field]
	return fn, ok
}

func (m *Model) setter(field string) (SetterFunc, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	fn, ok := m.setters[field]
	return fn, ok
}

func unknownModel(name string) error {
	return errors.Wrapf(ErrUnknownModel, "%q", name)
}

func unknownRelationship(m *Model, name string) error {
	return &RelationError{Model: m.name, Relation: name, Err: ErrUnknownRelationship}
}
