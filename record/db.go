// Package record is an Active-Record layer over orm: models are defined at
// runtime, entities wrap rows, and declared relationships are loaded
// eagerly in one batched query per relationship or lazily on first read.
package record

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mickamy/ormrecord/internal/naming"
	"github.com/mickamy/ormrecord/orm"
)

// DB binds a model registry to a Querier.
type DB struct {
	q      orm.Querier
	reg    *registry
	logger *slog.Logger
}

type registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	plural bool
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for eager-loading diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// PluralTables derives table names in plural form ("Car" → "cars").
// It affects models defined afterwards.
func PluralTables() Option {
	return func(db *DB) { db.reg.plural = true }
}

// New returns a DB issuing its queries through q.
func New(q orm.Querier, opts ...Option) *DB {
	db := &DB{
		q:      q,
		reg:    &registry{models: make(map[string]*Model)},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Querier returns the Querier the DB sends statements to.
func (db *DB) Querier() orm.Querier { return db.q }

// WithQuerier returns a DB sharing the model registry but issuing its
// statements through q, typically an *orm.Tx.
func (db *DB) WithQuerier(q orm.Querier) *DB {
	return &DB{q: q, reg: db.reg, logger: db.logger}
}

// Transaction runs fn with a DB bound to a transaction when the underlying
// Querier can open one, and with db itself otherwise (already inside one).
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	t, ok := db.q.(orm.Transactor)
	if !ok {
		return fn(db)
	}
	return t.Transaction(ctx, func(tx *orm.Tx) error { //nolint:wrapcheck // pass through
		return fn(db.WithQuerier(tx))
	})
}

// Define registers a model under name and returns it for further
// configuration. Redefining a name replaces the previous model.
func (db *DB) Define(name string, opts ...ModelOption) *Model {
	db.reg.mu.Lock()
	defer db.reg.mu.Unlock()

	m := &Model{
		name:      name,
		table:     naming.TableName(name, db.reg.plural),
		idColumn:  defaultIDColumn,
		reg:       db.reg,
		relations: make(map[string]RelationFunc),
		filters:   make(map[string]FilterFunc),
		getters:   make(map[string]GetterFunc),
		setters:   make(map[string]SetterFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	db.reg.models[name] = m
	return m
}

// Model returns the model registered under name.
func (db *DB) Model(name string) (*Model, bool) {
	return db.reg.model(name)
}

// Query starts a query against the named model. An unknown name yields a
// query whose terminal methods fail with ErrUnknownModel.
func (db *DB) Query(name string) *Query {
	m, ok := db.reg.model(name)
	if !ok {
		return &Query{db: db, err: unknownModel(name)}
	}
	return newQuery(db, m)
}

// New returns a new, unsaved entity of the named model filled with data.
func (db *DB) New(name string, data map[string]any) (*Entity, error) {
	m, ok := db.reg.model(name)
	if !ok {
		return nil, unknownModel(name)
	}
	return db.create(m, data), nil
}

func (r *registry) model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}
