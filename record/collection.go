package record

import (
	"context"
	"iter"

	"github.com/hashicorp/go-multierror"

	"github.com/mickamy/ormrecord/orm"
)

// Collection is an ordered set of entities of one model. KeyedCollection
// addresses entities by primary key; ListCollection by position and may
// hold the same row more than once.
type Collection interface {
	Len() int
	// Pairs yields (key, entity) in order. Keys are primary key values
	// for a KeyedCollection and int positions for a ListCollection.
	Pairs() iter.Seq2[any, *Entity]
	Entities() []*Entity
	Keys() []any
	Get(key any) (*Entity, bool)
	First() *Entity
	Last() *Entity

	sealed()
}

// KeyedCollection holds at most one entity per key, in insertion order.
type KeyedCollection struct {
	keys  []any
	items map[any]*Entity
}

// NewKeyedCollection returns an empty KeyedCollection.
func NewKeyedCollection() *KeyedCollection {
	return &KeyedCollection{items: make(map[any]*Entity)}
}

// Add stores e under key. An existing key keeps its position.
func (c *KeyedCollection) Add(key any, e *Entity) {
	key = orm.NormalizeValue(key)
	if _, ok := c.items[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.items[key] = e
}

func (c *KeyedCollection) Len() int { return len(c.keys) }

func (c *KeyedCollection) Pairs() iter.Seq2[any, *Entity] {
	return func(yield func(any, *Entity) bool) {
		for _, k := range c.keys {
			if !yield(k, c.items[k]) {
				return
			}
		}
	}
}

func (c *KeyedCollection) Entities() []*Entity {
	out := make([]*Entity, len(c.keys))
	for i, k := range c.keys {
		out[i] = c.items[k]
	}
	return out
}

func (c *KeyedCollection) Keys() []any { return append([]any(nil), c.keys...) }

func (c *KeyedCollection) Get(key any) (*Entity, bool) {
	e, ok := c.items[orm.NormalizeValue(key)]
	return e, ok
}

func (c *KeyedCollection) First() *Entity {
	if len(c.keys) == 0 {
		return nil
	}
	return c.items[c.keys[0]]
}

func (c *KeyedCollection) Last() *Entity {
	if len(c.keys) == 0 {
		return nil
	}
	return c.items[c.keys[len(c.keys)-1]]
}

func (*KeyedCollection) sealed() {}

// ListCollection is a positional sequence of entities.
type ListCollection struct {
	items []*Entity
}

// NewListCollection returns a ListCollection holding es.
func NewListCollection(es ...*Entity) *ListCollection {
	return &ListCollection{items: append([]*Entity(nil), es...)}
}

// Add appends e.
func (c *ListCollection) Add(e *Entity) { c.items = append(c.items, e) }

func (c *ListCollection) Len() int { return len(c.items) }

func (c *ListCollection) Pairs() iter.Seq2[any, *Entity] {
	return func(yield func(any, *Entity) bool) {
		for i, e := range c.items {
			if !yield(i, e) {
				return
			}
		}
	}
}

func (c *ListCollection) Entities() []*Entity { return append([]*Entity(nil), c.items...) }

func (c *ListCollection) Keys() []any {
	keys := make([]any, len(c.items))
	for i := range c.items {
		keys[i] = i
	}
	return keys
}

func (c *ListCollection) Get(key any) (*Entity, bool) {
	i, ok := key.(int)
	if !ok || i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

func (c *ListCollection) First() *Entity {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[0]
}

func (c *ListCollection) Last() *Entity {
	if len(c.items) == 0 {
		return nil
	}
	return c.items[len(c.items)-1]
}

func (*ListCollection) sealed() {}

// Column returns column's value for every entity of c, in order.
func Column(c Collection, column string) []any {
	out := make([]any, 0, c.Len())
	for _, e := range c.Pairs() {
		out = append(out, e.Attr(column))
	}
	return out
}

// SaveAll saves every entity of c and reports all failures together.
func SaveAll(ctx context.Context, c Collection) error {
	var result error
	for _, e := range c.Pairs() {
		if err := e.Save(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

var (
	_ Collection = (*KeyedCollection)(nil)
	_ Collection = (*ListCollection)(nil)
)
