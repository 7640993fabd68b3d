package record

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mickamy/ormrecord/orm"
)

// Attach links e to the associated rows ids through the join table of the
// ManyThrough relationship name. The cached value of name is dropped.
func (e *Entity) Attach(ctx context.Context, name string, ids ...any) error {
	rel, err := e.through(name)
	if err != nil {
		return err
	}
	defer e.Forget(name)
	t := rel.Through
	err = orm.InsertJoinPairs(ctx, e.db.q, t.Table, rel.ForeignKey, t.AssociatedKey, e.Attr(rel.LocalKey), ids)
	return errors.Wrapf(err, "record: attach %s.%s", e.model.name, name)
}

// Detach unlinks e from ids, or from every associated row when no id is given.
func (e *Entity) Detach(ctx context.Context, name string, ids ...any) error {
	rel, err := e.through(name)
	if err != nil {
		return err
	}
	defer e.Forget(name)
	t := rel.Through
	err = orm.DeleteJoinPairs(ctx, e.db.q, t.Table, rel.ForeignKey, t.AssociatedKey, e.Attr(rel.LocalKey), ids)
	return errors.Wrapf(err, "record: detach %s.%s", e.model.name, name)
}

// Sync makes ids the exact set of rows linked to e through name, adding and
// removing join rows in one transaction. Duplicate join rows of a kept id
// are left alone.
func (e *Entity) Sync(ctx context.Context, name string, ids ...any) error {
	rel, err := e.through(name)
	if err != nil {
		return err
	}
	defer e.Forget(name)

	t := rel.Through
	source := orm.NormalizeValue(e.Attr(rel.LocalKey))
	return e.db.Transaction(ctx, func(tx *DB) error {
		pairs, err := orm.QueryJoinTable[any, any](ctx, tx.q, t.Table, rel.ForeignKey, t.AssociatedKey, []any{source})
		if err != nil {
			return errors.Wrapf(err, "record: sync %s.%s", e.model.name, name)
		}
		current := make(map[any]struct{}, len(pairs))
		for _, target := range orm.UniqueTargets(pairs) {
			current[target] = struct{}{}
		}

		want := make(map[any]struct{}, len(ids))
		var add []any
		for _, id := range ids {
			id = orm.NormalizeValue(id)
			if _, ok := want[id]; ok {
				continue
			}
			want[id] = struct{}{}
			if _, ok := current[id]; !ok {
				add = append(add, id)
			}
		}
		remove := []any{}
		for target := range current {
			if _, ok := want[target]; !ok {
				remove = append(remove, target)
			}
		}

		if err := orm.DeleteJoinPairs(ctx, tx.q, t.Table, rel.ForeignKey, t.AssociatedKey, source, remove); err != nil {
			return errors.Wrapf(err, "record: sync %s.%s", e.model.name, name)
		}
		err = orm.InsertJoinPairs(ctx, tx.q, t.Table, rel.ForeignKey, t.AssociatedKey, source, add)
		return errors.Wrapf(err, "record: sync %s.%s", e.model.name, name)
	})
}

func (e *Entity) through(name string) (*Relation, error) {
	fn, ok := e.model.relation(name)
	if !ok {
		return nil, unknownRelationship(e.model, name)
	}
	rel := fn(e)
	if rel == nil {
		return nil, &RelationError{Model: e.model.name, Relation: name, Err: errors.New("declaration returned nil")}
	}
	if rel.err != nil {
		return nil, &RelationError{Model: e.model.name, Relation: name, Err: rel.err}
	}
	if rel.Kind != ManyThrough {
		return nil, &RelationError{Model: e.model.name, Relation: name, Err: ErrNotThrough}
	}
	return rel, nil
}
