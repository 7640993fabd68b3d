package orm

import (
	"context"
	"fmt"
	"strings"
)

// JoinPair holds a source–target pair read from a join table.
type JoinPair[S, T comparable] struct {
	Source S
	Target T
}

// QueryJoinTable reads (sourceCol, targetCol) rows from the given join table
// where sourceCol IN (sourceIDs). It returns a slice of JoinPair.
func QueryJoinTable[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, sourceIDs []S,
) ([]JoinPair[S, T], error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	d := db.dialect()
	qi := d.QuoteIdent

	args := make([]any, len(sourceIDs))
	for i, id := range sourceIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s IN (%s)",
		qi(sourceCol), qi(targetCol), qi(table), qi(sourceCol),
		placeholders(len(sourceIDs)),
	)

	query = rewritePlaceholders(d, query)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	var pairs []JoinPair[S, T]
	for rows.Next() {
		var p JoinPair[S, T]
		if err := rows.Scan(&p.Source, &p.Target); err != nil {
			return nil, err //nolint:wrapcheck // pass through
		}
		pairs = append(pairs, normalizePair(p))
	}
	return pairs, rows.Err() //nolint:wrapcheck // pass through
}

// normalizePair folds []byte and narrow integers when S or T is any.
func normalizePair[S, T comparable](p JoinPair[S, T]) JoinPair[S, T] {
	if s, ok := any(&p.Source).(*any); ok {
		*s = NormalizeValue(*s)
	}
	if t, ok := any(&p.Target).(*any); ok {
		*t = NormalizeValue(*t)
	}
	return p
}

// InsertJoinPairs writes one (sourceCol, targetCol) row per target.
func InsertJoinPairs[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, source S, targets []T,
) error {
	if len(targets) == 0 {
		return nil
	}
	rows := make([]*Row, len(targets))
	for i, t := range targets {
		r := NewRow()
		r.Set(sourceCol, source)
		r.Set(targetCol, t)
		rows[i] = &r
	}
	return NewRowQuery(db, table, "", false).CreateAll(ctx, rows)
}

// DeleteJoinPairs removes the rows linking source to targets. A nil targets
// slice removes every row of source.
func DeleteJoinPairs[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, source S, targets []T,
) error {
	q := NewRowQuery(db, table, "", false).WhereEq(sourceCol, source)
	if targets != nil {
		if len(targets) == 0 {
			return nil
		}
		values := make([]any, len(targets))
		for i, t := range targets {
			values[i] = t
		}
		q = q.WhereIn(targetCol, values)
	}
	return q.Delete(ctx)
}

// UniqueTargets extracts deduplicated target values from a slice of JoinPair.
func UniqueTargets[S, T comparable](pairs []JoinPair[S, T]) []T {
	seen := make(map[T]struct{}, len(pairs))
	result := make([]T, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.Target]; !ok {
			seen[p.Target] = struct{}{}
			result = append(result, p.Target)
		}
	}
	return result
}

// GroupBySource groups JoinPair values by source key into a map[S][]T,
// keeping pair order within each group.
func GroupBySource[S, T comparable](pairs []JoinPair[S, T]) map[S][]T {
	m := make(map[S][]T)
	for _, p := range pairs {
		m[p.Source] = append(m[p.Source], p.Target)
	}
	return m
}

func placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "?"
	}
	return strings.Join(ph, ", ")
}
