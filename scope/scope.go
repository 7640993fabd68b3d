package scope

import "strings"

// Applier is implemented by query builders to receive scope fragments.
// This interface lives in the scope package so that orm can import scope
// without creating circular dependencies.
type Applier interface {
	ApplyWhere(clause string, args []any)
	ApplyOrderBy(clause string)
	ApplyGroupBy(column string)
	ApplyJoin(spec JoinSpec)
	ApplyLimit(n int)
	ApplyOffset(n int)
	ApplySelect(columns string)
}

// JoinSpec describes "Type Table ON Table.Column = OnTable.OnColumn".
type JoinSpec struct {
	Type     string
	Table    string
	Column   string
	OnTable  string
	OnColumn string
}

type scopeKind int

const (
	kindWhere scopeKind = iota
	kindOrderBy
	kindGroupBy
	kindJoin
	kindLimit
	kindOffset
	kindSelect
)

// Scope represents a single query condition fragment.
// Scopes are immutable and safe to reuse across queries.
type Scope struct {
	kind   scopeKind
	clause string
	args   []any
	n      int
	join   JoinSpec
}

// Apply dispatches this Scope to the given Applier.
func (s Scope) Apply(a Applier) {
	switch s.kind {
	case kindWhere:
		a.ApplyWhere(s.clause, s.args)
	case kindOrderBy:
		a.ApplyOrderBy(s.clause)
	case kindGroupBy:
		a.ApplyGroupBy(s.clause)
	case kindJoin:
		a.ApplyJoin(s.join)
	case kindLimit:
		a.ApplyLimit(s.n)
	case kindOffset:
		a.ApplyOffset(s.n)
	case kindSelect:
		a.ApplySelect(s.clause)
	}
}

// Where returns a Scope that adds a WHERE clause fragment.
//
//	scope.Where("age > ?", 18)
//	scope.Where("name = ? AND role = ?", "alice", "admin")
func Where(clause string, args ...any) Scope {
	return Scope{kind: kindWhere, clause: clause, args: args}
}

// Eq returns a WHERE scope comparing column with a single value.
//
//	scope.Eq("manufactor_id", 1)  // → WHERE manufactor_id = ?
func Eq(column string, value any) Scope {
	return Where(column+" = ?", value)
}

// OrderBy returns a Scope that sets the ORDER BY clause.
//
//	scope.OrderBy("created_at DESC")
func OrderBy(clause string) Scope {
	return Scope{kind: kindOrderBy, clause: clause}
}

// GroupBy returns a Scope that groups by column. The builder quotes it.
func GroupBy(column string) Scope {
	return Scope{kind: kindGroupBy, clause: column}
}

// Join returns an INNER JOIN scope.
//
//	scope.Join("car_part", "part_id", "part", "id")
//	// → INNER JOIN car_part ON car_part.part_id = part.id
func Join(table, column, onTable, onColumn string) Scope {
	return Scope{kind: kindJoin, join: JoinSpec{
		Type: "INNER JOIN", Table: table, Column: column, OnTable: onTable, OnColumn: onColumn,
	}}
}

// LeftJoin is Join with LEFT JOIN semantics.
func LeftJoin(table, column, onTable, onColumn string) Scope {
	s := Join(table, column, onTable, onColumn)
	s.join.Type = "LEFT JOIN"
	return s
}

// Limit returns a Scope that sets the LIMIT.
func Limit(n int) Scope {
	return Scope{kind: kindLimit, n: n}
}

// Offset returns a Scope that sets the OFFSET.
func Offset(n int) Scope {
	return Scope{kind: kindOffset, n: n}
}

// Select returns a Scope that overrides the SELECT column list.
//
//	scope.Select("id", "name")
func Select(columns ...string) Scope {
	return Scope{kind: kindSelect, clause: strings.Join(columns, ", ")}
}

// In returns a WHERE scope with an IN clause, expanding the slice into
// individual placeholders. No reflection is used; generics handle the
// type conversion.
//
//	scope.In("id", []int{1, 2, 3})  // → WHERE id IN (?, ?, ?)
func In[T any](column string, values []T) Scope {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	placeholders := repeatJoin("?", len(values))
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Where(column+" IN ("+placeholders+")", args...)
}

// Scopes is a named slice of Scope, useful for conditionally building
// up a set of scopes.
//
//	var s scope.Scopes
//	if cheap {
//	    s = s.Append(scope.Where("price < ?", 20))
//	}
//	s = s.Append(scope.Limit(10))
//	db.Query("Part").Scopes(s...).FindMany(ctx)
type Scopes []Scope

// Append adds scopes and returns a new Scopes. The receiver is not modified.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	return append(append(Scopes(nil), ss...), scopes...)
}

// Merge concatenates two Scopes and returns a new Scopes.
// Neither receiver nor argument is modified.
func (ss Scopes) Merge(other Scopes) Scopes {
	return append(append(Scopes(nil), ss...), other...)
}

// Combine creates a Scopes from the given scopes.
//
//	scope.Combine(scope.Limit(10), scope.Offset(20))
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}

func repeatJoin(s string, count int) string {
	if count <= 0 {
		return ""
	}
	parts := make([]string, count)
	for i := range parts {
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
