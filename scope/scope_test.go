package scope_test

import (
	"testing"

	"github.com/mickamy/ormrecord/scope"
)

// recorder captures what Scope.Apply dispatches.
type recorder struct {
	wheres   []appliedWhere
	orderBys []string
	groupBys []string
	joins    []scope.JoinSpec
	selects  []string
	limit    *int
	offset   *int
}

type appliedWhere struct {
	clause string
	args   []any
}

func (r *recorder) ApplyWhere(clause string, args []any) {
	r.wheres = append(r.wheres, appliedWhere{clause, args})
}
func (r *recorder) ApplyOrderBy(clause string)    { r.orderBys = append(r.orderBys, clause) }
func (r *recorder) ApplyGroupBy(column string)    { r.groupBys = append(r.groupBys, column) }
func (r *recorder) ApplyJoin(spec scope.JoinSpec) { r.joins = append(r.joins, spec) }
func (r *recorder) ApplyLimit(n int)              { r.limit = &n }
func (r *recorder) ApplyOffset(n int)             { r.offset = &n }
func (r *recorder) ApplySelect(columns string)    { r.selects = append(r.selects, columns) }

func TestWhereScopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scope  scope.Scope
		clause string
		args   []any
	}{
		{"where", scope.Where("manufactor > ?", 1), "manufactor > ?", []any{1}},
		{"where multi", scope.Where("name = ? AND owner = ?", "Audi", 3), "name = ? AND owner = ?", []any{"Audi", 3}},
		{"eq", scope.Eq("car_id", 2), "car_id = ?", []any{2}},
		{"in ints", scope.In("id", []int{1, 2, 3}), "id IN (?, ?, ?)", []any{1, 2, 3}},
		{"in strings", scope.In("name", []string{"Wheel", "Door"}), "name IN (?, ?)", []any{"Wheel", "Door"}},
		{"in empty", scope.In("id", []int{}), "1 = 0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &recorder{}
			tt.scope.Apply(r)

			if len(r.wheres) != 1 {
				t.Fatalf("expected 1 where, got %d", len(r.wheres))
			}
			if r.wheres[0].clause != tt.clause {
				t.Errorf("clause = %q, want %q", r.wheres[0].clause, tt.clause)
			}
			if len(r.wheres[0].args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", r.wheres[0].args, tt.args)
			}
			for i, want := range tt.args {
				if r.wheres[0].args[i] != want {
					t.Errorf("args[%d] = %v, want %v", i, r.wheres[0].args[i], want)
				}
			}
		})
	}
}

func TestOrderBy(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	scope.OrderBy("name DESC").Apply(r)

	if len(r.orderBys) != 1 || r.orderBys[0] != "name DESC" {
		t.Errorf("orderBys = %v, want [name DESC]", r.orderBys)
	}
}

func TestGroupBy(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	scope.GroupBy("car_id").Apply(r)

	if len(r.groupBys) != 1 || r.groupBys[0] != "car_id" {
		t.Errorf("groupBys = %v, want [car_id]", r.groupBys)
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	scope.Join("car_part", "part_id", "part", "id").Apply(r)
	scope.LeftJoin("owner", "id", "car", "owner").Apply(r)

	if len(r.joins) != 2 {
		t.Fatalf("joins = %d, want 2", len(r.joins))
	}
	want := scope.JoinSpec{Type: "INNER JOIN", Table: "car_part", Column: "part_id", OnTable: "part", OnColumn: "id"}
	if r.joins[0] != want {
		t.Errorf("joins[0] = %+v, want %+v", r.joins[0], want)
	}
	if r.joins[1].Type != "LEFT JOIN" {
		t.Errorf("joins[1].Type = %q, want LEFT JOIN", r.joins[1].Type)
	}
}

func TestLimitOffset(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	scope.Limit(10).Apply(r)
	scope.Offset(20).Apply(r)

	if r.limit == nil || *r.limit != 10 {
		t.Errorf("limit = %v, want 10", r.limit)
	}
	if r.offset == nil || *r.offset != 20 {
		t.Errorf("offset = %v, want 20", r.offset)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	r := &recorder{}
	scope.Select("id", "name").Apply(r)

	if len(r.selects) != 1 || r.selects[0] != "id, name" {
		t.Errorf("selects = %v, want [id, name]", r.selects)
	}
}

func TestScopesAppendDoesNotMutate(t *testing.T) {
	t.Parallel()

	s1 := scope.Combine(scope.Where("a = ?", 1))
	s2 := s1.Append(scope.Where("b = ?", 2), scope.Limit(10))

	if len(s1) != 1 {
		t.Errorf("original modified: len = %d, want 1", len(s1))
	}
	if len(s2) != 3 {
		t.Errorf("appended len = %d, want 3", len(s2))
	}
}

func TestScopesMerge(t *testing.T) {
	t.Parallel()

	base := scope.Combine(scope.Eq("manufactor", 1), scope.OrderBy("id ASC"))
	page := scope.Combine(scope.Limit(2), scope.Offset(4))
	merged := base.Merge(page)

	if len(base) != 2 || len(page) != 2 {
		t.Errorf("inputs modified: base=%d page=%d", len(base), len(page))
	}
	if len(merged) != 4 {
		t.Fatalf("merged len = %d, want 4", len(merged))
	}

	r := &recorder{}
	for _, s := range merged {
		s.Apply(r)
	}
	if len(r.wheres) != 1 || len(r.orderBys) != 1 {
		t.Errorf("wheres = %d, orderBys = %d, want 1 each", len(r.wheres), len(r.orderBys))
	}
	if r.limit == nil || *r.limit != 2 {
		t.Errorf("limit = %v, want 2", r.limit)
	}
	if r.offset == nil || *r.offset != 4 {
		t.Errorf("offset = %v, want 4", r.offset)
	}
}
