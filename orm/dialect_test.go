package orm_test

import (
	"testing"

	"github.com/mickamy/ormrecord/orm"
)

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		index   int
		want    string
	}{
		{"MySQL/1", orm.MySQL, 1, "?"},
		{"MySQL/10", orm.MySQL, 10, "?"},
		{"SQLite/3", orm.SQLite, 3, "?"},
		{"PostgreSQL/1", orm.PostgreSQL, 1, "$1"},
		{"PostgreSQL/10", orm.PostgreSQL, 10, "$10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.dialect.Placeholder(tt.index); got != tt.want {
				t.Errorf("Placeholder(%d) = %q, want %q", tt.index, got, tt.want)
			}
		})
	}
}

func TestUseReturning(t *testing.T) {
	t.Parallel()

	if orm.MySQL.UseReturning() {
		t.Error("MySQL.UseReturning() = true, want false")
	}
	if orm.SQLite.UseReturning() {
		t.Error("SQLite.UseReturning() = true, want false")
	}
	if !orm.PostgreSQL.UseReturning() {
		t.Error("PostgreSQL.UseReturning() = false, want true")
	}
}

func TestReturningClause(t *testing.T) {
	t.Parallel()

	if got := orm.MySQL.ReturningClause("id"); got != "" {
		t.Errorf("MySQL.ReturningClause(\"id\") = %q, want %q", got, "")
	}
	want := ` RETURNING "id"`
	if got := orm.PostgreSQL.ReturningClause("id"); got != want {
		t.Errorf("PostgreSQL.ReturningClause(\"id\") = %q, want %q", got, want)
	}
}

func TestUseDistinctOn(t *testing.T) {
	t.Parallel()

	if orm.MySQL.UseDistinctOn() || orm.SQLite.UseDistinctOn() {
		t.Error("only PostgreSQL should use DISTINCT ON")
	}
	if !orm.PostgreSQL.UseDistinctOn() {
		t.Error("PostgreSQL.UseDistinctOn() = false, want true")
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		want    string
	}{
		{"MySQL", orm.MySQL, "`order`"},
		{"PostgreSQL", orm.PostgreSQL, `"order"`},
		{"SQLite", orm.SQLite, `"order"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.dialect.QuoteIdent("order"); got != tt.want {
				t.Errorf("QuoteIdent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		want   orm.Dialect
	}{
		{"mysql", orm.MySQL},
		{"pgx", orm.PostgreSQL},
		{"sqlite3", orm.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()

			got, err := orm.DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("DialectFor(%q): %v", tt.driver, err)
			}
			if got != tt.want {
				t.Errorf("DialectFor(%q) = %T, want %T", tt.driver, got, tt.want)
			}
		})
	}

	if _, err := orm.DialectFor("oracle"); err == nil {
		t.Error("DialectFor(oracle) should fail")
	}
}
