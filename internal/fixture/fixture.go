// Package fixture provides the car/owner/manufactor/part schema, its seed
// rows and the matching record models.
package fixture

import (
	"context"
	"fmt"

	"github.com/mickamy/ormrecord/orm"
	"github.com/mickamy/ormrecord/record"
)

// Schema creates the fixture tables. It is portable across SQLite, MySQL
// and PostgreSQL.
var Schema = []string{
	`CREATE TABLE manufactor (id INTEGER PRIMARY KEY, name VARCHAR(64) NOT NULL)`,
	`CREATE TABLE owner (id INTEGER PRIMARY KEY, name VARCHAR(64) NOT NULL)`,
	`CREATE TABLE car (
		id INTEGER PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		manufactor_id INTEGER,
		owner_id INTEGER
	)`,
	`CREATE TABLE part (id INTEGER PRIMARY KEY, name VARCHAR(64) NOT NULL)`,
	`CREATE TABLE car_part (car_id INTEGER NOT NULL, part_id INTEGER NOT NULL)`,
}

// Drop removes the fixture tables.
var Drop = []string{
	`DROP TABLE IF EXISTS car_part`,
	`DROP TABLE IF EXISTS part`,
	`DROP TABLE IF EXISTS car`,
	`DROP TABLE IF EXISTS owner`,
	`DROP TABLE IF EXISTS manufactor`,
}

type seedTable struct {
	table   string
	columns []string
	rows    [][]any
}

var seed = []seedTable{
	{"manufactor", []string{"id", "name"}, [][]any{
		{1, "Manufactor1"},
		{2, "Manufactor2"},
	}},
	{"owner", []string{"id", "name"}, [][]any{
		{1, "Owner1"},
		{2, "Owner2"},
		{3, "Owner3"},
		{4, "Owner4"},
	}},
	{"car", []string{"id", "name", "manufactor_id", "owner_id"}, [][]any{
		{1, "Car1", 1, 1},
		{2, "Car2", 1, 2},
		{3, "Car3", 2, 3},
		{4, "Car4", 2, 4},
	}},
	{"part", []string{"id", "name"}, [][]any{
		{1, "Part1"},
		{2, "Part2"},
		{3, "Part3"},
		{4, "Part4"},
	}},
	// Car1 carries Part1 twice.
	{"car_part", []string{"car_id", "part_id"}, [][]any{
		{1, 1},
		{1, 2},
		{2, 1},
		{3, 1},
		{4, 1},
		{1, 1},
	}},
}

// Setup drops and recreates the fixture tables, then inserts the seed rows.
func Setup(ctx context.Context, q orm.Querier) error {
	for _, stmt := range append(append([]string(nil), Drop...), Schema...) {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("fixture: %w", err)
		}
	}
	for _, t := range seed {
		rows := make([]*orm.Row, len(t.rows))
		for i, values := range t.rows {
			r := orm.NewRow()
			for j, col := range t.columns {
				r.Set(col, values[j])
			}
			rows[i] = &r
		}
		if err := orm.NewRowQuery(q, t.table, "", false).CreateAll(ctx, rows); err != nil {
			return fmt.Errorf("fixture: seed %s: %w", t.table, err)
		}
	}
	return nil
}

// Define registers Car, Manufactor, Owner, Part and CarPart on db.
func Define(db *record.DB) {
	db.Define("Manufactor").
		Relation("cars", func(e *record.Entity, _ ...any) *record.Relation {
			return e.HasMany("Car")
		})

	db.Define("Owner").
		Relation("car", func(e *record.Entity, _ ...any) *record.Relation {
			return e.HasOne("Car", record.ForeignKey("owner_id"))
		})

	db.Define("Car").
		Relation("manufactor", func(e *record.Entity, _ ...any) *record.Relation {
			return e.BelongsTo("Manufactor")
		}).
		Relation("owner", func(e *record.Entity, _ ...any) *record.Relation {
			return e.BelongsTo("Owner")
		}).
		Relation("parts", func(e *record.Entity, _ ...any) *record.Relation {
			return e.HasManyThrough("Part")
		}).
		Filter("byName", func(q *record.Query, args ...any) *record.Query {
			return q.WhereEq("name", args[0])
		})

	db.Define("Part").
		Relation("cars", func(e *record.Entity, _ ...any) *record.Relation {
			return e.HasManyThrough("Car")
		})

	db.Define("CarPart")
}
