package render_test

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/ormrecord/internal/fixture"
	"github.com/mickamy/ormrecord/internal/render"
	"github.com/mickamy/ormrecord/orm"
	"github.com/mickamy/ormrecord/record"
)

func TestCollection(t *testing.T) {
	t.Parallel()

	raw, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = raw.Close() })

	ctx := context.Background()
	odb := orm.New(raw, orm.SQLite)
	require.NoError(t, fixture.Setup(ctx, odb))

	db := record.New(odb)
	fixture.Define(db)

	cars, err := db.Query("Car").With("manufactor", "parts").OrderBy("id").FindMany(ctx)
	require.NoError(t, err)

	out := render.Collection(cars, "name", "manufactor", "parts", "missing")
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "Car1")
	assert.Contains(t, out, "Manufactor#1")
	assert.Contains(t, out, "Manufactor#2")

	var buf bytes.Buffer
	require.NoError(t, render.Fprint(&buf, record.NewListCollection(), "name"))
	assert.Contains(t, strings.ToUpper(buf.String()), "NAME")
}
