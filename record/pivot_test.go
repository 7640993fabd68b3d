package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/ormrecord/record"
)

func TestAttachDetach(t *testing.T) {
	t.Parallel()

	ctx, db, rec := setup(t)

	car, err := db.Query("Car").With("parts").FindOne(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, car.Attach(ctx, "parts", 3, 4))
	assert.Equal(t, `INSERT INTO "car_part" ("car_id", "part_id") VALUES (?, ?), (?, ?)`, rec.last().SQL)
	_, cached := car.Related("parts")
	assert.False(t, cached, "attach drops the cached slot")

	parts, err := car.Many(ctx, "parts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(1), int64(3), int64(4)}, record.Column(parts, "id"))

	require.NoError(t, car.Detach(ctx, "parts", 1))
	assert.Equal(t, `DELETE FROM "car_part" WHERE "car_id" = ? AND "part_id" IN (?)`, rec.last().SQL)
	parts, err = car.Many(ctx, "parts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(3), int64(4)}, record.Column(parts, "id"))

	require.NoError(t, car.Detach(ctx, "parts"))
	assert.Equal(t, `DELETE FROM "car_part" WHERE "car_id" = ?`, rec.last().SQL)
	parts, err = car.Many(ctx, "parts")
	require.NoError(t, err)
	assert.Equal(t, 0, parts.Len())
}

func TestSync(t *testing.T) {
	t.Parallel()

	ctx, db, _ := setup(t)

	car, err := db.Query("Car").FindOne(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, car.Sync(ctx, "parts", 2, 3, 3))
	parts, err := car.Many(ctx, "parts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(2), int64(3)}, record.Column(parts, "id"))

	require.NoError(t, car.Sync(ctx, "parts"))
	parts, err = car.Many(ctx, "parts")
	require.NoError(t, err)
	assert.Equal(t, 0, parts.Len())

	other, err := db.Query("Part").With("cars").FindOne(ctx, 1)
	require.NoError(t, err)
	cars, err := other.Many(ctx, "cars")
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{int64(2), int64(3), int64(4)}, record.Column(cars, "id"))
}

func TestPivotRequiresManyThrough(t *testing.T) {
	t.Parallel()

	ctx, db, rec := setup(t)

	car, err := db.Query("Car").FindOne(ctx, 1)
	require.NoError(t, err)
	rec.reset()

	require.ErrorIs(t, car.Attach(ctx, "owner", 1), record.ErrNotThrough)
	require.ErrorIs(t, car.Sync(ctx, "manufactor", 1), record.ErrNotThrough)
	require.ErrorIs(t, car.Detach(ctx, "nothing"), record.ErrUnknownRelationship)
	assert.Empty(t, rec.sql())
}
