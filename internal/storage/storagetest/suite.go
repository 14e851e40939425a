// Package storagetest provides a behavioral suite every storage.Adapter
// implementation must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/schema"
	"github.com/roach88/automodel/internal/storage"
	"github.com/roach88/automodel/internal/testutil"
)

// Factory builds a fresh adapter driven by clock.
type Factory func(t *testing.T, clock storage.Clock) storage.Adapter

// RunAdapterSuite runs the shared adapter contract against factory.
func RunAdapterSuite(t *testing.T, factory Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, a storage.Adapter, clock *testutil.DeterministicClock)
	}{
		{"NoDatabaseSelected", testNoDatabase},
		{"InsertAssignsManagedFields", testInsertManagedFields},
		{"InsertIgnoresManagedInput", testInsertIgnoresManaged},
		{"IDsArePerTable", testIDsPerTable},
		{"IDsArePerDatabase", testIDsPerDatabase},
		{"FetchMissing", testFetchMissing},
		{"UpdateMergesFields", testUpdateMerges},
		{"UpdateMissing", testUpdateMissing},
		{"SoftDelete", testSoftDelete},
		{"HardDelete", testHardDelete},
		{"IDsNotReused", testIDsNotReused},
		{"QueryFilters", testQueryFilters},
		{"QueryOrderAndPaging", testQueryOrderAndPaging},
		{"QueryInvalid", testQueryInvalid},
		{"ValueFidelity", testValueFidelity},
		{"NumbersTakeDeclaredKind", testNumbersTakeDeclaredKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.NewDeterministicClock()
			a := factory(t, clock)
			t.Cleanup(func() { _ = a.Close() })
			tt.fn(t, a, clock)
		})
	}
}

func usersSchema() schema.Schema {
	return schema.Extract(testutil.UserShape())
}

func setup(t *testing.T, a storage.Adapter) context.Context {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.SelectDatabase(ctx, "main"))
	require.NoError(t, a.CreateTable(ctx, "users", usersSchema()))
	return ctx
}

func insert(t *testing.T, a storage.Adapter, ctx context.Context, table string, data map[string]any) storage.Row {
	t.Helper()
	row, err := a.Insert(ctx, table, data)
	require.NoError(t, err)
	return row
}

func ids(rows []storage.Row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[storage.FieldID].(int64))
	}
	return out
}

func testNoDatabase(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := context.Background()

	_, err := a.Insert(ctx, "users", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, storage.ErrNoDatabase)

	_, _, err = a.Fetch(ctx, "users", 1)
	assert.ErrorIs(t, err, storage.ErrNoDatabase)

	_, err = a.Query(ctx, "users", queryir.Query{})
	assert.ErrorIs(t, err, storage.ErrNoDatabase)

	assert.Error(t, a.SelectDatabase(ctx, ""))
}

func testInsertManagedFields(t *testing.T, a storage.Adapter, clock *testutil.DeterministicClock) {
	ctx := setup(t, a)
	want := clock.Current().Format(storage.TimeLayout)

	row := insert(t, a, ctx, "users", testutil.User("Alice", 30, "alice@example.com"))

	assert.Equal(t, int64(1), row[storage.FieldID])
	assert.Equal(t, want, row[storage.FieldCreateTime])
	assert.Equal(t, want, row[storage.FieldUpdateTime])
	assert.Equal(t, false, row[storage.FieldDeleted])
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, int64(30), row["age"])

	fetched, found, err := a.Fetch(ctx, "users", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, row, fetched)
}

func testInsertIgnoresManaged(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)

	row := insert(t, a, ctx, "users", map[string]any{
		"name":                  "Mallory",
		storage.FieldID:         int64(99),
		storage.FieldDeleted:    true,
		storage.FieldCreateTime: "1999-01-01 00:00:00",
	})

	assert.Equal(t, int64(1), row[storage.FieldID])
	assert.Equal(t, false, row[storage.FieldDeleted])
	assert.NotEqual(t, "1999-01-01 00:00:00", row[storage.FieldCreateTime])
}

func testIDsPerTable(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	require.NoError(t, a.CreateTable(ctx, "posts", schema.Extract(testutil.PostShape())))

	assert.Equal(t, int64(1), insert(t, a, ctx, "users", testutil.User("A", 1, "a"))[storage.FieldID])
	assert.Equal(t, int64(2), insert(t, a, ctx, "users", testutil.User("B", 2, "b"))[storage.FieldID])
	assert.Equal(t, int64(1), insert(t, a, ctx, "posts", map[string]any{"title": "t"})[storage.FieldID])
}

func testIDsPerDatabase(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	insert(t, a, ctx, "users", testutil.User("A", 1, "a"))
	insert(t, a, ctx, "users", testutil.User("B", 2, "b"))

	require.NoError(t, a.SelectDatabase(ctx, "other"))
	require.NoError(t, a.CreateTable(ctx, "users", usersSchema()))
	row := insert(t, a, ctx, "users", testutil.User("C", 3, "c"))
	assert.Equal(t, int64(1), row[storage.FieldID])

	rows, err := a.Query(ctx, "users", queryir.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, a.SelectDatabase(ctx, "main"))
	rows, err = a.Query(ctx, "users", queryir.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func testFetchMissing(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)

	row, found, err := a.Fetch(ctx, "users", 42)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, row)

	// A table that was never created reads as empty.
	_, found, err = a.Fetch(ctx, "ghosts", 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func testUpdateMerges(t *testing.T, a storage.Adapter, clock *testutil.DeterministicClock) {
	ctx := setup(t, a)
	created := insert(t, a, ctx, "users", testutil.User("Alice", 30, "alice@example.com"))

	clock.Advance(time.Minute)
	updated, found, err := a.Update(ctx, "users", 1, map[string]any{
		"age":           int64(31),
		storage.FieldID: int64(7),
	})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, int64(1), updated[storage.FieldID])
	assert.Equal(t, int64(31), updated["age"])
	assert.Equal(t, "Alice", updated["name"])
	assert.Equal(t, created[storage.FieldCreateTime], updated[storage.FieldCreateTime])
	assert.Greater(t, updated[storage.FieldUpdateTime].(string), created[storage.FieldUpdateTime].(string))

	fetched, _, err := a.Fetch(ctx, "users", 1)
	require.NoError(t, err)
	assert.Equal(t, updated, fetched)
}

func testUpdateMissing(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)

	row, found, err := a.Update(ctx, "users", 5, map[string]any{"age": int64(1)})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, row)
}

func testSoftDelete(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	insert(t, a, ctx, "users", testutil.User("A", 1, "a"))
	insert(t, a, ctx, "users", testutil.User("B", 2, "b"))

	ok, err := a.Delete(ctx, "users", 1, true)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := a.Fetch(ctx, "users", 1)
	require.NoError(t, err)
	assert.False(t, found)

	rows, err := a.Query(ctx, "users", queryir.Query{})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(rows))

	_, found, err = a.Update(ctx, "users", 1, map[string]any{"age": int64(9)})
	require.NoError(t, err)
	assert.False(t, found)

	// Soft-deleting again still reports the row as present.
	ok, err = a.Delete(ctx, "users", 1, true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testHardDelete(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	insert(t, a, ctx, "users", testutil.User("A", 1, "a"))

	ok, err := a.Delete(ctx, "users", 1, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Delete(ctx, "users", 1, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.Delete(ctx, "users", 100, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testIDsNotReused(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	insert(t, a, ctx, "users", testutil.User("A", 1, "a"))
	insert(t, a, ctx, "users", testutil.User("B", 2, "b"))

	_, err := a.Delete(ctx, "users", 2, false)
	require.NoError(t, err)

	row := insert(t, a, ctx, "users", testutil.User("C", 3, "c"))
	assert.Equal(t, int64(3), row[storage.FieldID])
}

func testQueryFilters(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	insert(t, a, ctx, "users", map[string]any{"name": "A", "age": int64(20), "status": "active"})
	insert(t, a, ctx, "users", map[string]any{"name": "B", "age": int64(30), "status": "inactive"})
	insert(t, a, ctx, "users", map[string]any{"name": "C", "age": int64(40), "status": "active"})

	tests := []struct {
		name  string
		conds []queryir.Condition
		want  []int64
	}{
		{"all", nil, []int64{1, 2, 3}},
		{"eq", []queryir.Condition{queryir.Eq("status", "active")}, []int64{1, 3}},
		{"ne", []queryir.Condition{queryir.Ne("status", "active")}, []int64{2}},
		{"gt", []queryir.Condition{queryir.Gt("age", int64(20))}, []int64{2, 3}},
		{"gte", []queryir.Condition{queryir.Gte("age", int64(30))}, []int64{2, 3}},
		{"lt", []queryir.Condition{queryir.Lt("age", int64(30))}, []int64{1}},
		{"lte", []queryir.Condition{queryir.Lte("age", int64(30))}, []int64{1, 2}},
		{"in", []queryir.Condition{queryir.In("name", "A", "C", "Z")}, []int64{1, 3}},
		{"conjunction", []queryir.Condition{
			queryir.Eq("status", "active"),
			queryir.Gt("age", int64(25)),
		}, []int64{3}},
		{"missing field", []queryir.Condition{queryir.Eq("nickname", "x")}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := a.Query(ctx, "users", queryir.Query{Conditions: tt.conds})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func testQueryOrderAndPaging(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)
	for i, age := range []int64{30, 10, 20, 10} {
		insert(t, a, ctx, "users", map[string]any{"name": string(rune('A' + i)), "age": age})
	}

	rows, err := a.Query(ctx, "users", queryir.Query{OrderBy: "age"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(rows))

	rows, err = a.Query(ctx, "users", queryir.Query{OrderBy: "-age"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(rows))

	rows, err = a.Query(ctx, "users", queryir.Query{OrderBy: "age", Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, ids(rows))

	rows, err = a.Query(ctx, "users", queryir.Query{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testQueryInvalid(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := setup(t, a)

	_, err := a.Query(ctx, "users", queryir.Query{
		Conditions: []queryir.Condition{{Field: "age", Op: "like", Value: 1}},
	})
	var verr *queryir.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = a.Query(ctx, "users", queryir.Query{Limit: -1})
	assert.ErrorAs(t, err, &verr)
}

func testValueFidelity(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := context.Background()
	require.NoError(t, a.SelectDatabase(ctx, "main"))

	shape := schema.MustShape("Sample",
		schema.NewField("count", schema.Integer),
		schema.NewField("ratio", schema.Real),
		schema.NewField("flag", schema.Boolean),
		schema.NewField("blob", schema.Binary),
		schema.NewField("note", schema.Optional(schema.Text)),
	)
	require.NoError(t, a.CreateTable(ctx, "samples", schema.Extract(shape)))

	in := map[string]any{
		"count": int64(1) << 60,
		"ratio": float64(2),
		"flag":  true,
		"blob":  []byte{0x00, 0xff, 0x10},
		"note":  nil,
	}
	insert(t, a, ctx, "samples", in)

	row, found, err := a.Fetch(ctx, "samples", 1)
	require.NoError(t, err)
	require.True(t, found)
	for k, v := range in {
		assert.Equal(t, v, row[k], "field %s", k)
	}
}

func testNumbersTakeDeclaredKind(t *testing.T, a storage.Adapter, _ *testutil.DeterministicClock) {
	ctx := context.Background()
	require.NoError(t, a.SelectDatabase(ctx, "main"))

	shape := schema.MustShape("Reading",
		schema.NewField("count", schema.Integer),
		schema.NewField("ratio", schema.Real),
		schema.NewField("limit", schema.Optional(schema.Integer)),
	)
	require.NoError(t, a.CreateTable(ctx, "readings", schema.Extract(shape)))

	row := insert(t, a, ctx, "readings", map[string]any{"count": float64(3), "ratio": 2, "limit": nil})
	assert.Equal(t, int64(3), row["count"])
	assert.Equal(t, float64(2), row["ratio"])
	assert.Nil(t, row["limit"])

	updated, found, err := a.Update(ctx, "readings", 1, map[string]any{"ratio": int64(5), "limit": uint8(9)})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(5), updated["ratio"])
	assert.Equal(t, int64(9), updated["limit"])

	fetched, found, err := a.Fetch(ctx, "readings", 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(3), fetched["count"])
	assert.Equal(t, float64(5), fetched["ratio"])
	assert.Equal(t, int64(9), fetched["limit"])
}
