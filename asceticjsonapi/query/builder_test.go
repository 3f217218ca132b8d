package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/utils/testutils"
)

func TestCompileSelectAll(t *testing.T) {
	sql, params, err := Table("dogs").Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs"`, sql)
	assert.Empty(t, params)

	sql, _, err = Table("dogs").Select("*").Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs"`, sql)
}

func TestCompileSelectsExactlyGivenColumns(t *testing.T) {
	sql, _, err := Table("dogs").Select("id", "name").Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name" FROM "dogs"`, sql)
}

func TestCompileWhereIsSortedConjunction(t *testing.T) {
	sql, params, err := Table("dogs").
		Where(map[string]any{"name": "Rex", "age": 3}).
		Where(map[string]any{"owner_id": 9}).
		Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs" WHERE "age" = $1 AND "name" = $2 AND "owner_id" = $3`, sql)
	assert.Equal(t, []any{3, "Rex", 9}, params)
}

func TestCompileWhereNil(t *testing.T) {
	sql, params, err := Table("dogs").Where(map[string]any{"owner_id": nil}).Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs" WHERE "owner_id" IS NULL`, sql)
	assert.Empty(t, params)
}

func TestCompileWhereInKeepsDuplicates(t *testing.T) {
	sql, params, err := Table("people").WhereIn("id", []any{2, 5, 5}).Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE "id" IN ($1, $2, $3)`, sql)
	assert.Equal(t, []any{2, 5, 5}, params)
}

func TestCompileWhereInEmpty(t *testing.T) {
	sql, params, err := Table("people").WhereIn("id", nil).Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE FALSE`, sql)
	assert.Empty(t, params)
}

func TestCompileJoins(t *testing.T) {
	sql, params, err := Table("dogs").
		Select("dogs.*", "people.name").
		LeftOuterJoin("people", "dogs.owner_id", "people.id").
		Where(map[string]any{"dogs.id": 1}).
		Compile()
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "dogs".*, "people"."name" FROM "dogs" LEFT OUTER JOIN "people" ON "dogs"."owner_id" = "people"."id" WHERE "dogs"."id" = $1`,
		sql,
	)
	assert.Equal(t, []any{1}, params)

	sql, _, err = Table("dogs").Join("people", "dogs.owner_id", "people.id").Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs" INNER JOIN "people" ON "dogs"."owner_id" = "people"."id"`, sql)
}

func TestCompileFirst(t *testing.T) {
	sql, params, err := Table("people").Where(map[string]any{"id": 9}).First().Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "people" WHERE "id" = $1 LIMIT 1`, sql)
	assert.Equal(t, []any{9}, params)
}

func TestCompileQuotesHostileIdentifiers(t *testing.T) {
	sql, _, err := Table(`dogs"; DROP TABLE people; --`).Compile()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "dogs""; DROP TABLE people; --"`, sql)
}

func TestCompileWithoutTable(t *testing.T) {
	_, _, err := Table("").Compile()
	assert.Error(t, err)
}

func TestCompileInsert(t *testing.T) {
	sql, params, err := Table("dogs").CompileInsert(Record{"name": "Rex", "owner_id": 9})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "dogs" ("name", "owner_id") VALUES ($1, $2) RETURNING *`, sql)
	assert.Equal(t, []any{"Rex", 9}, params)

	sql, params, err = Table("dogs").CompileInsert(Record{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "dogs" DEFAULT VALUES RETURNING *`, sql)
	assert.Empty(t, params)
}

func TestCompileUpdate(t *testing.T) {
	sql, params, err := Table("dogs").
		Where(map[string]any{"id": 1}).
		CompileUpdate(Record{"name": "Rex", "owner_id": nil})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "dogs" SET "name" = $1, "owner_id" = $2 WHERE "id" = $3`, sql)
	assert.Equal(t, []any{"Rex", nil, 1}, params)

	_, _, err = Table("dogs").CompileUpdate(Record{})
	assert.Error(t, err)
}

func TestCompileDelete(t *testing.T) {
	sql, params, err := Table("dogs").Where(map[string]any{"id": 1}).CompileDelete()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "dogs" WHERE "id" = $1`, sql)
	assert.Equal(t, []any{1}, params)
}

func withSession(t *testing.T, pool *testutils.SessionPoolStub, fn func(s session.DbSession)) {
	t.Helper()
	err := pool.Session(context.Background(), func(s session.Session) error {
		fn(s.(session.DbSession))
		return nil
	})
	require.NoError(t, err)
}

func TestFetch(t *testing.T) {
	pool := testutils.NewSessionPoolStub().
		Returns(`FROM "dogs"`, []string{"id", "owner_id"}, []any{1, 9}, []any{2, nil})

	withSession(t, pool, func(s session.DbSession) {
		records, err := Table("dogs").Fetch(s)
		require.NoError(t, err)
		assert.Equal(t, []Record{{"id": 1, "owner_id": 9}, {"id": 2, "owner_id": nil}}, records)
	})
}

func TestFetchNoRows(t *testing.T) {
	pool := testutils.NewSessionPoolStub()

	withSession(t, pool, func(s session.DbSession) {
		records, err := Table("dogs").Fetch(s)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})
}

func TestFetchWrapsStoreError(t *testing.T) {
	boom := errors.New("boom")
	pool := testutils.NewSessionPoolStub().Fails(`FROM "dogs"`, boom)

	withSession(t, pool, func(s session.DbSession) {
		_, err := Table("dogs").Fetch(s)
		assert.ErrorIs(t, err, boom)
		assert.EqualError(t, err, "unable to fetch from dogs: boom")
	})
}

func TestModifyWrapsStoreErrorOnce(t *testing.T) {
	boom := errors.New("boom")
	pool := testutils.NewSessionPoolStub().Fails(`UPDATE "dogs"`, boom)

	withSession(t, pool, func(s session.DbSession) {
		_, err := Table("dogs").Where(map[string]any{"id": 1}).Update(s, Record{"name": "Rex"})
		assert.ErrorIs(t, err, boom)
		assert.EqualError(t, err, "unable to modify dogs: boom")
	})
}

func TestInsertReturnsStoredRow(t *testing.T) {
	pool := testutils.NewSessionPoolStub().
		Returns(`INSERT INTO "dogs"`, []string{"id", "name"}, []any{7, "Rex"})

	withSession(t, pool, func(s session.DbSession) {
		record, err := Table("dogs").Insert(s, Record{"name": "Rex"})
		require.NoError(t, err)
		assert.Equal(t, Record{"id": 7, "name": "Rex"}, record)
	})
}

func TestUpdateAndDeleteReportRowsAffected(t *testing.T) {
	pool := testutils.NewSessionPoolStub().
		Affects(`UPDATE "dogs"`, 1).
		Affects(`DELETE FROM "dogs"`, 0)

	withSession(t, pool, func(s session.DbSession) {
		n, err := Table("dogs").Where(map[string]any{"id": 1}).Update(s, Record{"name": "Rex"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = Table("dogs").Where(map[string]any{"id": 1}).Delete(s)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})
}
