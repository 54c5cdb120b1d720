//go:build integration && mysql

// Run with: go test -tags="integration,mysql" ./internal/tagging/...
// Requires a Docker daemon for testcontainers.
package tagging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/canonicaltags/ctags/internal/catalog"
	"github.com/canonicaltags/ctags/internal/datastore"
	"github.com/canonicaltags/ctags/internal/errors"
)

func newMySQLTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MySQL integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("ctags_test"),
		tcmysql.WithUsername("ctags"),
		tcmysql.WithPassword("ctags"),
	)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	store, err := datastore.NewMySQLManager(&datastore.MySQLConfig{
		Host:        host,
		Port:        port.Port(),
		Username:    "ctags",
		Password:    "ctags",
		Database:    "ctags_test",
		TablePrefix: "ct_",
	})
	require.NoError(t, err)
	require.NoError(t, store.Initialize())
	t.Cleanup(func() { _ = store.Close() })

	db := store.DB()
	require.NoError(t, db.Exec(`CREATE TABLE posts (
		id BIGINT UNSIGNED PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		published BOOLEAN NOT NULL DEFAULT FALSE
	)`).Error)

	cat := catalog.NewGormCatalog(db, catalog.WithLogger(quietLogger()))
	require.NoError(t, cat.Register(testPostType, catalog.Source{Table: "posts", Columns: []string{"title"}}))

	rec := newRecordingRecorder()
	engine, err := NewEngine(store, cat, WithLogger(quietLogger()), WithMetrics(rec))
	require.NoError(t, err)

	return &testEnv{engine: engine, store: store, catalog: cat, metrics: rec}
}

func TestMySQLScenario(t *testing.T) {
	env := newMySQLTestEnv(t)
	env.seedScenario(t)
	ctx := context.Background()
	scope := Scope{Type: testPostType}

	usage, err := env.engine.Usage(ctx, scope, CountOptions{Counts: true})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 2, 2: 2, 3: 1}, usageMap(usage))

	published, err := env.engine.Usage(ctx, Scope{Type: testPostType, Predicate: publishedOnly}, CountOptions{Counts: true})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 1, 2: 2, 3: 1}, usageMap(published))

	all, err := env.engine.MembersWithAll(ctx, scope, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []EntityRef{post(1)}, all)

	anyOf, err := env.engine.MembersWithAny(ctx, scope, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, refIDs(anyOf))

	related, err := env.engine.RelatedForTags(ctx, []uint{2}, testPostType, CountOptions{Counts: true})
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, uint(1), related[0].Tag.ID)
	assert.Equal(t, uint(3), related[1].Tag.ID)

	ranked, err := env.engine.RelatedEntities(ctx, post(1), scope, 0)
	require.NoError(t, err)
	assert.Equal(t, []RelatedEntity{{Ref: post(2), Shared: 1}, {Ref: post(3), Shared: 1}}, ranked)

	records, err := env.engine.RelatedRecords(ctx, post(1), scope, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint(2), records[0].ID)
}

func TestMySQLConstraintsAndAliases(t *testing.T) {
	env := newMySQLTestEnv(t)
	env.seedScenario(t)
	ctx := context.Background()

	err := env.engine.SetName(ctx, 2, "en", "x")
	assert.True(t, errors.IsConstraintViolation(err))

	require.NoError(t, env.engine.SetApproved(ctx, 1, "en", true))
	require.NoError(t, env.engine.SetApproved(ctx, 1, "en", true), "unchanged rows are not a miss")

	_, err = env.engine.CreateAlias(ctx, 1, "ex_1")
	require.NoError(t, err)
	_, err = env.engine.CreateAlias(ctx, 1, "ex1")
	require.NoError(t, err)

	literal, err := env.engine.SuggestAliases(ctx, "ex_", 10)
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "ex_1", literal[0].Alias.Name)

	require.NoError(t, env.engine.DeleteTag(ctx, 1))
	members, err := env.engine.MembersWithAny(ctx, Scope{Type: testPostType}, []uint{1})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMySQLConcurrentReplaceTagsLastWriterWins(t *testing.T) {
	assertLastWriterWins(t, newMySQLTestEnv(t))
}
